package main

import (
	"context"
	"fmt"
	"os"

	"agentlens/internal/aggregator"
	"agentlens/internal/config"
	"agentlens/internal/eventmodel"
	"agentlens/internal/logging"
	"agentlens/internal/plan"
	"agentlens/internal/provider"
	"agentlens/internal/provider/opencode"
	"agentlens/internal/sessionmanager"
	"agentlens/internal/snapshot"
	"agentlens/internal/store"
	"agentlens/internal/telemetry"
	"agentlens/internal/watch"
)

// app holds the long-lived collaborators runWatch wires together: exactly
// the set a real deployment would build once at startup and tear down
// once at shutdown.
type app struct {
	cfg    config.EngineConfig
	logger logging.Logger
}

func newApp(cfg config.EngineConfig, logger logging.Logger) *app {
	return &app{cfg: cfg, logger: logging.OrNop(logger)}
}

func (a *app) run(ctx context.Context, flags *rootFlags) error {
	ctx, stop := installSignalHandler(ctx, a.logger)
	defer stop()

	tel, err := telemetry.Setup(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("agentlens: telemetry setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("agentlens: telemetry shutdown: %v", err)
		}
	}()

	stores := store.New(a.cfg.StoreDir, a.logger)
	snapshots := snapshot.New(a.cfg.SnapshotDir, a.logger)

	manager, err := sessionmanager.NewManager(a.cfg.MaxActiveSessions, snapshots, stores, a.cfg.KnowledgeNoteMinLength, tel.Collector, a.logger)
	if err != nil {
		return fmt.Errorf("agentlens: new session manager: %w", err)
	}

	prov, sessionID, err := resolveProviderAndSession(a.cfg, flags)
	if err != nil {
		return err
	}

	cell, created, err := manager.GetOrCreate(sessionID, func() (*sessionmanager.Cell, error) {
		return a.buildCell(prov, sessionID)
	})
	if err != nil {
		return fmt.Errorf("agentlens: build session cell: %w", err)
	}
	if created {
		a.logger.Info("agentlens: watching session %s via provider %s", sessionID, prov.ID())
	}
	if cell.Watcher != nil {
		if err := cell.Watcher.Start(ctx, true); err != nil {
			return fmt.Errorf("agentlens: start watcher: %w", err)
		}
	}

	<-ctx.Done()
	a.logger.Info("agentlens: shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	return manager.StopAll(stopCtx)
}

// buildCell constructs the reader/aggregator/watcher triple for one
// session, branching on whether the provider is JSONL-backed (tail watch)
// or database-backed (poll watch), matching spec §4.1/§4.9.
func (a *app) buildCell(prov provider.SessionProvider, sessionID string) (*sessionmanager.Cell, error) {
	rd, err := prov.CreateReader(sessionID)
	if err != nil {
		return nil, fmt.Errorf("create reader: %w", err)
	}

	aggCfg := aggregator.Config{
		TimelineCap:          a.cfg.TimelineCap,
		LatencyCap:           a.cfg.LatencyCap,
		BurnWindow:           a.cfg.BurnWindow,
		BurnSample:           a.cfg.BurnSample,
		ProviderID:           prov.ID(),
		CompactionDropRatio:  a.cfg.CompactionDropRatio,
		PreciseTokenEstimate: a.cfg.PreciseTokenEstimate,
	}
	if sizer, ok := prov.(provider.ContextSizer); ok {
		aggCfg.ComputeContextSize = sizer.ComputeContextSize
	}

	extractor := plan.New(prov.ID(), func(path string) (string, bool) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", false
		}
		return string(b), true
	})

	agg := aggregator.New(aggCfg, a.logger, extractor)
	cell := sessionmanager.NewCell(sessionID, prov.ID(), agg, nil)

	onEvents := func(events []eventmodel.SessionEvent) {
		for _, e := range events {
			cell.Aggregator.ProcessSessionEvent(e)
		}
		cell.UpdateCursor(int64(rd.GetPosition()), sourceSize(prov, sessionID))
	}

	watchCfg := watch.Config{
		TailDebounce: a.cfg.TailDebounce,
		TailCatchUp:  a.cfg.TailCatchUp,
		DBDebounce:   a.cfg.DBDebounce,
		DBPoll:       a.cfg.DBPoll,
	}

	if op, ok := prov.(*opencode.Provider); ok {
		cell.Watcher = watch.NewDBWatcher(op.DBPath, rd, onEvents, watchCfg, a.logger)
		return cell, nil
	}

	cell.Watcher = watch.NewJSONLWatcher(sessionID, rd, onEvents, watchCfg, a.logger)
	return cell, nil
}

// sourceSize reports the current on-disk size backing sessionID, best
// effort, for the snapshot envelope's SourceSize field (spec §4.8). A
// failure yields 0, which snapshot.IsValid treats as always valid, so the
// size check is skipped for that snapshot.
func sourceSize(prov provider.SessionProvider, sessionID string) int64 {
	stats, err := prov.ReadSessionStats(sessionID)
	if err != nil {
		return 0
	}
	return stats.SizeBytes
}
