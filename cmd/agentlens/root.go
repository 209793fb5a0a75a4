// Command agentlens is a minimal wiring entrypoint, not a full CLI: it
// loads configuration, stands up telemetry, resolves one coding-agent
// session through the matching provider, and watches it until it is
// asked to stop. Flag parsing beyond what's needed to drive that wiring
// is out of scope (spec §1) — there is no interactive prompt loop here,
// unlike alex's cmd/alex which doubles as a full chat UI.
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"agentlens/internal/config"
	"agentlens/internal/logging"
)

// rootFlags carries the handful of knobs this entrypoint accepts on top
// of config.EngineConfig's file/env-driven values.
type rootFlags struct {
	configPath string
	workspace  string
	providerID string
	sessionID  string
	dbPath     string
	root       string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "agentlens",
		Short: "Local observability engine for AI coding-agent sessions",
		Long: `agentlens watches a coding-agent CLI's session logs (Claude Code, Codex,
or OpenCode) and maintains a live view of token usage, tool calls, tasks,
plans, and context attribution for that session.

This binary is a thin wiring layer: it resolves one session, starts the
matching watcher, and runs until interrupted. It does not replace the
aggregator/provider/store packages it wires together, and it is not a
dashboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file (defaults apply if omitted)")
	cmd.PersistentFlags().StringVarP(&flags.workspace, "workspace", "w", ".", "workspace directory whose session to watch")
	cmd.PersistentFlags().StringVarP(&flags.providerID, "provider", "p", "", "provider id: claude-code | codex | opencode (overrides config)")
	cmd.PersistentFlags().StringVarP(&flags.sessionID, "session", "s", "", "explicit session path/id (skips active-session discovery)")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db-path", "", "opencode's sqlite database path (required when --provider=opencode)")
	cmd.PersistentFlags().StringVar(&flags.root, "root", "", "session root directory for claude-code/codex (defaults to the provider's conventional location under $HOME)")

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agentlens version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func loadEngineConfig(flags *rootFlags) (config.EngineConfig, logging.Logger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("agentlens: load config: %w", err)
	}
	if flags.providerID != "" {
		cfg.ProviderID = flags.providerID
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := logging.New(level).With("agentlens")
	return cfg, logger, nil
}

func runWatch(ctx context.Context, flags *rootFlags) error {
	cfg, logger, err := loadEngineConfig(flags)
	if err != nil {
		return err
	}
	return newApp(cfg, logger).run(ctx, flags)
}
