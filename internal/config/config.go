// Package config defines the engine's tunables (spec §6) and loads them
// from a YAML file plus environment overrides via spf13/viper, the way
// alex's runtime config layer does. It deliberately does not parse CLI
// flags — flag parsing is an out-of-scope external collaborator
// (spec §1) that is expected to populate EngineConfig fields itself and
// hand the result to this package's callers.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EngineConfig carries every option spec §6 recognizes, plus the ambient
// knobs SPEC_FULL.md §1 adds (logging, telemetry, provider roots).
type EngineConfig struct {
	// Aggregator tunables (spec §6).
	TimelineCap  int           `mapstructure:"timeline_cap"`
	LatencyCap   int           `mapstructure:"latency_cap"`
	BurnWindow   time.Duration `mapstructure:"burn_window"`
	BurnSample   time.Duration `mapstructure:"burn_sample"`
	ProviderID   string        `mapstructure:"provider_id"`

	// Open-question knobs, kept configurable per DESIGN.md decisions
	// rather than hardcoded (spec §9 open questions).
	CompactionDropRatio float64       `mapstructure:"compaction_drop_ratio"`
	StaleAfter          time.Duration `mapstructure:"stale_after"`
	GracePeriod         time.Duration `mapstructure:"grace_period"`

	// Precision knobs (SPEC_FULL §4.4.12).
	PreciseTokenEstimate bool `mapstructure:"precise_token_estimate"`

	// Knowledge-note threshold (SPEC_FULL §6): a `summary` event's text
	// is appended to knowledge-notes.json once it exceeds this length.
	KnowledgeNoteMinLength int `mapstructure:"knowledge_note_min_length"`

	// Watcher tunables (spec §4.9).
	TailDebounce    time.Duration `mapstructure:"tail_debounce"`
	TailCatchUp     time.Duration `mapstructure:"tail_catch_up"`
	DBDebounce      time.Duration `mapstructure:"db_debounce"`
	DBPoll          time.Duration `mapstructure:"db_poll"`

	// Out-of-process sqlite invocation (spec §4.1, §5).
	SqliteBinary  string        `mapstructure:"sqlite_binary"`
	SqliteTimeout time.Duration `mapstructure:"sqlite_timeout"`
	SqliteMaxBytes int64        `mapstructure:"sqlite_max_bytes"`

	// Storage roots (ambient; not spec'd but required to run).
	SnapshotDir string `mapstructure:"snapshot_dir"`
	StoreDir    string `mapstructure:"store_dir"`

	// Session-cell cache sizing (SPEC_FULL §4.1.4).
	MaxActiveSessions int `mapstructure:"max_active_sessions"`

	// Ambient observability.
	LogLevel        string `mapstructure:"log_level"`
	TracingBackend  string `mapstructure:"tracing_backend"` // "otlp" | "jaeger" | "zipkin" | "none"
	TracingEndpoint string `mapstructure:"tracing_endpoint"`
	MetricsAddr     string `mapstructure:"metrics_addr"`
}

// Defaults returns the documented default configuration (spec §6 defaults,
// plus reasonable defaults for the ambient additions).
func Defaults() EngineConfig {
	return EngineConfig{
		TimelineCap:            200,
		LatencyCap:             100,
		BurnWindow:             5 * time.Minute,
		BurnSample:             10 * time.Second,
		ProviderID:             "",
		CompactionDropRatio:    0.8,
		StaleAfter:             5 * time.Minute,
		GracePeriod:            5 * time.Second,
		PreciseTokenEstimate:   false,
		KnowledgeNoteMinLength: 280,
		TailDebounce:           100 * time.Millisecond,
		TailCatchUp:            30 * time.Second,
		DBDebounce:             200 * time.Millisecond,
		DBPoll:                 2 * time.Second,
		SqliteBinary:           "sqlite3",
		SqliteTimeout:          5 * time.Second,
		SqliteMaxBytes:         50 * 1024 * 1024,
		SnapshotDir:            ".agentlens/snapshots",
		StoreDir:               ".agentlens/store",
		MaxActiveSessions:      64,
		LogLevel:               "info",
		TracingBackend:         "none",
		MetricsAddr:            "",
	}
}

// Load reads an EngineConfig from path (YAML), falling back to defaults
// for unset fields, then applies AGENTLENS_-prefixed environment overrides.
// A missing file is not an error: Defaults() alone is a valid config,
// matching the "config loading is out of scope" framing in spec §1 — this
// is a convenience loader, not a required dependency of the core.
func Load(path string) (EngineConfig, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetEnvPrefix("AGENTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !errors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg EngineConfig) {
	v.SetDefault("timeline_cap", cfg.TimelineCap)
	v.SetDefault("latency_cap", cfg.LatencyCap)
	v.SetDefault("burn_window", cfg.BurnWindow)
	v.SetDefault("burn_sample", cfg.BurnSample)
	v.SetDefault("provider_id", cfg.ProviderID)
	v.SetDefault("compaction_drop_ratio", cfg.CompactionDropRatio)
	v.SetDefault("stale_after", cfg.StaleAfter)
	v.SetDefault("grace_period", cfg.GracePeriod)
	v.SetDefault("precise_token_estimate", cfg.PreciseTokenEstimate)
	v.SetDefault("knowledge_note_min_length", cfg.KnowledgeNoteMinLength)
	v.SetDefault("tail_debounce", cfg.TailDebounce)
	v.SetDefault("tail_catch_up", cfg.TailCatchUp)
	v.SetDefault("db_debounce", cfg.DBDebounce)
	v.SetDefault("db_poll", cfg.DBPoll)
	v.SetDefault("sqlite_binary", cfg.SqliteBinary)
	v.SetDefault("sqlite_timeout", cfg.SqliteTimeout)
	v.SetDefault("sqlite_max_bytes", cfg.SqliteMaxBytes)
	v.SetDefault("snapshot_dir", cfg.SnapshotDir)
	v.SetDefault("store_dir", cfg.StoreDir)
	v.SetDefault("max_active_sessions", cfg.MaxActiveSessions)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("tracing_backend", cfg.TracingBackend)
	v.SetDefault("tracing_endpoint", cfg.TracingEndpoint)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
}
