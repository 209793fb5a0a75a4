package main

import "testing"

func TestLoadEngineConfigAppliesProviderFlagOverride(t *testing.T) {
	flags := &rootFlags{providerID: "opencode"}
	cfg, logger, err := loadEngineConfig(flags)
	if err != nil {
		t.Fatalf("loadEngineConfig: %v", err)
	}
	if cfg.ProviderID != "opencode" {
		t.Fatalf("cfg.ProviderID = %q, want the flag override", cfg.ProviderID)
	}
	if logger == nil {
		t.Fatal("expected a non-nil logger")
	}
}

func TestLoadEngineConfigFallsBackToFileProviderWhenFlagUnset(t *testing.T) {
	flags := &rootFlags{}
	cfg, _, err := loadEngineConfig(flags)
	if err != nil {
		t.Fatalf("loadEngineConfig: %v", err)
	}
	if cfg.ProviderID != "" {
		t.Fatalf("cfg.ProviderID = %q, want the default empty value unchanged", cfg.ProviderID)
	}
}

func TestNewRootCommandRegistersVersionSubcommand(t *testing.T) {
	cmd := newRootCommand()
	found := false
	for _, c := range cmd.Commands() {
		if c.Use == "version" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a version subcommand")
	}
}
