package main

import (
	"fmt"
	"os"
	"path/filepath"

	"agentlens/internal/config"
	"agentlens/internal/provider"
	"agentlens/internal/provider/claudecode"
	"agentlens/internal/provider/codex"
	"agentlens/internal/provider/opencode"
)

// resolveProviderAndSession picks the provider.SessionProvider flags/cfg
// selects and the session it should watch: the explicit --session value
// when given, otherwise the provider's own active-session discovery
// (spec §4.1).
func resolveProviderAndSession(cfg config.EngineConfig, flags *rootFlags) (provider.SessionProvider, string, error) {
	providerID := flags.providerID
	if providerID == "" {
		providerID = cfg.ProviderID
	}
	if providerID == "" {
		providerID = claudecode.ProviderID
	}

	prov, err := newProvider(providerID, flags.root, flags.dbPath)
	if err != nil {
		return nil, "", err
	}

	if flags.sessionID != "" {
		return prov, flags.sessionID, nil
	}

	sessionID := prov.FindActiveSession(flags.workspace)
	if sessionID == "" {
		return nil, "", fmt.Errorf("agentlens: no active %s session found for workspace %q", providerID, flags.workspace)
	}
	return prov, sessionID, nil
}

func newProvider(providerID, root, dbPath string) (provider.SessionProvider, error) {
	switch providerID {
	case claudecode.ProviderID:
		return claudecode.New(orDefaultRoot(root, ".claude", "projects")), nil
	case codex.ProviderID:
		return codex.New(orDefaultRoot(root, ".codex", "sessions")), nil
	case opencode.ProviderID:
		if dbPath == "" {
			return nil, fmt.Errorf("agentlens: --db-path is required for provider %q", opencode.ProviderID)
		}
		return opencode.New(dbPath, nil), nil
	default:
		return nil, fmt.Errorf("agentlens: unknown provider %q (want %s, %s, or %s)", providerID, claudecode.ProviderID, codex.ProviderID, opencode.ProviderID)
	}
}

// orDefaultRoot returns root unchanged when set, otherwise
// $HOME/<elem...>, the conventional session directory each CLI uses.
func orDefaultRoot(root string, elem ...string) string {
	if root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append([]string{home}, elem...)...)
}
