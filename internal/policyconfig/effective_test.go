package policyconfig

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/windlayer/matcher/internal/policy"
)

func TestBuildEffective_Defaults(t *testing.T) {
	eff, err := BuildEffective(RawConfig{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if eff.Options.DriftDetectionWindow != 500*time.Millisecond {
		t.Fatalf("expected default drift window, got %v", eff.Options.DriftDetectionWindow)
	}
	if eff.Options.MaxDriftRetries != 3 {
		t.Fatalf("expected default max drift retries 3, got %d", eff.Options.MaxDriftRetries)
	}
	got := eff.Resolver.Resolve("Unknown", "anything")
	if got.Action != policy.ActionRestore || got.Threshold != 0.8 {
		t.Fatalf("expected default policy, got %+v", got)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	eff, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if eff.Options.MinScoreSpread != 0.6 {
		t.Fatalf("expected default min score spread, got %v", eff.Options.MinScoreSpread)
	}
}

func TestBuildEffective_OverridesAndTunables(t *testing.T) {
	threshold := 0.5
	title := "#general - Slack"
	action := "IGNORE"
	maxRetries := 5

	raw := RawConfig{
		Overrides: map[string][]RawRule{
			"Slack": {{Title: &title, Action: &action}},
		},
		MaxDriftRetries:      &maxRetries,
		DefaultMatchThreshold: &threshold,
	}

	eff, err := BuildEffective(raw)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if eff.Options.MaxDriftRetries != 5 {
		t.Fatalf("expected overridden max drift retries, got %d", eff.Options.MaxDriftRetries)
	}
	got := eff.Resolver.Resolve("Slack", "#general - Slack")
	if got.Action != policy.ActionIgnore {
		t.Fatalf("expected ignore override, got %+v", got)
	}
	generic := eff.Resolver.Resolve("Slack", "anything else")
	if generic.Threshold != 0.5 {
		t.Fatalf("expected default threshold override applied, got %+v", generic)
	}
}

func TestBuildEffective_RejectsInvalidDefaultSyncMode(t *testing.T) {
	mode := "NOT_A_MODE"
	_, err := BuildEffective(RawConfig{DefaultSyncMode: &mode})
	if err == nil {
		t.Fatalf("expected error for invalid default_sync_mode")
	}
}
