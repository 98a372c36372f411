package policy

import "testing"

func TestResolve_ExactTitleBeatsGeneric(t *testing.T) {
	r := NewResolver(map[string][]Rule{
		"Slack": {
			{Title: "#general - Slack", Action: ActionIgnore},
			{Action: ActionRestore, Threshold: 0.5},
		},
	}, Defaults{Action: ActionRestore, Threshold: 0.8})

	got := r.Resolve("Slack", "#general - Slack")
	if got.Action != ActionIgnore {
		t.Fatalf("expected exact-title rule to win, got %+v", got)
	}
}

func TestResolve_GenericRuleWinsOverDefault(t *testing.T) {
	r := NewResolver(map[string][]Rule{
		"Slack": {{Action: ActionIgnore}},
	}, Defaults{Action: ActionRestore, Threshold: 0.8})

	got := r.Resolve("Slack", "anything")
	if got.Action != ActionIgnore {
		t.Fatalf("expected generic rule to win, got %+v", got)
	}
}

func TestResolve_FallsBackToDefaults(t *testing.T) {
	r := NewResolver(nil, Defaults{Action: ActionRestore, Threshold: 0.8})
	got := r.Resolve("Unknown", "anything")
	if got.Action != ActionRestore || got.Threshold != 0.8 {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if got.AllowedProperties != nil {
		t.Fatalf("expected nil AllowedProperties (all managed properties allowed)")
	}
}

func TestPolicy_AllowsNilMeansAll(t *testing.T) {
	p := Policy{AllowedProperties: nil}
	if !p.Allows(PropertyPosition) {
		t.Fatalf("expected nil AllowedProperties to allow everything")
	}
}

func TestPolicy_AllowsRestrictedSet(t *testing.T) {
	p := Policy{AllowedProperties: []Property{PropertyPosition}}
	if !p.Allows(PropertyPosition) {
		t.Fatalf("expected position to be allowed")
	}
	if p.Allows(PropertyWorkspace) {
		t.Fatalf("expected workspace to be disallowed")
	}
}
