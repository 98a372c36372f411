package statemachine

import (
	"testing"

	"github.com/windlayer/matcher/internal/policyconfig"
	"github.com/windlayer/matcher/internal/state"
)

func TestHasExactMatch(t *testing.T) {
	slots := []*state.Slot{
		{Identity: state.Identity{WMClass: "Term", Title: "a"}},
		{Identity: state.Identity{WMClass: "Term", Title: "b"}},
	}
	if !HasExactMatch(state.Identity{WMClass: "Term", Title: "b"}, slots) {
		t.Fatalf("expected exact match for identical identity")
	}
	if HasExactMatch(state.Identity{WMClass: "Term", Title: "c"}, slots) {
		t.Fatalf("expected no exact match for a novel title")
	}
}

func TestAmbiguous_RequiresSameWMClassAndSimilarity(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	a := state.Identity{WMClass: "Editor", Title: "README.md — Editor"}
	b := state.Identity{WMClass: "Editor", Title: "README.md — Editor"}
	if !Ambiguous(a, b, opts) {
		t.Fatalf("expected identical identities to be ambiguous")
	}

	c := state.Identity{WMClass: "Term", Title: "README.md — Editor"}
	if Ambiguous(a, c, opts) {
		t.Fatalf("expected different wm_class to never be ambiguous")
	}
}

func TestGeometryGate(t *testing.T) {
	if GeometryGate(state.Details{}) {
		t.Fatalf("expected a never-observed (zero) rect not to gate")
	}
	if !GeometryGate(state.Details{FrameRect: state.Rect{Width: -1, Height: 10}}) {
		t.Fatalf("expected a present-but-invalid rect to gate")
	}
	if GeometryGate(state.Details{FrameRect: state.Rect{Width: 10, Height: 10}}) {
		t.Fatalf("expected a valid rect not to gate")
	}
}

func TestScoreSlots_OrdersExactTitleFirstThenByScore(t *testing.T) {
	live := state.Identity{WMClass: "Editor", Title: "README.md — Editor"}
	slots := []*state.Slot{
		{Identity: state.Identity{WMClass: "Editor", Title: "LICENSE — Editor"}},
		{Identity: state.Identity{WMClass: "Editor", Title: "README.md — Editor"}},
	}
	scored := ScoreSlots(live, slots)
	if !scored[0].ExactTitle || scored[0].Slot != slots[1] {
		t.Fatalf("expected exact-title slot ranked first, got %+v", scored)
	}
}
