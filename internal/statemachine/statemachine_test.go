package statemachine

import (
	"testing"

	"github.com/windlayer/matcher/internal/policyconfig"
	"github.com/windlayer/matcher/internal/state"
)

func TestTimedOut_SpecificVsGenericThresholds(t *testing.T) {
	opts := policyconfig.DefaultOptions()

	specific := &state.Live{TransitionTime: 0, Details: state.Details{Title: "user@host: ~/project"}}
	if TimedOut(2000, specific, opts) {
		t.Fatalf("expected not timed out at 2000ms for a specific title")
	}
	if !TimedOut(2600, specific, opts) {
		t.Fatalf("expected timed out past SETTLE_MAX_WAIT for a specific title")
	}

	generic := &state.Live{TransitionTime: 0, Details: state.Details{Title: "Editor"}}
	if TimedOut(2600, generic, opts) {
		t.Fatalf("expected generic title to tolerate 2600ms (under GENERIC_TITLE_EXTENDED_WAIT)")
	}
	if !TimedOut(15001, generic, opts) {
		t.Fatalf("expected generic title timed out past 15000ms")
	}
}

func TestShouldDecide_GeometryGateDefers(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := &state.Live{
		TransitionTime: 0,
		LastEventTime:  0,
		Details:        state.Details{Title: "user@host: ~/project", FrameRect: state.Rect{Width: 0, Height: -5}},
	}
	if ShouldDecide(10000, live, opts, true, false) {
		t.Fatalf("expected geometry gate to defer decision even with an exact match available")
	}
}

func TestShouldDecide_ExactMatchDecidesImmediately(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := &state.Live{TransitionTime: 0, LastEventTime: 0, Details: state.Details{Title: "user@host: ~/project"}}
	if !ShouldDecide(1, live, opts, true, false) {
		t.Fatalf("expected an exact match to decide with no wait")
	}
}

func TestShouldDecide_AmbiguityDefersUntilTimedOut(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := &state.Live{TransitionTime: 0, LastEventTime: 0, Details: state.Details{Title: "user@host: ~/project"}}
	if ShouldDecide(1000, live, opts, false, true) {
		t.Fatalf("expected ambiguity gate to defer before timeout")
	}
	if !ShouldDecide(2600, live, opts, false, true) {
		t.Fatalf("expected ambiguity gate to release once timed out")
	}
}

func TestShouldDecide_SpecificTitleIdleOrTimedOutWithFloor(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := &state.Live{TransitionTime: 0, LastEventTime: 0, Details: state.Details{Title: "user@host: ~/project"}}

	if ShouldDecide(400, live, opts, false, false) {
		t.Fatalf("expected no decision before idle threshold")
	}
	if !ShouldDecide(600, live, opts, false, false) {
		t.Fatalf("expected decision once idle past SETTLE_IDLE_TIMEOUT")
	}

	live2 := &state.Live{TransitionTime: 0, LastEventTime: 2600, Details: state.Details{Title: "user@host: ~/project"}}
	if ShouldDecide(2700, live2, opts, false, false) {
		t.Fatalf("expected MIN_IDLE_TIME_BEFORE_MATCH floor to still apply when timed out")
	}
	if !ShouldDecide(3000, live2, opts, false, false) {
		t.Fatalf("expected decision once both timed out and past the idle floor")
	}
}

func TestShouldDecide_GenericTitleWaitsForTimeoutOrIdle(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := &state.Live{TransitionTime: 0, LastEventTime: 0, Details: state.Details{Title: "Editor"}}

	if ShouldDecide(400, live, opts, false, false) {
		t.Fatalf("expected no decision before idle threshold for a generic title")
	}
	if !ShouldDecide(600, live, opts, false, false) {
		t.Fatalf("expected decision once idle past SETTLE_IDLE_TIMEOUT for a generic title")
	}
}

func TestDecide_ExactTitleAlwaysConfident(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	scored := []ScoredSlot{{Slot: &state.Slot{}, Score: 1.0, ExactTitle: true}}
	out := Decide(scored, 0.8, opts, false)
	if out.Decision != DecisionMatch {
		t.Fatalf("expected exact-title match, got %+v", out)
	}
}

func TestDecide_LowSpreadWithoutTimeoutAddsNew(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	scored := []ScoredSlot{
		{Slot: &state.Slot{}, Score: 0.85},
		{Slot: &state.Slot{}, Score: 0.82},
	}
	out := Decide(scored, 0.8, opts, false)
	if out.Decision != DecisionAddNew {
		t.Fatalf("expected add_as_new when spread below MIN_SCORE_SPREAD and not timed out, got %+v", out)
	}
}

func TestDecide_TimedOutBypassesSpreadRequirement(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	scored := []ScoredSlot{
		{Slot: &state.Slot{}, Score: 0.85},
		{Slot: &state.Slot{}, Score: 0.82},
	}
	out := Decide(scored, 0.8, opts, true)
	if out.Decision != DecisionMatch {
		t.Fatalf("expected match once timed out even with a narrow spread, got %+v", out)
	}
}

func TestDecide_BelowThresholdAddsNew(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	scored := []ScoredSlot{{Slot: &state.Slot{}, Score: 0.5, ExactTitle: true}}
	out := Decide(scored, 0.8, opts, false)
	if out.Decision != DecisionAddNew {
		t.Fatalf("expected add_as_new below policy threshold, got %+v", out)
	}
}

func TestDetectDrift_PositionWithinTolerance(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := state.Details{FrameRect: state.Rect{X: 105, Y: 50, Width: 800, Height: 600}}
	target := state.Target{FrameRect: state.Rect{X: 100, Y: 50, Width: 800, Height: 600}}
	if DetectDrift(live, target, opts) {
		t.Fatalf("expected no drift within POSITION_TOLERANCE_PX")
	}
}

func TestDetectDrift_PositionBeyondTolerance(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := state.Details{FrameRect: state.Rect{X: 130, Y: 50, Width: 800, Height: 600}}
	target := state.Target{FrameRect: state.Rect{X: 100, Y: 50, Width: 800, Height: 600}}
	if !DetectDrift(live, target, opts) {
		t.Fatalf("expected drift when position exceeds tolerance")
	}
}

func TestDetectDrift_MonitorIndexMismatchAloneIsNotDrift(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := state.Details{Monitor: 0, FrameRect: state.Rect{X: 100, Y: 50, Width: 800, Height: 600}, Workspace: 2}
	target := state.Target{MonitorIndex: 1, FrameRect: state.Rect{X: 100, Y: 50, Width: 800, Height: 600}, Workspace: 2}
	if DetectDrift(live, target, opts) {
		t.Fatalf("expected monitor index mismatch alone not to be drift")
	}
}

func TestDetectDrift_WorkspaceMismatchIgnoredOnAllWorkspaces(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := state.Details{Workspace: 0, OnAllWorkspaces: true, FrameRect: state.Rect{X: 100, Y: 50, Width: 1, Height: 1}}
	target := state.Target{Workspace: 3, FrameRect: state.Rect{X: 100, Y: 50, Width: 1, Height: 1}}
	if DetectDrift(live, target, opts) {
		t.Fatalf("expected on-all-workspaces to suppress workspace-mismatch drift")
	}
}

func TestDetectDrift_MaximizedFlagMismatch(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := state.Details{Maximized: state.MaximizeNone}
	target := state.Target{Maximized: state.MaximizeBoth}
	if !DetectDrift(live, target, opts) {
		t.Fatalf("expected maximized-flag mismatch to be drift")
	}
}

func TestDetectDrift_BothMaximizedSkipsPositionCheck(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := state.Details{FrameRect: state.Rect{X: 0, Y: 0, Width: 400, Height: 300}, Maximized: state.MaximizeBoth}
	target := state.Target{FrameRect: state.Rect{X: 999, Y: 999, Width: 1920, Height: 1080}, Maximized: state.MaximizeBoth}
	if DetectDrift(live, target, opts) {
		t.Fatalf("expected BOTH-maximized targets to skip the position check")
	}
}

func TestRetryRestoring_BoundsDriftRetries(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := &state.Live{Phase: state.PhaseSettling, DriftRetries: 0}

	for i := 0; i < opts.MaxDriftRetries; i++ {
		if !RetryRestoring(live, int64(i+1), opts) {
			t.Fatalf("expected retry %d to succeed", i+1)
		}
	}
	if RetryRestoring(live, 99, opts) {
		t.Fatalf("expected retry to be refused once MAX_DRIFT_RETRIES is spent")
	}
	if live.DriftRetries != opts.MaxDriftRetries {
		t.Fatalf("expected DriftRetries to hold at %d, got %d", opts.MaxDriftRetries, live.DriftRetries)
	}
}

func TestEnterRestoring_ResetsDriftRetriesForNewCycle(t *testing.T) {
	opts := policyconfig.DefaultOptions()
	live := &state.Live{DriftRetries: opts.MaxDriftRetries}
	EnterRestoring(live, 10, state.Target{})
	if live.DriftRetries != 0 {
		t.Fatalf("expected a fresh RESTORING cycle to reset drift retries, got %d", live.DriftRetries)
	}
	if live.Phase != state.PhaseRestoring {
		t.Fatalf("expected phase RESTORING, got %s", live.Phase)
	}
}
