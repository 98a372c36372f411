// Package statemachine implements the per-window phase machine (§4.5):
// PENDING's decision policy, the phase transitions themselves, and the
// SETTLING drift check. It is pure and clock-injected (the caller supplies
// "now" as a monotonic millisecond timestamp) so internal/matcher can drive
// it deterministically from tests without sleeping.
package statemachine

import (
	"github.com/windlayer/matcher/internal/policyconfig"
	"github.com/windlayer/matcher/internal/state"
)

// EnterPending creates the Live record for a freshly-observed window
// identifier, the "(none) -> PENDING" transition in §4.5's table.
func EnterPending(now int64, details state.Details) *state.Live {
	return &state.Live{
		Phase:          state.PhasePending,
		TransitionTime: now,
		LastEventTime:  now,
		Details:        details,
	}
}

// EnterTracking moves live to TRACKING, whether directly from PENDING
// (zero planned operations) or from SETTLING (no drift, or drift retries
// exhausted). A fresh TRACKING period has nothing left to reconcile.
func EnterTracking(live *state.Live, now int64) {
	live.Phase = state.PhaseTracking
	live.TransitionTime = now
	live.TargetConfig = nil
	live.DriftRetries = 0
}

// EnterRestoring starts a brand new reconciliation cycle — PENDING's first
// match, a monitor-change replan, or a user-monitor-change restore — and
// resets the drift-retry budget for that cycle (testable property 8 bounds
// retries per RESTORING-to-TRACKING cycle, not over a window's lifetime).
func EnterRestoring(live *state.Live, now int64, target state.Target) {
	live.Phase = state.PhaseRestoring
	live.TransitionTime = now
	live.TargetConfig = &target
	live.DriftRetries = 0
}

// EnterSettling starts the post-batch settle wait. Any event arriving
// during SETTLING should call this again to reset the settle timer (§4.5:
// "Any event during settle resets the settle timer"); it is idempotent
// apart from refreshing TransitionTime.
func EnterSettling(live *state.Live, now int64) {
	live.Phase = state.PhaseSettling
	live.TransitionTime = now
}

// RetryRestoring re-enters RESTORING after a drift-detected settle expiry,
// consuming one unit of the retry budget. It reports false once
// opts.MaxDriftRetries is already spent, telling the caller to give up and
// call EnterTracking instead (§4.5: "Drift detected with drift_retries >= 3
// (give up)").
func RetryRestoring(live *state.Live, now int64, opts policyconfig.Options) bool {
	if live.DriftRetries >= opts.MaxDriftRetries {
		return false
	}
	live.DriftRetries++
	live.Phase = state.PhaseRestoring
	live.TransitionTime = now
	return true
}
