package statemachine

import (
	"github.com/windlayer/matcher/internal/policyconfig"
	"github.com/windlayer/matcher/internal/state"
)

// DetectDrift implements the SETTLING drift check of §4.5: position
// (tolerant, and skipped for BOTH-maximized targets), workspace (ignored
// when either side is on-all-workspaces), and the maximized flags.
// Monitor-index mismatch alone is deliberately not checked: monitor
// indices are unstable and are only ever corroborated through position.
func DetectDrift(live state.Details, target state.Target, opts policyconfig.Options) bool {
	if target.Maximized != state.MaximizeBoth {
		dx := abs(live.FrameRect.X - target.FrameRect.X)
		dy := abs(live.FrameRect.Y - target.FrameRect.Y)
		if dx > opts.PositionTolerancePx || dy > opts.PositionTolerancePx {
			return true
		}
	}

	if live.Workspace != target.Workspace && !live.OnAllWorkspaces && !target.OnAllWorkspaces {
		return true
	}

	if live.Maximized != target.Maximized {
		return true
	}

	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
