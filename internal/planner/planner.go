// Package planner implements the Operation Planner (§4.4): it diffs live
// window state against a target config and emits an ordered list of
// operations, respecting compositor ordering constraints and policy-gated
// properties.
package planner

import (
	"github.com/windlayer/matcher/internal/policy"
	"github.com/windlayer/matcher/internal/state"
)

// Target is an already-resolved, absolute placement (the output of
// internal/layout, or a captured target_config reused directly for drift
// correction).
type Target = state.Target

// Plan implements §4.4. live is the window's last-observed details;
// target is the placement to reconcile toward; pol gates which properties
// may be touched; force makes every applicable field emit an operation
// regardless of equality with live state (monitor hot-plug, drift
// correction); direct, if non-nil, replaces target (bypassing whatever
// resolution the caller would otherwise have done, reusing a captured
// target_config for drift correction).
func Plan(live state.Details, target Target, pol policy.Policy, force bool, direct *Target) []Operation {
	if pol.Action == policy.ActionIgnore {
		return nil
	}
	if direct != nil {
		target = *direct
	}

	var main []Operation

	if pol.Allows(policy.PropertyMonitor) && (force || target.MonitorIndex != live.Monitor) {
		main = append(main, moveToMonitor(target.MonitorIndex))
	}

	if pol.Allows(policy.PropertyWorkspace) && (force || target.Workspace != live.Workspace) {
		main = append(main, moveToWorkspace(target.Workspace))
	}

	if pol.Allows(policy.PropertyMaximized) {
		switch {
		case force || target.Maximized != live.Maximized:
			switch {
			case target.Maximized == state.MaximizeNone:
				main = append(main, unmaximize())
			case target.Maximized == state.MaximizeBoth:
				main = append(main, maximize(state.MaximizeBoth))
			default: // tiled: HORIZONTAL or VERTICAL only
				if force {
					// Guarantee a clean tile re-application even when the
					// flags already appear identical.
					main = append(main, unmaximize())
				}
				main = append(main, maximize(target.Maximized))
			}
		}
	}

	if target.Maximized != state.MaximizeBoth && live.FrameRect.Valid() {
		if pol.Allows(policy.PropertyPosition) && (force || target.FrameRect != live.FrameRect) {
			main = append(main, place(target.FrameRect))
		}
	}

	if pol.Allows(policy.PropertyMinimized) && target.Minimized && !live.Minimized {
		main = append(main, minimize())
	}

	if pol.Allows(policy.PropertyFullscreen) && (force || target.Fullscreen != live.Fullscreen) {
		main = append(main, setFullscreen(target.Fullscreen))
	}

	return insertPreconditions(main, live.Maximized)
}

// insertPreconditions is the second pass of §4.4: it simulates an
// "effective maximized" state across the op list and inserts Unmaximize
// immediately before any op that requires an unmaximized window, skipping
// the insertion when the state is already effectively unmaximized.
func insertPreconditions(ops []Operation, liveMaximized state.Maximize) []Operation {
	effective := liveMaximized
	out := make([]Operation, 0, len(ops)+2)

	needsUnmaximize := func() bool {
		return effective != state.MaximizeNone
	}

	for _, op := range ops {
		switch op.Kind {
		case KindMoveToMonitor, KindMove:
			if needsUnmaximize() {
				out = append(out, unmaximize())
				effective = state.MaximizeNone
			}
			out = append(out, op)
		case KindMaximize:
			if needsUnmaximize() && effective != op.Maximized {
				out = append(out, unmaximize())
				effective = state.MaximizeNone
			}
			out = append(out, op)
			effective = op.Maximized
		case KindUnmaximize:
			out = append(out, op)
			effective = state.MaximizeNone
		case KindPlace:
			if effective == state.MaximizeBoth {
				out = append(out, unmaximize())
				effective = state.MaximizeNone
			}
			out = append(out, op)
		default:
			out = append(out, op)
		}
	}

	return out
}
