package matcher

import (
	"github.com/windlayer/matcher/internal/planner"
	"github.com/windlayer/matcher/internal/state"
)

// Executor is the host-provided operation sink (§6's "Executor
// interface"). Execute runs a batch for one window; operations within a
// batch are fallible and idempotent, and a transient failure on one
// operation does not stop the rest of the batch (§7). The host calls
// Dispatcher.OperationsComplete(winID) once the batch settles (including
// any workspace-change wait and OPERATION_SETTLE_DELAY), mirroring §6's
// on_operations_complete callback.
//
// ToggleFullscreen, SetOnAllWorkspaces, SetAbove, and Close(forced) are
// part of the host-facing executor surface (§6) for capabilities the core
// itself never emits as a planned Operation; a concrete Executor still
// implements them for direct, out-of-core-scope command paths (e.g. a CLI
// "close window" subcommand).
type Executor interface {
	Execute(winID state.WindowID, ops []planner.Operation)
	ToggleFullscreen(winID state.WindowID)
	SetOnAllWorkspaces(winID state.WindowID, on bool)
	SetAbove(winID state.WindowID, on bool)
	Close(winID state.WindowID, forced bool)
}

// PolicyFilter is the optional external policy callback (§4.6 step 2): it
// may veto tracking a window outright. A nil filter allows every window.
type PolicyFilter func(details state.Details) bool
