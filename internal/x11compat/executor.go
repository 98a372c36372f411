package x11compat

import (
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/windlayer/matcher/internal/planner"
	"github.com/windlayer/matcher/internal/state"
	"github.com/windlayer/matcher/internal/timer"
)

// Executor implements internal/matcher.Executor against a live X11
// connection, grounded on the teacher's internal/x11/windows.go
// (MoveResizeWindow, unmaximizeWindow, IsNormalWindow) generalized from a
// single MoveResizeWindow call into the full Operation.Kind switch §4.4's
// planner emits.
type Executor struct {
	conn *Connection
	log  *slog.Logger

	harness     *timer.Harness
	settleDelay time.Duration
	onComplete  func(state.WindowID)
}

// NewExecutor builds an Executor bound to an X connection.
func NewExecutor(conn *Connection, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{conn: conn, log: log}
}

// SetCompletionHook wires the executor's Execute calls to
// matcher.Dispatcher.OperationsComplete, the host-side half of §6's
// on_operations_complete callback: every non-empty batch this executor
// runs to completion schedules fn(winID) after delay (OPERATION_SETTLE_DELAY,
// §6), via harness, so the call runs on the harness timer's own goroutine
// rather than on the X event goroutine; OperationsComplete takes the
// store lock itself.
func (e *Executor) SetCompletionHook(harness *timer.Harness, delay time.Duration, fn func(state.WindowID)) {
	e.harness = harness
	e.settleDelay = delay
	e.onComplete = fn
}

// Execute runs a batch of operations against one window, in order.
// Operations are fallible and idempotent (§7): a failed call is logged
// and the batch continues rather than aborting. Operations run back to
// back: after MoveToWorkspace the next operation is sent at once, with no
// wait for the workspace change to take effect (WorkspaceSettleTimeout is
// not read here).
func (e *Executor) Execute(winID state.WindowID, ops []planner.Operation) {
	win := xproto.Window(winID)
	for _, op := range ops {
		var err error
		switch op.Kind {
		case planner.KindMoveToMonitor:
			// No EWMH "move to monitor" primitive exists: a window's
			// monitor is implied by its absolute position. The Place
			// operation that follows in the same batch does the actual
			// relocation; this step exists only for ordering (§4.4
			// emits MoveToMonitor before MoveToWorkspace/Place).
		case planner.KindMoveToWorkspace:
			err = ewmh.WmDesktopSet(e.conn.XUtil, win, uint(op.Workspace))
		case planner.KindMaximize:
			err = e.setMaximized(win, op.Maximized)
		case planner.KindUnmaximize:
			err = e.setMaximized(win, state.MaximizeNone)
		case planner.KindPlace, planner.KindMove:
			err = e.moveResize(win, op.Rect)
		case planner.KindMinimize:
			err = ewmh.WmStateReq(e.conn.XUtil, win, ewmh.StateAdd, "_NET_WM_STATE_HIDDEN")
		case planner.KindSetFullscreen:
			action := ewmh.StateRemove
			if op.Fullscreen {
				action = ewmh.StateAdd
			}
			err = ewmh.WmStateReq(e.conn.XUtil, win, action, "_NET_WM_STATE_FULLSCREEN")
		}
		if err != nil {
			e.log.Warn("operation failed", "window", winID, "kind", op.Kind, "error", err)
		}
	}
	if len(ops) > 0 && e.onComplete != nil {
		e.harness.After(e.settleDelay, func() { e.onComplete(winID) })
	}
}

// moveResize mirrors the teacher's MoveResizeWindow: unmaximize first
// (EWMH move/resize is ignored by most window managers on a maximized
// window), request via EWMH, and fall back to a direct configure if the
// window manager doesn't honor the EWMH request.
func (e *Executor) moveResize(win xproto.Window, r state.Rect) error {
	_ = e.setMaximized(win, state.MaximizeNone)

	if err := ewmh.MoveresizeWindow(e.conn.XUtil, win, r.X, r.Y, r.Width, r.Height); err != nil {
		xwindow.New(e.conn.XUtil, win).MoveResize(r.X, r.Y, r.Width, r.Height)
	}
	return nil
}

// setMaximized reconciles a window's _NET_WM_STATE_MAXIMIZED_HORZ/VERT
// pair to match m, generalized from the teacher's unmaximizeWindow (which
// only ever removed both) into also supporting tiled (horizontal-only or
// vertical-only) and fully maximized targets.
func (e *Executor) setMaximized(win xproto.Window, m state.Maximize) error {
	states, err := ewmh.WmStateGet(e.conn.XUtil, win)
	if err != nil {
		states = nil
	}

	hasH, hasV := false, false
	for _, s := range states {
		if s == "_NET_WM_STATE_MAXIMIZED_HORZ" {
			hasH = true
		}
		if s == "_NET_WM_STATE_MAXIMIZED_VERT" {
			hasV = true
		}
	}

	wantH := m == state.MaximizeBoth || m == state.MaximizeHorizontal
	wantV := m == state.MaximizeBoth || m == state.MaximizeVertical

	if wantH != hasH {
		action := ewmh.StateRemove
		if wantH {
			action = ewmh.StateAdd
		}
		if err := ewmh.WmStateReq(e.conn.XUtil, win, action, "_NET_WM_STATE_MAXIMIZED_HORZ"); err != nil {
			return err
		}
	}
	if wantV != hasV {
		action := ewmh.StateRemove
		if wantV {
			action = ewmh.StateAdd
		}
		if err := ewmh.WmStateReq(e.conn.XUtil, win, action, "_NET_WM_STATE_MAXIMIZED_VERT"); err != nil {
			return err
		}
	}
	return nil
}

// ToggleFullscreen flips a window's fullscreen state without the core
// having planned it, for direct host-facing command paths (§6).
func (e *Executor) ToggleFullscreen(winID state.WindowID) {
	win := xproto.Window(winID)
	states, err := ewmh.WmStateGet(e.conn.XUtil, win)
	if err != nil {
		return
	}
	isFullscreen := false
	for _, s := range states {
		if s == "_NET_WM_STATE_FULLSCREEN" {
			isFullscreen = true
		}
	}
	action := ewmh.StateAdd
	if isFullscreen {
		action = ewmh.StateRemove
	}
	if err := ewmh.WmStateReq(e.conn.XUtil, win, action, "_NET_WM_STATE_FULLSCREEN"); err != nil {
		e.log.Warn("toggle fullscreen failed", "window", winID, "error", err)
	}
}

// SetOnAllWorkspaces pins or unpins a window across every workspace via
// the EWMH sticky convention: desktop 0xFFFFFFFF means "all desktops".
func (e *Executor) SetOnAllWorkspaces(winID state.WindowID, on bool) {
	win := xproto.Window(winID)
	desktop := uint(0)
	if on {
		desktop = 0xFFFFFFFF
	} else if cur, err := ewmh.WmDesktopGet(e.conn.XUtil, win); err == nil {
		desktop = cur
	}
	if err := ewmh.WmDesktopSet(e.conn.XUtil, win, desktop); err != nil {
		e.log.Warn("set on-all-workspaces failed", "window", winID, "error", err)
	}
}

// SetAbove toggles the always-on-top state.
func (e *Executor) SetAbove(winID state.WindowID, on bool) {
	win := xproto.Window(winID)
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	if err := ewmh.WmStateReq(e.conn.XUtil, win, action, "_NET_WM_STATE_ABOVE"); err != nil {
		e.log.Warn("set above failed", "window", winID, "error", err)
	}
}

// Close requests the window close via EWMH _NET_CLOSE_WINDOW; forced
// close falls back to destroying the client connection directly.
func (e *Executor) Close(winID state.WindowID, forced bool) {
	win := xproto.Window(winID)
	if forced {
		xproto.DestroyWindow(e.conn.XUtil.Conn(), win)
		return
	}
	if err := ewmh.CloseWindow(e.conn.XUtil, win); err != nil {
		e.log.Warn("close window failed", "window", winID, "error", err)
	}
}
