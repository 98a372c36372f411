package x11compat

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/windlayer/matcher/internal/state"
)

// WindowType classifies a window the way the matcher's trackability gate
// (§4.6 step 5) needs: "" (or "normal") is trackable, anything else is
// not. Generalized from the teacher's IsNormalWindow (boolean) into the
// string the dispatcher's RawEvent.WindowType field expects.
func (t *Topology) WindowType(win xproto.Window) string {
	types, err := ewmh.WmWindowTypeGet(t.conn.XUtil, win)
	if err != nil || len(types) == 0 {
		return "normal"
	}
	for _, ty := range types {
		switch ty {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return "normal"
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			return "desktop"
		case "_NET_WM_WINDOW_TYPE_DOCK":
			return "dock"
		case "_NET_WM_WINDOW_TYPE_SPLASH":
			return "splash"
		case "_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return "notification"
		case "_NET_WM_WINDOW_TYPE_DIALOG":
			return "dialog"
		}
	}
	return types[0]
}

// CanMoveResize reports whether the window manager's configured size
// hints permit moving and resizing (a fixed-size dialog with min==max
// hints cannot be usefully placed, §4.6 step 5's trackability gate).
func (t *Topology) CanMoveResize(win xproto.Window) (canMove, canResize bool) {
	hints, err := icccm.WmNormalHintsGet(t.conn.XUtil, win)
	if err != nil {
		return true, true
	}
	fixed := hints.Flags&icccm.SizeHintPMinSize != 0 &&
		hints.Flags&icccm.SizeHintPMaxSize != 0 &&
		hints.MinWidth == hints.MaxWidth &&
		hints.MinHeight == hints.MaxHeight
	return true, !fixed
}

// Details queries a window's current geometry and EWMH state, building
// the state.Details the dispatcher keys every decision on. Monitor is the
// first monitor in the topology's cached enumeration whose geometry holds
// the absolute frame's top-left corner, or 0 when none does. Workspace
// comes from _NET_WM_DESKTOP (0 when unreadable; the all-desktops value
// sets OnAllWorkspaces instead).
func (t *Topology) Details(win xproto.Window) (state.Details, error) {
	conn := t.conn.XUtil.Conn()

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return state.Details{}, err
	}
	translate, err := xproto.TranslateCoordinates(conn, win, t.conn.Root, 0, 0).Reply()
	if err != nil {
		return state.Details{}, err
	}

	wmClass, err := icccm.WmClassGet(t.conn.XUtil, win)
	class := ""
	if err == nil && wmClass != nil {
		class = wmClass.Class
	}

	title, err := ewmh.WmNameGet(t.conn.XUtil, win)
	if err != nil || title == "" {
		title, _ = icccm.WmNameGet(t.conn.XUtil, win)
	}

	desktop, err := ewmh.WmDesktopGet(t.conn.XUtil, win)
	workspace := 0
	onAll := false
	if err == nil {
		if desktop == 0xFFFFFFFF {
			onAll = true
		} else {
			workspace = int(desktop)
		}
	}

	rect := state.Rect{
		X: int(translate.DstX), Y: int(translate.DstY),
		Width: int(geom.Width), Height: int(geom.Height),
	}

	monitorIdx := 0
	t.mu.RLock()
	for _, m := range t.monitors {
		if rect.X >= m.geometry.X && rect.X < m.geometry.X+m.geometry.Width &&
			rect.Y >= m.geometry.Y && rect.Y < m.geometry.Y+m.geometry.Height {
			monitorIdx = m.index
			break
		}
	}
	t.mu.RUnlock()

	states, _ := ewmh.WmStateGet(t.conn.XUtil, win)
	var maximized state.Maximize
	minimized, fullscreen, above := false, false, false
	for _, s := range states {
		switch s {
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			maximized |= state.MaximizeHorizontal
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			maximized |= state.MaximizeVertical
		case "_NET_WM_STATE_HIDDEN":
			minimized = true
		case "_NET_WM_STATE_FULLSCREEN":
			fullscreen = true
		case "_NET_WM_STATE_ABOVE":
			above = true
		}
	}

	return state.Details{
		WMClass:         class,
		Title:           title,
		Workspace:       workspace,
		Monitor:         monitorIdx,
		FrameRect:       rect,
		Maximized:       maximized,
		Minimized:       minimized,
		Fullscreen:      fullscreen,
		OnAllWorkspaces: onAll,
		Above:           above,
	}, nil
}
