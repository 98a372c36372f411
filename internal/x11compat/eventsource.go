package x11compat

import (
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/windlayer/matcher/internal/matcher"
	"github.com/windlayer/matcher/internal/state"
)

// EventSource translates raw X11 events into matcher.RawEvent and feeds
// them to a Dispatcher, grounded on the teacher's event-listening shape
// (root window's _NET_CLIENT_LIST property drives window
// discovery/removal; per-window ConfigureNotify/PropertyNotify map to
// the rest of §6's on_event enum) adapted from the cortile tracker
// pattern in the reference pack, since the teacher itself has no
// structure-notify window tracker of its own.
type EventSource struct {
	conn *Connection
	topo *Topology
	disp *matcher.Dispatcher
	log  *slog.Logger

	// mu guards tracked and monitorSig: handleRootProperty/track/untrack
	// run on the X11 event-loop goroutine while PollMonitors runs on the
	// host's monitor-poll ticker goroutine.
	mu         sync.Mutex
	tracked    map[xproto.Window]bool
	monitorSig string
}

// NewEventSource builds an EventSource bound to a connection, topology,
// and dispatcher. Call Start once the X connection is established.
func NewEventSource(conn *Connection, topo *Topology, disp *matcher.Dispatcher, log *slog.Logger) *EventSource {
	if log == nil {
		log = slog.Default()
	}
	return &EventSource{conn: conn, topo: topo, disp: disp, log: log, tracked: make(map[xproto.Window]bool)}
}

// Start subscribes to root-window client-list changes and seeds
// tracking for every window already mapped. Connection.EventLoop must
// be run (by the caller) for callbacks registered here to ever fire.
// Monitor hotplug is not delivered as a core X event here (XRandR's
// ScreenChangeNotify requires tracking an extension-assigned event
// number xgbutil's callback registry has no ready-made wrapper for in
// this stack); see PollMonitors for how monitors-changed is detected
// instead.
func (e *EventSource) Start() error {
	root := e.conn.Root
	if err := xwindow.New(e.conn.XUtil, root).Listen(xproto.EventMaskPropertyChange | xproto.EventMaskSubstructureNotify); err != nil {
		return err
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		e.handleRootProperty(ev)
	}).Connect(e.conn.XUtil, root)

	e.monitorSig = e.topo.Signature()

	clients, err := ewmh.ClientListGet(e.conn.XUtil)
	if err != nil {
		return err
	}
	for _, w := range clients {
		e.track(w)
	}
	return nil
}

// PollMonitors re-enumerates XRandR outputs and, if the connector set or
// any monitor's geometry changed since the last call (or Start), raises
// monitors-changed for every tracked window. Intended to be called from
// a periodic ticker (see cmd/matcherctl's daemon wiring) since hotplug
// has no core-event notification path in this adapter.
func (e *EventSource) PollMonitors() {
	if err := e.topo.Refresh(); err != nil {
		e.log.Warn("refresh topology failed", "error", err)
		return
	}
	sig := e.topo.Signature()

	e.mu.Lock()
	changed := sig != e.monitorSig
	if changed {
		e.monitorSig = sig
	}
	windows := make([]xproto.Window, 0, len(e.tracked))
	for w := range e.tracked {
		windows = append(windows, w)
	}
	e.mu.Unlock()

	if !changed {
		return
	}
	for _, w := range windows {
		e.dispatch(w, matcher.EventMonitorsChanged)
	}
}

func (e *EventSource) handleRootProperty(ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(e.conn.XUtil, ev.Atom)
	if err != nil || name != "_NET_CLIENT_LIST" {
		return
	}

	clients, err := ewmh.ClientListGet(e.conn.XUtil)
	if err != nil {
		return
	}
	current := make(map[xproto.Window]bool, len(clients))

	e.mu.Lock()
	var toTrack, toUntrack []xproto.Window
	for _, w := range clients {
		current[w] = true
		if !e.tracked[w] {
			toTrack = append(toTrack, w)
		}
	}
	for w := range e.tracked {
		if !current[w] {
			toUntrack = append(toUntrack, w)
		}
	}
	e.mu.Unlock()

	for _, w := range toTrack {
		e.track(w)
	}
	for _, w := range toUntrack {
		e.untrack(w)
	}
}

func (e *EventSource) track(w xproto.Window) {
	e.mu.Lock()
	e.tracked[w] = true
	e.mu.Unlock()

	if err := xwindow.New(e.conn.XUtil, w).Listen(xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify); err != nil {
		return
	}

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		e.dispatchGeometry(w)
	}).Connect(e.conn.XUtil, w)

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		e.handleWindowProperty(w, ev)
	}).Connect(e.conn.XUtil, w)

	e.dispatch(w, matcher.EventInitialQuery)
}

func (e *EventSource) untrack(w xproto.Window) {
	e.mu.Lock()
	delete(e.tracked, w)
	e.mu.Unlock()

	xevent.Detach(e.conn.XUtil, w)

	e.disp.Dispatch(matcher.RawEvent{
		WinID: state.WindowID(w),
		Name:  matcher.EventDestroy,
	})
}

func (e *EventSource) handleWindowProperty(w xproto.Window, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(e.conn.XUtil, ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_WM_NAME", "WM_NAME":
		e.dispatch(w, matcher.EventNotifyTitle)
	case "WM_CLASS":
		e.dispatch(w, matcher.EventNotifyWMClass)
	case "_NET_WM_DESKTOP":
		e.dispatch(w, matcher.EventWorkspaceChanged)
	case "_NET_WM_STATE":
		e.dispatchState(w)
	}
}

func (e *EventSource) dispatchGeometry(w xproto.Window) {
	e.dispatch(w, matcher.EventSizeChanged)
	e.dispatch(w, matcher.EventPositionChanged)
}

// dispatchState re-reads _NET_WM_STATE. Identifying which of the four
// state flags actually changed would require diffing against
// last-known state; dispatch re-queries the full Details for every
// RawEvent, which makes that unnecessary here, so any state change is
// routed through notify::maximized-horizontally, which the dispatcher's
// trackability/decision logic treats identically to the other
// notify::* names (all fall through to re-reading Details).
func (e *EventSource) dispatchState(w xproto.Window) {
	e.dispatch(w, matcher.EventNotifyMaximizedHorizontal)
}

func (e *EventSource) dispatch(w xproto.Window, name matcher.EventName) {
	details, err := e.topo.Details(w)
	if err != nil {
		return
	}
	wtype := e.topo.WindowType(w)
	canMove, canResize := e.topo.CanMoveResize(w)

	e.disp.Dispatch(matcher.RawEvent{
		WinID:      state.WindowID(w),
		Name:       name,
		Details:    details,
		WindowType: wtype,
		CanMove:    canMove,
		CanResize:  canResize,
	})
}
