// Package x11compat is the X11/EWMH/XRandR adapter: the concrete
// implementation of internal/layout's Topology capability and
// internal/matcher's Executor capability, grounded on the teacher's
// internal/x11 package (github.com/BurntSushi/xgb, xgbutil, EWMH, RandR).
package x11compat

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection owns the X11 connection and root window, exactly the
// teacher's internal/x11.Connection shape minus the hotkey/keybind
// initialization (this domain has no global-hotkey surface).
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection establishes a connection to the X server. EWMH and RandR
// extension state is initialized lazily by xgbutil/randr on first use.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	return &Connection{XUtil: xu, Root: xu.RootWin()}, nil
}

// EventLoop runs xgbutil's blocking event dispatch loop. The host wires an
// EventSource adapter (eventsource.go) that translates raw X11
// events into matcher.RawEvent and calls Dispatcher.Dispatch from the
// handlers registered against this loop, preserving the single-threaded
// run-to-completion model (§5).
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Close disconnects from the X server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
