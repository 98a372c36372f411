package x11compat

import (
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/randr"

	"github.com/windlayer/matcher/internal/state"
)

// monitor is one active CRTC's geometry and output (connector) name, the
// teacher's Monitor struct (internal/x11/monitors.go) adapted to also
// carry the stable connector identifier the core keys configs on.
type monitor struct {
	index     int
	connector string
	geometry  state.Rect
}

// Topology implements internal/layout.Topology (and the reverse
// connector-for-monitor lookup internal/matcher needs) against live
// XRandR state. It caches the last enumeration; Refresh re-queries it, once
// at daemon start and then from EventSource.PollMonitors, which raises
// "monitors-changed" when the refreshed enumeration differs.
type Topology struct {
	conn *Connection

	mu       sync.RWMutex
	monitors []monitor
}

// NewTopology builds a Topology bound to an X connection. Call Refresh
// once before first use.
func NewTopology(conn *Connection) *Topology {
	return &Topology{conn: conn}
}

// Refresh re-enumerates active CRTCs via XRandR, grounded on the
// teacher's GetMonitors (internal/x11/monitors.go): walk screen resources'
// CRTCs, skip disabled ones (zero geometry or no outputs), and resolve
// each CRTC's first output's name as the connector identifier.
func (t *Topology) Refresh() error {
	conn := t.conn.XUtil.Conn()
	if err := randr.Init(conn); err != nil {
		return fmt.Errorf("x11compat: randr init: %w", err)
	}

	resources, err := randr.GetScreenResources(conn, t.conn.Root).Reply()
	if err != nil {
		return fmt.Errorf("x11compat: get screen resources: %w", err)
	}

	var monitors []monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if outInfo, err := randr.GetOutputInfo(conn, info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(outInfo.Name)
		}

		monitors = append(monitors, monitor{
			index:     len(monitors),
			connector: name,
			geometry: state.Rect{
				X: int(info.X), Y: int(info.Y),
				Width: int(info.Width), Height: int(info.Height),
			},
		})
	}

	t.mu.Lock()
	t.monitors = monitors
	t.mu.Unlock()
	return nil
}

func (t *Topology) AvailableConnectors() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.monitors))
	for i, m := range t.monitors {
		out[i] = m.connector
	}
	return out
}

func (t *Topology) MonitorForConnector(connector string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.monitors {
		if m.connector == connector {
			return m.index, true
		}
	}
	return 0, false
}

func (t *Topology) MonitorGeometry(index int) (state.Rect, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.monitors {
		if m.index == index {
			return m.geometry, true
		}
	}
	return state.Rect{}, false
}

func (t *Topology) ConnectorForMonitor(index int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.monitors {
		if m.index == index {
			return m.connector, true
		}
	}
	return "", false
}

// Signature returns a string that changes whenever the connector set or
// any monitor's geometry changes, so a caller can detect a hotplug by
// comparing signatures across a Refresh without reasoning about XRandR
// event numbers directly.
func (t *Topology) Signature() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var b strings.Builder
	for _, m := range t.monitors {
		fmt.Fprintf(&b, "%s:%d,%d,%d,%d;", m.connector, m.geometry.X, m.geometry.Y, m.geometry.Width, m.geometry.Height)
	}
	return b.String()
}
