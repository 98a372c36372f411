// Package layout implements the Layout Resolver (§4.3): given a
// remembered slot's per-connector configs and the current monitor
// topology, pick the best applicable config and convert it to an absolute
// target.
package layout

import "github.com/windlayer/matcher/internal/state"

// Topology exposes the monitor/connector facts the resolver needs. It is
// the "capability trait" redesign (§9) the core consumes; a real
// implementation is provided by internal/x11compat, and tests supply a
// stub.
type Topology interface {
	AvailableConnectors() []string
	MonitorForConnector(connector string) (index int, ok bool)
	MonitorGeometry(index int) (state.Rect, bool)
	ConnectorForMonitor(index int) (connector string, ok bool)
}

// Resolved is the outcome of resolving a slot's configs against the
// current topology: an absolute, ready-to-reconcile state.Target. Shared
// with internal/planner and internal/statemachine so the same resolved
// placement flows through planning and drift-checking unchanged.
type Resolved = state.Target

// Resolve implements §4.3 exactly:
//  1. Walk connector_preference in order; take the first connector that is
//     both currently available and has a config.
//  2. Fallback to the first config whose connector is currently available.
//  3. Convert relative_rect to an absolute frame_rect by adding the
//     monitor's origin; attach the current monitor index.
//
// Returns ok=false if no config is applicable (e.g. every referenced
// connector is disconnected and no fallback exists, §7).
func Resolve(slot *state.Slot, topo Topology) (Resolved, bool) {
	available := make(map[string]bool, len(topo.AvailableConnectors()))
	for _, c := range topo.AvailableConnectors() {
		available[c] = true
	}

	for _, connector := range slot.ConnectorPreference {
		if !available[connector] {
			continue
		}
		if cfg, ok := slot.ConfigForConnector(connector); ok {
			return resolveAbsolute(cfg, topo)
		}
	}

	for _, cfg := range slot.Configs {
		if available[cfg.Connector] {
			return resolveAbsolute(cfg, topo)
		}
	}

	return Resolved{}, false
}

// ResolveConfig converts a single known config to an absolute Target
// against the current topology, bypassing the connector_preference walk.
// Used when the caller already knows exactly which config applies (a
// user-initiated monitor change restoring that connector's stored config,
// §4.6 step 6).
func ResolveConfig(cfg state.Config, topo Topology) (Resolved, bool) {
	return resolveAbsolute(cfg, topo)
}

func resolveAbsolute(cfg state.Config, topo Topology) (Resolved, bool) {
	monitorIndex, ok := topo.MonitorForConnector(cfg.Connector)
	if !ok {
		return Resolved{}, false
	}
	geom, ok := topo.MonitorGeometry(monitorIndex)
	if !ok {
		return Resolved{}, false
	}

	frame := state.Rect{
		X:      geom.X + cfg.RelativeRect.X,
		Y:      geom.Y + cfg.RelativeRect.Y,
		Width:  cfg.RelativeRect.Width,
		Height: cfg.RelativeRect.Height,
	}

	return Resolved{
		Connector:       cfg.Connector,
		MonitorIndex:    monitorIndex,
		Workspace:       cfg.Workspace,
		FrameRect:       frame,
		Maximized:       cfg.Maximized,
		Minimized:       cfg.Minimized,
		Fullscreen:      cfg.Fullscreen,
		OnAllWorkspaces: cfg.OnAllWorkspaces,
		Above:           cfg.Above,
	}, true
}
