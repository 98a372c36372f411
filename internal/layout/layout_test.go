package layout

import (
	"testing"

	"github.com/windlayer/matcher/internal/state"
)

type stubTopology struct {
	connectors map[string]int // connector -> monitor index
	geoms      map[int]state.Rect
}

func (s stubTopology) AvailableConnectors() []string {
	out := make([]string, 0, len(s.connectors))
	for c := range s.connectors {
		out = append(out, c)
	}
	return out
}

func (s stubTopology) MonitorForConnector(connector string) (int, bool) {
	idx, ok := s.connectors[connector]
	return idx, ok
}

func (s stubTopology) MonitorGeometry(index int) (state.Rect, bool) {
	g, ok := s.geoms[index]
	return g, ok
}

func (s stubTopology) ConnectorForMonitor(index int) (string, bool) {
	for c, i := range s.connectors {
		if i == index {
			return c, true
		}
	}
	return "", false
}

func TestResolve_PrefersConnectorPreferenceOrder(t *testing.T) {
	slot := &state.Slot{
		Configs: []state.Config{
			{Connector: "HDMI-1", RelativeRect: state.Rect{X: 0, Y: 0, Width: 400, Height: 300}},
			{Connector: "eDP-1", RelativeRect: state.Rect{X: 10, Y: 10, Width: 200, Height: 200}},
		},
		ConnectorPreference: []string{"HDMI-1", "eDP-1"},
	}
	topo := stubTopology{
		connectors: map[string]int{"HDMI-1": 0, "eDP-1": 1},
		geoms: map[int]state.Rect{
			0: {X: 1920, Y: 0, Width: 1920, Height: 1080},
			1: {X: 0, Y: 0, Width: 1920, Height: 1080},
		},
	}

	got, ok := Resolve(slot, topo)
	if !ok {
		t.Fatalf("expected resolution to succeed")
	}
	if got.Connector != "HDMI-1" {
		t.Fatalf("expected HDMI-1 config chosen, got %s", got.Connector)
	}
	if got.FrameRect != (state.Rect{X: 1920, Y: 0, Width: 400, Height: 300}) {
		t.Fatalf("unexpected absolute frame: %+v", got.FrameRect)
	}
	if got.MonitorIndex != 0 {
		t.Fatalf("expected monitor 0, got %d", got.MonitorIndex)
	}
}

func TestResolve_FallsBackWhenPreferredConnectorMissing(t *testing.T) {
	slot := &state.Slot{
		Configs: []state.Config{
			{Connector: "HDMI-1", RelativeRect: state.Rect{X: 0, Y: 0, Width: 400, Height: 300}},
			{Connector: "eDP-1", RelativeRect: state.Rect{X: 10, Y: 10, Width: 200, Height: 200}},
		},
		ConnectorPreference: []string{"HDMI-1", "eDP-1"},
	}
	topo := stubTopology{
		connectors: map[string]int{"eDP-1": 0},
		geoms: map[int]state.Rect{
			0: {X: 0, Y: 0, Width: 1280, Height: 800},
		},
	}

	got, ok := Resolve(slot, topo)
	if !ok {
		t.Fatalf("expected fallback resolution to succeed")
	}
	if got.Connector != "eDP-1" {
		t.Fatalf("expected eDP-1 fallback, got %s", got.Connector)
	}
}

func TestResolve_NoneWhenNoConfigApplicable(t *testing.T) {
	slot := &state.Slot{
		Configs: []state.Config{{Connector: "DP-1"}},
	}
	topo := stubTopology{connectors: map[string]int{}}

	_, ok := Resolve(slot, topo)
	if ok {
		t.Fatalf("expected resolution to fail when connector unavailable")
	}
}
