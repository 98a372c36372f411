package state

import (
	"path/filepath"
	"testing"
)

func TestStore_BindUnbindInvariants(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))
	slot := &Slot{Identity: Identity{WMClass: "Term", Title: "a"}}
	s.Append(slot)

	s.Bind(slot, WindowID(7), 1000)
	if _, ok := s.FindByOccupant(WindowID(7)); !ok {
		t.Fatalf("expected slot bound to 7")
	}
	if len(s.Unoccupied()) != 0 {
		t.Fatalf("expected no unoccupied slots")
	}

	unbound := s.Unbind(WindowID(7))
	if unbound != slot {
		t.Fatalf("expected unbind to return the same slot")
	}
	if _, ok := s.FindByOccupant(WindowID(7)); ok {
		t.Fatalf("expected slot to be unbound")
	}
	if len(s.Unoccupied()) != 1 {
		t.Fatalf("expected slot to remain in the list, unoccupied")
	}
}

func TestStore_PromoteConnectorLIFONoDuplicates(t *testing.T) {
	slot := &Slot{ConnectorPreference: []string{"HDMI-1", "DP-1"}}
	slot.PromoteConnector("DP-1")
	if got := slot.ConnectorPreference; len(got) != 2 || got[0] != "DP-1" || got[1] != "HDMI-1" {
		t.Fatalf("expected [DP-1 HDMI-1], got %v", got)
	}
	// Promoting the already-front connector is a no-op.
	slot.PromoteConnector("DP-1")
	if got := slot.ConnectorPreference; len(got) != 2 || got[0] != "DP-1" {
		t.Fatalf("expected promotion of front connector to be a no-op, got %v", got)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path)
	slot := &Slot{
		Identity: Identity{WMClass: "Editor", Title: "README.md — Editor"},
		Configs: []Config{{
			Connector:    "DP-1",
			Workspace:    2,
			RelativeRect: Rect{X: 100, Y: 50, Width: 800, Height: 600},
			Maximized:    MaximizeBoth,
		}},
		ConnectorPreference: []string{"DP-1", "HDMI-1"},
		Seen:                1234,
	}
	s.Append(slot)
	s.Bind(slot, WindowID(42), 999)

	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	slots := reloaded.Slots()
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	got := slots[0]
	if got.Occupied.Bound {
		t.Fatalf("expected occupied to be cleared on restore")
	}
	if got.Identity != slot.Identity {
		t.Fatalf("identity mismatch: %+v vs %+v", got.Identity, slot.Identity)
	}
	if len(got.Configs) != 1 || got.Configs[0] != slot.Configs[0] {
		t.Fatalf("config mismatch: %+v", got.Configs)
	}
	if len(got.ConnectorPreference) != 2 || got.ConnectorPreference[0] != "DP-1" {
		t.Fatalf("connector preference mismatch: %v", got.ConnectorPreference)
	}
	if got.Seen != slot.Seen {
		t.Fatalf("seen mismatch: %d vs %d", got.Seen, slot.Seen)
	}
}

func TestStore_LoadMissingFileIsEmptyState(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("expected missing file to load as empty state, got %v", err)
	}
	if len(s.Slots()) != 0 {
		t.Fatalf("expected no slots")
	}
}

func TestStore_ChangeCallbackSuppressedDuringBulk(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))
	calls := 0
	s.SetChangeCallback(func(_ []*Slot) { calls++ })

	s.WithSuppressedNotify(func() {
		s.slots = append(s.slots, &Slot{Identity: Identity{WMClass: "A"}})
		s.slots = append(s.slots, &Slot{Identity: Identity{WMClass: "B"}})
	})

	if calls != 1 {
		t.Fatalf("expected exactly one notification after bulk update, got %d", calls)
	}
}
