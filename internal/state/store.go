package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Record is the serializable form of a Slot (§4.7). Occupied is never
// persisted as bound: on load every slot comes back unoccupied
// (invariant 3, §3).
type Record struct {
	WMClass             string   `json:"wm_class"`
	Title               string   `json:"title"`
	Configs             []Config `json:"configs"`
	ConnectorPreference []string `json:"connector_preference,omitempty"`
	Seen                int64    `json:"seen,omitempty"`
}

type rectJSON struct {
	X, Y, Width, Height int
}

// MarshalJSON / UnmarshalJSON for Config go through jsonConfig so the
// persisted field names match §3/§6 (connector, relative_rect, ...). Rect
// has no custom encoding: its fields are written under their Go names
// (X, Y, Width, Height).
type jsonConfig struct {
	Connector       string `json:"connector"`
	Workspace       int    `json:"workspace"`
	RelativeRect    Rect   `json:"relative_rect"`
	Maximized       uint8  `json:"maximized"`
	Minimized       bool   `json:"minimized,omitempty"`
	Fullscreen      bool   `json:"fullscreen,omitempty"`
	OnAllWorkspaces bool   `json:"on_all_workspaces,omitempty"`
	Above           bool   `json:"above,omitempty"`
}

func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonConfig{
		Connector:       c.Connector,
		Workspace:       c.Workspace,
		RelativeRect:    c.RelativeRect,
		Maximized:       uint8(c.Maximized),
		Minimized:       c.Minimized,
		Fullscreen:      c.Fullscreen,
		OnAllWorkspaces: c.OnAllWorkspaces,
		Above:           c.Above,
	})
}

func (c *Config) UnmarshalJSON(data []byte) error {
	var j jsonConfig
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*c = Config{
		Connector:       j.Connector,
		Workspace:       j.Workspace,
		RelativeRect:    j.RelativeRect,
		Maximized:       Maximize(j.Maximized),
		Minimized:       j.Minimized,
		Fullscreen:      j.Fullscreen,
		OnAllWorkspaces: j.OnAllWorkspaces,
		Above:           j.Above,
	}
	return nil
}

// ChangeCallback is invoked synchronously whenever the slot list changes,
// unless change notification is currently suppressed (bulk refresh / initial
// restore, §4.7).
type ChangeCallback func(slots []*Slot)

// Store is the persistence model: an ordered, flat list of slots. It is
// mutated only by its own methods so that invariants 1-2 and 6 (§3) hold.
//
// Store is shared across goroutines: the matcher.Dispatcher (X11 event
// loop, settle timers, the PENDING ticker, OperationsComplete callbacks)
// and ipc.Server's per-connection handlers all reach the same *Store
// instance. mu is the single lock that serializes them, grounded on the
// teacher's internal/tiling.Tiler (mu sync.RWMutex guarding shared
// tile state, RLock for read-only accessors) and internal/ipc.Server's
// own cfgMu. Every exported method below except Lock/Unlock/RLock/RUnlock,
// Load, and Save assumes the caller already holds mu; Load and Save take
// the lock themselves since they are always called as top-level entry
// points, never nested inside another Store critical section.
type Store struct {
	mu       sync.RWMutex
	slots    []*Slot
	onChange ChangeCallback
	suppress bool
	path     string
}

// Lock acquires the store's write lock. Callers that mutate slots through
// Slots()-returned pointers, or call Bind/Unbind/Append/Remove/Touch/etc.,
// must hold this for the duration of the operation.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the write lock acquired by Lock.
func (s *Store) Unlock() { s.mu.Unlock() }

// RLock acquires the store's read lock, for callers that only read slot
// state (Snapshot, Slots, FindByOccupant, Unoccupied) without mutating it.
func (s *Store) RLock() { s.mu.RLock() }

// RUnlock releases the read lock acquired by RLock.
func (s *Store) RUnlock() { s.mu.RUnlock() }

// NewStore creates an empty, in-memory store. Use Load to populate it from
// disk, or Restore to populate it from an already-parsed record set (e.g.
// supplied by an external settings layer).
func NewStore(path string) *Store {
	return &Store{path: path}
}

// SetChangeCallback installs the notification callback. Pass nil to disable
// notifications.
func (s *Store) SetChangeCallback(cb ChangeCallback) {
	s.onChange = cb
}

func (s *Store) notify() {
	if s.onChange == nil || s.suppress {
		return
	}
	s.onChange(s.Snapshot())
}

// Snapshot returns a deep copy of every slot, safe for the caller to read
// or mutate without affecting the store. Assumes the caller holds at
// least RLock.
func (s *Store) Snapshot() []*Slot {
	out := make([]*Slot, len(s.slots))
	for i, slot := range s.slots {
		out[i] = slot.Clone()
	}
	return out
}

// Slots returns the live (non-cloned) slot list for internal callers that
// need to mutate entries in place (the matcher/dispatcher). External
// callers should use Snapshot. Callers that mutate entries through the
// returned pointers hold Lock; read-only callers hold at least RLock.
func (s *Store) Slots() []*Slot {
	return s.slots
}

// Append adds a newly-created slot to the end of the list and notifies.
// Assumes the caller holds Lock.
func (s *Store) Append(slot *Slot) {
	s.slots = append(s.slots, slot)
	s.notify()
}

// Remove deletes a slot by identity pointer (not by value: callers hold the
// exact *Slot returned from Slots()/lookup helpers). Assumes the caller
// holds Lock.
func (s *Store) Remove(target *Slot) {
	for i, slot := range s.slots {
		if slot == target {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			s.notify()
			return
		}
	}
}

// FindByOccupant returns the slot bound to id, if any (invariant 1: at most
// one such slot exists). Assumes the caller holds at least RLock.
func (s *Store) FindByOccupant(id WindowID) (*Slot, bool) {
	for _, slot := range s.slots {
		if slot.Occupied.Bound && slot.Occupied.ID == id {
			return slot, true
		}
	}
	return nil, false
}

// Unoccupied returns every slot currently not bound to a live window.
// Assumes the caller holds at least RLock.
func (s *Store) Unoccupied() []*Slot {
	var out []*Slot
	for _, slot := range s.slots {
		if !slot.Occupied.Bound {
			out = append(out, slot)
		}
	}
	return out
}

// Bind marks slot as occupied by id and notifies. It does not check for
// double-binding; callers (the dispatcher) are responsible for unbinding
// any prior occupant of id first. Assumes the caller holds Lock.
func (s *Store) Bind(slot *Slot, id WindowID, seenMs int64) {
	slot.Occupied = Occupant{Bound: true, ID: id}
	slot.Seen = seenMs
	s.notify()
}

// Unbind clears occupancy on any slot bound to id (invariant 2: the slot is
// not deleted). Returns the slot that was unbound, if any. Assumes the
// caller holds Lock.
func (s *Store) Unbind(id WindowID) *Slot {
	slot, ok := s.FindByOccupant(id)
	if !ok {
		return nil
	}
	slot.Occupied = Unoccupied
	s.notify()
	return slot
}

// Touch fires a change notification for mutations made directly through
// Slots() (connector preference promotion, in-place config/identity
// updates during TRACKING) that bypass Bind/Unbind/Append/Remove. Assumes
// the caller holds Lock.
func (s *Store) Touch() {
	s.notify()
}

// WithSuppressedNotify runs fn with change notifications suppressed, then
// fires exactly one notification afterward, whether or not fn changed
// anything (none when an enclosing call is still suppressing).
// Used for bulk refresh and initial restore (§4.7). Assumes the caller
// holds Lock.
func (s *Store) WithSuppressedNotify(fn func()) {
	prev := s.suppress
	s.suppress = true
	fn()
	s.suppress = prev
	s.notify()
}

// ToRecords converts the current slot list to its serializable form.
// Assumes the caller holds at least RLock.
func (s *Store) ToRecords() []Record {
	out := make([]Record, len(s.slots))
	for i, slot := range s.slots {
		out[i] = Record{
			WMClass:             slot.Identity.WMClass,
			Title:               slot.Identity.Title,
			Configs:             append([]Config(nil), slot.Configs...),
			ConnectorPreference: append([]string(nil), slot.ConnectorPreference...),
			Seen:                slot.Seen,
		}
	}
	return out
}

// Restore replaces the store's slot list from records. Every slot comes
// back unoccupied; Seen defaults to 0 if absent (invariant 3, §3). A
// state-load failure from the caller should be treated as an empty record
// set (§7), which Restore handles naturally (nil/empty records -> no
// slots). Assumes the caller holds Lock.
func (s *Store) Restore(records []Record) {
	s.WithSuppressedNotify(func() {
		slots := make([]*Slot, len(records))
		for i, rec := range records {
			slots[i] = &Slot{
				Occupied:            Unoccupied,
				Identity:            Identity{WMClass: rec.WMClass, Title: rec.Title},
				Configs:             append([]Config(nil), rec.Configs...),
				ConnectorPreference: append([]string(nil), rec.ConnectorPreference...),
				Seen:                rec.Seen,
			}
		}
		s.slots = slots
	})
}

// Load reads the persistence file from disk and restores the store from
// it. A missing file is treated as empty state, not an error (§7). Load
// takes Lock itself; callers must not already hold it.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return fmt.Errorf("state: no persistence path configured")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.Restore(nil)
			return nil
		}
		// State-load failure: treat as empty state (§7), but report the
		// error so the caller can log it.
		s.Restore(nil)
		return fmt.Errorf("state: read %s: %w", s.path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.Restore(nil)
		return fmt.Errorf("state: parse %s: %w", s.path, err)
	}
	s.Restore(records)
	return nil
}

// Save writes the current slot list to disk atomically (write to a temp
// file in the same directory, then rename). The teacher's own workspace
// store just calls os.WriteFile directly; this technique is instead
// grounded on the cortile reference client's cache writer, which does the
// create-temp-then-rename dance for the same reason (avoid truncating the
// file in place if the process dies mid-write). Save takes Lock itself;
// callers must not already hold it.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return fmt.Errorf("state: no persistence path configured")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("state: create dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(s.ToRecords(), "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("state: rename into place: %w", err)
	}
	return nil
}
