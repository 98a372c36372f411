package matcher

import (
	"github.com/windlayer/matcher/internal/planner"
	"github.com/windlayer/matcher/internal/state"
)

// EventName enumerates the compositor event source's event_name values
// (§6). The dispatcher treats every name other than "destroy" and
// "monitors-changed" identically: a generic "this window's observed state
// changed" signal.
type EventName string

const (
	EventWindowCreated        EventName = "window-created"
	EventInitialQuery          EventName = "initial-query"
	EventNotifyTitle            EventName = "notify::title"
	EventNotifyWMClass          EventName = "notify::wm-class"
	EventNotifyMinimized         EventName = "notify::minimized"
	EventNotifyAbove              EventName = "notify::above"
	EventNotifyFullscreen          EventName = "notify::fullscreen"
	EventNotifyMaximizedHorizontal  EventName = "notify::maximized-horizontally"
	EventNotifyMaximizedVertical     EventName = "notify::maximized-vertically"
	EventSizeChanged                  EventName = "size-changed"
	EventPositionChanged                EventName = "position-changed"
	EventWorkspaceChanged                 EventName = "workspace-changed"
	EventMonitorsChanged                   EventName = "monitors-changed"
	EventDestroy                             EventName = "destroy"
)

// RawEvent is a single inbound compositor event (§6's on_event callback),
// already parsed into the core's data model by the host's event source
// adapter. WindowType/CanMove/CanResize feed the trackability check
// (§4.6 step 5) and are not part of the persisted Details.
type RawEvent struct {
	WinID      state.WindowID
	Name       EventName
	Details    state.Details
	WindowType string // "" or "normal" both count as trackable
	CanMove    bool
	CanResize  bool
}

// Kind names an observable dispatcher event, for tests and diagnostics
// (§4.6's event-kind enumeration).
type Kind string

const (
	KindDestroyed            Kind = "window.destroyed"
	KindModified              Kind = "window.modified"
	KindTitleBecameSpecific    Kind = "window.title_became_specific"
	KindPendingDecision         Kind = "window.pending_decision"
	KindKnownMatch               Kind = "known.match"
	KindKnownNew                  Kind = "known.new"
	KindMonitorRelocated            Kind = "window.monitor_relocated"
	KindUserMonitorChange             Kind = "window.user_monitor_change"
	KindDriftCorrected                 Kind = "window.drift_corrected"
)

// Event is one observable occurrence emitted alongside a Result.
type Event struct {
	Kind  Kind
	WinID state.WindowID
}

// Result is what Dispatch (or Tick) returns: the operations already
// handed to the Executor, in order, plus the events that occurred while
// producing them.
type Result struct {
	Operations []planner.Operation
	Events     []Event
}

func (r *Result) emit(kind Kind, winID state.WindowID) {
	r.Events = append(r.Events, Event{Kind: kind, WinID: winID})
}
