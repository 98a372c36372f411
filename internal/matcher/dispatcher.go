// Package matcher implements the Matcher Dispatcher (§4.6): the event
// router that ties together similarity scoring, policy resolution, layout
// resolution, operation planning, and the per-window phase machine into a
// single `(winid, event) -> {operations, events}` entry point.
package matcher

import (
	"log/slog"
	"time"

	"github.com/windlayer/matcher/internal/layout"
	"github.com/windlayer/matcher/internal/planner"
	"github.com/windlayer/matcher/internal/policy"
	"github.com/windlayer/matcher/internal/policyconfig"
	"github.com/windlayer/matcher/internal/similarity"
	"github.com/windlayer/matcher/internal/state"
	"github.com/windlayer/matcher/internal/statemachine"
	"github.com/windlayer/matcher/internal/timer"
)

// Config wires the dispatcher's dependencies (§9's "capability trait":
// Topology + Persistence + Policy collapsed into one constructor struct
// rather than a dictionary of optional callbacks).
type Config struct {
	Store    *state.Store
	Resolver *policy.Resolver
	Topology layout.Topology
	Options  policyconfig.Options
	Timers   *timer.Harness
	Executor Executor
	Filter   PolicyFilter // nil: track everything
	Clock    func() int64 // nil: real wall-clock milliseconds
	// OnResult delivers Results produced off the synchronous Dispatch/Tick
	// call path — settle-timer expiry and its drift-retry or give-up
	// outcome. Any operations in them have already been handed to the
	// Executor; the host only reports them. OnResult is called on the
	// settle timer's goroutine, with the store lock held.
	OnResult func(Result)
	Log      *slog.Logger
}

// Dispatcher is the single owning value for one engine instance (§9:
// "global state -> component instance"). It holds no process-global
// state; multiple Dispatchers may coexist.
type Dispatcher struct {
	store    *state.Store
	resolver *policy.Resolver
	topo     layout.Topology
	opts     policyconfig.Options
	timers   *timer.Harness
	exec     Executor
	filter   PolicyFilter
	clock    func() int64
	onResult func(Result)
	log      *slog.Logger

	live map[state.WindowID]*state.Live
}

// New builds a Dispatcher. Zero-value Config.Clock/Log/OnResult are
// replaced by a real clock, slog.Default(), and a no-op sink.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		store:    cfg.Store,
		resolver: cfg.Resolver,
		topo:     cfg.Topology,
		opts:     cfg.Options,
		timers:   cfg.Timers,
		exec:     cfg.Executor,
		filter:   cfg.Filter,
		clock:    cfg.Clock,
		onResult: cfg.OnResult,
		log:      cfg.Log,
		live:     make(map[state.WindowID]*state.Live),
	}
	if d.clock == nil {
		d.clock = func() int64 { return time.Now().UnixMilli() }
	}
	if d.onResult == nil {
		d.onResult = func(Result) {}
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	return d
}

func (d *Dispatcher) now() int64 { return d.clock() }

// Dispatch implements §4.6 steps 1-7 for one inbound event. Dispatch,
// Tick, OperationsComplete, and settleExpired are the only entry points
// into a Dispatcher; each arrives on a different goroutine (the X11 event
// loop, the PENDING ticker, the executor's completion timer, and the
// settle-drift timer, respectively) and each locks the shared store for
// its whole body so the single-threaded run-to-completion model §5
// assumes actually holds despite that (live is Dispatcher-private but
// mutated from all four, so it rides along under the same lock).
func (d *Dispatcher) Dispatch(ev RawEvent) Result {
	d.store.Lock()
	defer d.store.Unlock()

	var res Result
	now := d.now()

	if d.filter != nil && !d.filter(ev.Details) {
		return res
	}

	if ev.Name == EventDestroy {
		d.store.Unbind(ev.WinID)
		if live, ok := d.live[ev.WinID]; ok {
			d.cancelSettle(live)
			delete(d.live, ev.WinID)
		}
		res.emit(KindDestroyed, ev.WinID)
		return res
	}

	if ev.Name == EventMonitorsChanged {
		if slot, ok := d.store.FindByOccupant(ev.WinID); ok {
			return d.handleMonitorsChanged(now, ev, slot)
		}
	}

	if !trackable(ev) {
		return res
	}

	if slot, bound := d.store.FindByOccupant(ev.WinID); bound {
		live := d.live[ev.WinID]
		if live == nil {
			live = statemachine.EnterPending(now, ev.Details)
			d.live[ev.WinID] = live
		}
		return d.handleBound(now, ev, live, slot)
	}

	live, hasLive := d.live[ev.WinID]
	return d.handlePendingUpdate(now, ev, live, hasLive)
}

// OperationsComplete is the host's callback for §6's on_operations_complete:
// the executor finished (or gave up on) the batch emitted for winID. A
// RESTORING window moves to SETTLING and its drift timer starts; any other
// phase means the completion arrived for a batch the core no longer cares
// about (tear-down, or a newer batch already superseded it) and is ignored.
func (d *Dispatcher) OperationsComplete(winID state.WindowID) {
	d.store.Lock()
	defer d.store.Unlock()

	live, ok := d.live[winID]
	if !ok || live.Phase != state.PhaseRestoring {
		return
	}
	statemachine.EnterSettling(live, d.now())
	d.rescheduleSettleTimer(live, winID)
}

// Tick runs the PENDING decision pass for every window currently waiting,
// driven by the host's 200ms self-rearming ticker (§4.5, §5).
func (d *Dispatcher) Tick() Result {
	d.store.Lock()
	defer d.store.Unlock()

	var res Result
	now := d.now()
	for winID, live := range d.live {
		if live.Phase != state.PhasePending {
			continue
		}
		ops, events := d.decidePending(now, winID, live)
		res.Operations = append(res.Operations, ops...)
		res.Events = append(res.Events, events...)
	}
	return res
}

func (d *Dispatcher) handlePendingUpdate(now int64, ev RawEvent, live *state.Live, hasLive bool) Result {
	var res Result
	if !hasLive {
		live = statemachine.EnterPending(now, ev.Details)
		d.live[ev.WinID] = live
	} else {
		if titleBecameSpecific(live.Details.Title, ev.Details.Title, d.opts) {
			live.TransitionTime = now
		}
		live.Details = ev.Details
		live.LastEventTime = now
	}

	res.emit(KindPendingDecision, ev.WinID)
	ops, events := d.decidePending(now, ev.WinID, live)
	res.Operations = append(res.Operations, ops...)
	res.Events = append(res.Events, events...)
	return res
}

func (d *Dispatcher) handleBound(now int64, ev RawEvent, live *state.Live, slot *state.Slot) Result {
	var res Result
	oldIdentity := slot.Identity
	newIdentity := ev.Details.Identity()

	if titleBecameSpecific(oldIdentity.Title, newIdentity.Title, d.opts) {
		candidates := d.store.Unoccupied()
		scored := statemachine.ScoreSlots(newIdentity, candidates)
		if len(scored) > 0 && scored[0].Score >= d.opts.TitleMigrationThreshold {
			better := scored[0].Slot
			d.store.Unbind(ev.WinID)
			if similarity.IsGeneric(oldIdentity.Title) {
				d.store.Remove(slot)
			}
			d.store.Bind(better, ev.WinID, now)
			better.Identity = newIdentity
			live.Details = ev.Details
			live.LastEventTime = now
			res.emit(KindTitleBecameSpecific, ev.WinID)
			res.emit(KindKnownMatch, ev.WinID)
			return res
		}
	}

	prevMonitor := live.Details.Monitor
	if live.Phase == state.PhaseTracking && ev.Details.Monitor != prevMonitor {
		if _, prevStillExists := d.topo.ConnectorForMonitor(prevMonitor); prevStillExists {
			if newConnector, ok := d.topo.ConnectorForMonitor(ev.Details.Monitor); ok {
				slot.PromoteConnector(newConnector)
				res.emit(KindUserMonitorChange, ev.WinID)
				if cfg, ok := slot.ConfigForConnector(newConnector); ok {
					if target, ok := layout.ResolveConfig(cfg, d.topo); ok {
						pol := d.resolver.Resolve(newIdentity.WMClass, newIdentity.Title)
						ops := planner.Plan(ev.Details, target, pol, false, nil)
						if len(ops) > 0 {
							statemachine.EnterRestoring(live, now, target)
							d.exec.Execute(ev.WinID, ops)
							res.Operations = ops
						}
					}
				}
			}
		}
		// else: the previous monitor no longer exists — a shell fallback,
		// not a user action — so connector_preference is left untouched.
	}

	live.Details = ev.Details
	live.LastEventTime = now

	switch live.Phase {
	case state.PhaseTracking:
		if connector, ok := d.topo.ConnectorForMonitor(ev.Details.Monitor); ok {
			if geom, ok := d.topo.MonitorGeometry(ev.Details.Monitor); ok {
				slot.SetConfigForConnector(state.Config{
					Connector:       connector,
					Workspace:       ev.Details.Workspace,
					RelativeRect:    relativeRect(ev.Details.FrameRect, geom),
					Maximized:       ev.Details.Maximized,
					Minimized:       ev.Details.Minimized,
					Fullscreen:      ev.Details.Fullscreen,
					OnAllWorkspaces: ev.Details.OnAllWorkspaces,
					Above:           ev.Details.Above,
				})
				if len(slot.ConnectorPreference) == 0 {
					slot.PromoteConnector(connector)
				}
			}
		}
		slot.Identity = newIdentity
	case state.PhaseSettling:
		statemachine.EnterSettling(live, now)
		d.rescheduleSettleTimer(live, ev.WinID)
	}

	slot.Seen = now
	d.store.Touch()
	res.emit(KindModified, ev.WinID)
	return res
}

func (d *Dispatcher) handleMonitorsChanged(now int64, ev RawEvent, slot *state.Slot) Result {
	var res Result
	live, ok := d.live[ev.WinID]
	if !ok {
		return res
	}
	target, resolved := layout.Resolve(slot, d.topo)
	if !resolved {
		return res
	}

	currentConnector, _ := d.topo.ConnectorForMonitor(live.Details.Monitor)
	force := currentConnector != target.Connector

	pol := d.resolver.Resolve(slot.Identity.WMClass, slot.Identity.Title)
	ops := planner.Plan(live.Details, target, pol, force, nil)
	if len(ops) > 0 {
		statemachine.EnterRestoring(live, now, target)
		d.exec.Execute(ev.WinID, ops)
		res.Operations = ops
		res.emit(KindMonitorRelocated, ev.WinID)
	}
	return res
}

func (d *Dispatcher) decidePending(now int64, winID state.WindowID, live *state.Live) ([]planner.Operation, []Event) {
	identity := live.Details.Identity()
	unoccupied := d.store.Unoccupied()
	exact := statemachine.HasExactMatch(identity, unoccupied)
	ambiguous := d.anyAmbiguousPeer(winID, identity)

	if !statemachine.ShouldDecide(now, live, d.opts, exact, ambiguous) {
		return nil, nil
	}

	timedOut := statemachine.TimedOut(now, live, d.opts)
	scored := statemachine.ScoreSlots(identity, unoccupied)
	pol := d.resolver.Resolve(identity.WMClass, identity.Title)
	outcome := statemachine.Decide(scored, pol.Threshold, d.opts, timedOut)

	var events []Event
	var slot *state.Slot
	switch outcome.Decision {
	case statemachine.DecisionMatch:
		slot = outcome.Slot
		d.store.Bind(slot, winID, now)
		slot.Identity = identity
		events = append(events, Event{Kind: KindKnownMatch, WinID: winID})
	default:
		slot = &state.Slot{Identity: identity}
		d.store.Append(slot)
		d.store.Bind(slot, winID, now)
		events = append(events, Event{Kind: KindKnownNew, WinID: winID})
	}

	if pol.Action == policy.ActionIgnore {
		statemachine.EnterTracking(live, now)
		return nil, events
	}

	target, ok := layout.Resolve(slot, d.topo)
	if !ok {
		statemachine.EnterTracking(live, now)
		return nil, events
	}
	slot.PromoteConnector(target.Connector)

	ops := planner.Plan(live.Details, target, pol, false, nil)
	if len(ops) == 0 {
		statemachine.EnterTracking(live, now)
		return nil, events
	}

	statemachine.EnterRestoring(live, now, target)
	d.exec.Execute(winID, ops)
	return ops, events
}

func (d *Dispatcher) anyAmbiguousPeer(self state.WindowID, identity state.Identity) bool {
	for id, live := range d.live {
		if id == self || live.Phase != state.PhasePending {
			continue
		}
		if statemachine.Ambiguous(identity, live.Details.Identity(), d.opts) {
			return true
		}
	}
	return false
}

// settleExpired is the settle timer's fired callback (§4.5's "SETTLING
// drift check"). It runs on whatever goroutine the timer harness delivers
// it on; results are handed to Config.OnResult rather than returned,
// since there is no synchronous caller waiting (§5: the host is
// responsible for serializing this onto its single event loop).
func (d *Dispatcher) settleExpired(winID state.WindowID) {
	d.store.Lock()
	defer d.store.Unlock()

	live, ok := d.live[winID]
	if !ok || live.Phase != state.PhaseSettling || live.TargetConfig == nil {
		return
	}
	now := d.now()
	target := *live.TargetConfig
	var res Result

	if !statemachine.DetectDrift(live.Details, target, d.opts) {
		statemachine.EnterTracking(live, now)
		d.onResult(res)
		return
	}

	if !statemachine.RetryRestoring(live, now, d.opts) {
		statemachine.EnterTracking(live, now)
		d.onResult(res)
		return
	}

	pol := d.resolver.Resolve(live.Details.WMClass, live.Details.Title)
	ops := planner.Plan(live.Details, target, pol, true, nil)
	if len(ops) > 0 {
		d.exec.Execute(winID, ops)
	}
	res.Operations = ops
	res.emit(KindDriftCorrected, winID)
	d.onResult(res)
}

func (d *Dispatcher) rescheduleSettleTimer(live *state.Live, winID state.WindowID) {
	handle := d.timers.Reset(handleFromLive(live.SettleTimer), d.opts.DriftDetectionWindow, func() {
		d.settleExpired(winID)
	})
	live.SettleTimer = handle
}

func (d *Dispatcher) cancelSettle(live *state.Live) {
	d.timers.Cancel(handleFromLive(live.SettleTimer))
}

func handleFromLive(v any) timer.Handle {
	h, _ := v.(timer.Handle)
	return h
}

// trackable implements §4.6 step 5: a window with no wm_class, a
// non-normal window type, that cannot be moved/resized, or that reports
// invalid-but-present geometry is never tracked.
func trackable(ev RawEvent) bool {
	if ev.Details.WMClass == "" {
		return false
	}
	if ev.WindowType != "" && ev.WindowType != "normal" {
		return false
	}
	if !ev.CanMove || !ev.CanResize {
		return false
	}
	if ev.Details.FrameRect != (state.Rect{}) && !ev.Details.FrameRect.Valid() {
		return false
	}
	return true
}

// titleBecameSpecific is §4.6 step 6's "new length >= TITLE_CHANGE_SIGNIFICANCE_RATIO x old length".
func titleBecameSpecific(oldTitle, newTitle string, opts policyconfig.Options) bool {
	if len(oldTitle) == 0 {
		return false
	}
	return float64(len(newTitle)) >= opts.TitleChangeSignificanceRatio*float64(len(oldTitle))
}

// relativeRect converts an absolute frame to monitor-relative coordinates
// for storage in a Config (the inverse of layout.resolveAbsolute).
func relativeRect(frame, monitorGeom state.Rect) state.Rect {
	return state.Rect{
		X:      frame.X - monitorGeom.X,
		Y:      frame.Y - monitorGeom.Y,
		Width:  frame.Width,
		Height: frame.Height,
	}
}
