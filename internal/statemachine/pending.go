package statemachine

import (
	"sort"
	"time"

	"github.com/windlayer/matcher/internal/policyconfig"
	"github.com/windlayer/matcher/internal/similarity"
	"github.com/windlayer/matcher/internal/state"
)

// TimedOut reports §4.5's timed_out predicate: a PENDING window has lived
// past SETTLE_MAX_WAIT, or past the longer GENERIC_TITLE_EXTENDED_WAIT if
// its title is generic.
func TimedOut(now int64, live *state.Live, opts policyconfig.Options) bool {
	elapsed := time.Duration(now-live.TransitionTime) * time.Millisecond
	if similarity.IsGeneric(live.Details.Title) {
		return elapsed > opts.GenericTitleExtendedWait
	}
	return elapsed > opts.SettleMaxWait
}

// HasExactMatch reports whether an unoccupied slot with byte-identical
// wm_class and title exists, the "decide immediately, no wait" fast path.
func HasExactMatch(live state.Identity, candidates []*state.Slot) bool {
	for _, s := range candidates {
		if s.Identity == live {
			return true
		}
	}
	return false
}

// Ambiguous implements the ambiguity gate's pairwise test: two PENDING
// windows are ambiguous if they share a wm_class and are similar above
// AMBIGUOUS_SIMILARITY_THRESHOLD (or its generic-title variant).
func Ambiguous(a, b state.Identity, opts policyconfig.Options) bool {
	if a.WMClass != b.WMClass {
		return false
	}
	threshold := opts.AmbiguousSimilarityThreshold
	if similarity.IsGeneric(a.Title) || similarity.IsGeneric(b.Title) {
		threshold = opts.AmbiguousSimilarityThresholdGeneric
	}
	return similarity.Score(a, b) >= threshold
}

// GeometryGate reports §4.5's geometry gate: true (defer) when a frame
// rect has been observed but is not a valid positive-area rectangle. A
// never-yet-observed (zero-value) rect does not gate, since no geometry
// event has arrived to judge.
func GeometryGate(d state.Details) bool {
	if d.FrameRect == (state.Rect{}) {
		return false
	}
	return !d.FrameRect.Valid()
}

// ShouldDecide implements the PENDING decision policy of §4.5 in full:
// geometry gate, exact-match fast path, ambiguity gate, then the
// idle/timeout test split by specific vs. generic title.
func ShouldDecide(now int64, live *state.Live, opts policyconfig.Options, exactMatchAvailable, ambiguous bool) bool {
	if GeometryGate(live.Details) {
		return false
	}

	timedOut := TimedOut(now, live, opts)

	if exactMatchAvailable {
		return true
	}
	if ambiguous && !timedOut {
		return false
	}

	timeIdle := time.Duration(now-live.LastEventTime) * time.Millisecond
	if similarity.IsGeneric(live.Details.Title) {
		return timedOut || timeIdle > opts.SettleIdleTimeout
	}
	return timeIdle > opts.SettleIdleTimeout || (timedOut && timeIdle > opts.MinIdleTimeBeforeMatch)
}

// ScoredSlot pairs an unoccupied slot with its score against the deciding
// window, used as the ranking input to Decide.
type ScoredSlot struct {
	Slot       *state.Slot
	Score      float64
	ExactTitle bool
}

// ScoreSlots scores live against every candidate and sorts by (exact-title
// desc, score desc), exactly the order §4.5's "On decision" step requires.
func ScoreSlots(live state.Identity, candidates []*state.Slot) []ScoredSlot {
	out := make([]ScoredSlot, 0, len(candidates))
	for _, s := range candidates {
		out = append(out, ScoredSlot{
			Slot:       s,
			Score:      similarity.Score(s.Identity, live),
			ExactTitle: s.Identity == live,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ExactTitle != out[j].ExactTitle {
			return out[i].ExactTitle
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Decision is the outcome of a PENDING decision: bind an existing slot, or
// add the window as a new one.
type Decision int

const (
	DecisionAddNew Decision = iota
	DecisionMatch
)

// MatchOutcome is the result of Decide.
type MatchOutcome struct {
	Decision Decision
	Slot     *state.Slot
	Score    float64
}

// Decide implements §4.5's "On decision" step: compute confidence from the
// best-minus-second-best spread (or an exact title, or a timed-out
// window), then match iff the best score clears policy.threshold.
func Decide(scored []ScoredSlot, threshold float64, opts policyconfig.Options, timedOut bool) MatchOutcome {
	if len(scored) == 0 {
		return MatchOutcome{Decision: DecisionAddNew}
	}
	best := scored[0]
	second := 0.0
	if len(scored) > 1 {
		second = scored[1].Score
	}
	confident := best.ExactTitle || timedOut || (best.Score-second) >= opts.MinScoreSpread
	if confident && best.Score >= threshold {
		return MatchOutcome{Decision: DecisionMatch, Slot: best.Slot, Score: best.Score}
	}
	return MatchOutcome{Decision: DecisionAddNew}
}
