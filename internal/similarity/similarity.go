// Package similarity scores how close a live window's identity is to a
// remembered slot's identity (§4.1).
package similarity

import "github.com/windlayer/matcher/internal/state"

const (
	// MinSpecificTitleLength is the length below which a title is generic.
	MinSpecificTitleLength = 15

	minTitleLenForPenalty = 8
	titleLenPenaltyRatio  = 0.5
	titleLenPenaltyFactor = 0.5
	specificMatchBoost    = 1.1

	histogramBins = 96
	firstPrintable = 0x20 // space
)

// IsGeneric reports whether a title is too short to be distinctive
// (GLOSSARY: "Generic title").
func IsGeneric(title string) bool {
	return len(title) < MinSpecificTitleLength
}

// Score computes score(a, b) per §4.1: a wm_class equality gate, a
// byte-equal short-circuit, a 96-bin printable-ASCII character histogram
// distance, and post-score length-penalty / specificity-boost adjustments.
// The result is in [0, specificMatchBoost].
func Score(a, b state.Identity) float64 {
	if a.WMClass != b.WMClass {
		return 0
	}
	if a.Title == b.Title {
		return 1.0
	}

	ha := histogram(a.Title)
	hb := histogram(b.Title)
	dist := l1Distance(ha, hb)
	score := 1.0 - dist/2.0
	if score < 0 {
		score = 0
	}

	// known = a, live = b, by convention: callers pass the remembered
	// slot's title as a and the live window's title as b.
	known, live := a.Title, b.Title
	if len(known) > minTitleLenForPenalty && float64(len(live)) < titleLenPenaltyRatio*float64(len(known)) {
		score *= titleLenPenaltyFactor
	}
	if len(known) >= MinSpecificTitleLength && len(live) >= MinSpecificTitleLength {
		score *= specificMatchBoost
	}

	return score
}

// histogram builds a normalized 96-bin character histogram over the fixed
// printable ASCII set (0x20 space through 0x7E '~'). Characters outside
// the set are ignored, as are titles of length 0 (an all-zero histogram).
func histogram(title string) [histogramBins]float64 {
	var h [histogramBins]float64
	counted := 0
	for i := 0; i < len(title); i++ {
		c := title[i]
		if c < firstPrintable || c > '~' {
			continue
		}
		h[c-firstPrintable]++
		counted++
	}
	if counted == 0 {
		return h
	}
	for i := range h {
		h[i] /= float64(counted)
	}
	return h
}

func l1Distance(a, b [histogramBins]float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		d += diff
	}
	return d
}
