package btune

import "github.com/Blosc/btune-go/btune/params"

// combo is one point in the CODEC_FILTER sweep: a (codec, filter,
// split-mode) tuple.
type combo struct {
	codec  params.Codec
	filter params.Filter
	split  params.SplitMode
}

// buildCombos enumerates codecs x filters x split, where split is the
// two-way {ALWAYS_SPLIT, NEVER_SPLIT} sweep when splitIsAuto, or a single
// fixed value otherwise.
func buildCombos(codecs []params.Codec, filters []params.Filter, fixedSplit params.SplitMode, splitIsAuto bool) []combo {
	splits := []params.SplitMode{fixedSplit}
	if splitIsAuto {
		splits = []params.SplitMode{params.SplitAlways, params.SplitNever}
	}
	combos := make([]combo, 0, len(codecs)*len(filters)*len(splits))
	for _, c := range codecs {
		for _, f := range filters {
			for _, s := range splits {
				combos = append(combos, combo{codec: c, filter: f, split: s})
			}
		}
	}
	if len(combos) == 0 {
		combos = append(combos, combo{codec: params.CodecLZ4, filter: params.FilterNoFilter, split: params.SplitNever})
	}
	return combos
}

// advanceBounded steps current by step (flipped when !increasing) and
// clamps to [min,max], reporting whether the step landed on a boundary
// and the current sweep should move on to the next state.
func advanceBounded(current, step, min, max int, increasing bool) (next int, ended bool) {
	if step <= 0 {
		step = 1
	}
	if !increasing {
		step = -step
	}
	next = current + step
	if next <= min {
		return min, true
	}
	if next >= max {
		return max, true
	}
	return next, false
}

// intLog2 returns floor(log2(n)) for a positive n.
func intLog2(n int) int {
	e := 0
	for n > 1 {
		n >>= 1
		e++
	}
	return e
}

// nearestClevelIndex finds the entry in levels closest to clevel, used
// whenever the admissible clevel ladder is recomputed (e.g. because the
// winning codec changed) and the previous index may no longer line up.
func nearestClevelIndex(levels []int, clevel int) int {
	best := 0
	bestDiff := -1
	for i, l := range levels {
		d := l - clevel
		if d < 0 {
			d = -d
		}
		if bestDiff < 0 || d < bestDiff {
			bestDiff = d
			best = i
		}
	}
	return best
}

func minShuffleExpFor(filter params.Filter) int {
	if filter == params.FilterBitShuffle {
		return intLog2(params.MinBitShuffle)
	}
	return intLog2(params.MinShuffle)
}
