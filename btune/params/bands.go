package params

// Band classifies a tradeoff value into one of the three admissibility
// bands used to restrict which codecs, filters and compression levels the
// search state machine is allowed to try.
type Band int

const (
	BandLowCR Band = iota
	BandBalanced
	BandHighCR
)

func (b Band) String() string {
	switch b {
	case BandLowCR:
		return "LOW-CR"
	case BandBalanced:
		return "BALANCED"
	case BandHighCR:
		return "HIGH-CR"
	default:
		return "UNKNOWN"
	}
}

// BandFor classifies tradeoff ∈ [0,1] into its band. Edges: [0, 1/3] is
// LOW-CR, (1/3, 2/3] is BALANCED, (2/3, 1] is HIGH-CR. Note this is the
// *intended* semantics (see DESIGN.md's note on the `tradeoff > 2/3`
// integer-division bug in the original C); it is not the literal
// `2/3 <= tradeoff` guard that bug produced.
func BandFor(tradeoff float64) Band {
	switch {
	case tradeoff <= 1.0/3.0:
		return BandLowCR
	case tradeoff <= 2.0/3.0:
		return BandBalanced
	default:
		return BandHighCR
	}
}

// PerfMode selects which timings enter the score.
type PerfMode int

const (
	PerfComp PerfMode = iota
	PerfDecomp
	PerfBalanced
	PerfAuto
)

func (p PerfMode) String() string {
	switch p {
	case PerfComp:
		return "COMP"
	case PerfDecomp:
		return "DECOMP"
	case PerfBalanced:
		return "BALANCED"
	case PerfAuto:
		return "AUTO"
	default:
		return "UNKNOWN"
	}
}

// ParsePerfMode parses the names accepted by BTUNE_PERF_MODE, written
// either all upper-case or all lower-case.
func ParsePerfMode(s string) (PerfMode, bool) {
	switch s {
	case "COMP", "comp":
		return PerfComp, true
	case "DECOMP", "decomp":
		return PerfDecomp, true
	case "BALANCED", "balanced":
		return PerfBalanced, true
	case "AUTO", "auto":
		return PerfAuto, true
	default:
		return PerfBalanced, false
	}
}

// CodecsForBand returns the codecs admissible in a band. decompBiased is
// true when perf_mode is DECOMP, which additionally admits LZ4HC in
// LOW-CR.
func CodecsForBand(band Band, decompBiased bool) []Codec {
	switch band {
	case BandHighCR:
		return []Codec{CodecZstd, CodecZlib}
	case BandBalanced:
		return []Codec{CodecLZ4, CodecBloscLZ}
	default: // BandLowCR
		if decompBiased {
			return []Codec{CodecLZ4, CodecLZ4HC}
		}
		return []Codec{CodecLZ4}
	}
}

// FiltersForBand returns the filters the search cycles over. All three
// bands cycle the same filter set; the cap is on codec and clevel, not
// filter.
func FiltersForBand(_ Band) []Filter {
	return []Filter{FilterShuffle, FilterBitShuffle, FilterNoFilter}
}

// ClevelsForBand returns the admissible clevel ladder for a (band, codec)
// pair: ZSTD/ZLIB are capped at 3 in BALANCED and 6 in HIGH-CR; for ZSTD a
// requested 9 is rewritten to 8.
func ClevelsForBand(band Band, codec Codec) []int {
	max := MaxClevel
	switch {
	case band == BandBalanced && (codec == CodecZstd || codec == CodecZlib):
		max = 3
	case band == BandHighCR && (codec == CodecZstd || codec == CodecZlib):
		max = 6
	}
	levels := make([]int, 0, max+1)
	for l := MinClevel; l <= max; l++ {
		levels = append(levels, RewriteClevel(l, codec))
	}
	return levels
}

// RewriteClevel applies the ZSTD 9->8 rewrite; all other codecs pass
// through unchanged.
func RewriteClevel(clevel int, codec Codec) int {
	if codec == CodecZstd && clevel == 9 {
		return 8
	}
	return clevel
}
