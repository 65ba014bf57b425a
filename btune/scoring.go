package btune

import (
	"math"

	"github.com/Blosc/btune-go/btune/params"
)

// headerOverhead is the fixed per-chunk framing cost the outer super-chunk
// format spends regardless of payload; the special-chunk test only needs a
// stable constant to compare cbytes against.
const headerOverhead = 16

// Score is the scalar cost function used to compare candidates. bandwidthKBs
// must be positive (Config.Validate enforces this at Init).
func Score(perfMode params.PerfMode, ctime, cbytes, dtime, bandwidthKBs float64) float64 {
	reduced := cbytes / 1024.0
	switch perfMode {
	case params.PerfComp:
		return ctime + reduced/bandwidthKBs
	case params.PerfDecomp:
		return reduced/bandwidthKBs + dtime
	default: // BALANCED and AUTO both fold in every timing that was taken
		return ctime + reduced/bandwidthKBs + dtime
	}
}

// CRatio is sourcesize/cbytes; callers must guard cbytes > 0.
func CRatio(sourceSize, cbytes float64) float64 {
	if cbytes <= 0 {
		return 0
	}
	return sourceSize / cbytes
}

// HasImproved reports whether a candidate beats best: lower score is
// better, higher cratio is better, and the exact trade-off accepted
// between them depends on the tradeoff band. Ties are never improvements.
func HasImproved(band params.Band, bestScore, newScore, bestCRatio, newCRatio float64) bool {
	if bestScore <= 0 || newScore <= 0 || bestCRatio <= 0 || newCRatio <= 0 {
		return false
	}
	scoreCoef := bestScore / newScore
	cratioCoef := newCRatio / bestCRatio

	switch band {
	case params.BandLowCR:
		return (cratioCoef > 1 && scoreCoef > 1) ||
			(cratioCoef > 0.5 && scoreCoef > 2) ||
			(cratioCoef > 0.67 && scoreCoef > 1.3) ||
			(cratioCoef > 2 && scoreCoef > 0.7)
	case params.BandBalanced:
		return (cratioCoef > 1 && scoreCoef > 1) ||
			(cratioCoef > 1.1 && scoreCoef > 0.8) ||
			(cratioCoef > 1.3 && scoreCoef > 0.5)
	default: // HIGH-CR
		return cratioCoef > 1
	}
}

// HasImprovedOnAxis is the THREADS-state override: improvement is
// measured only along the timing axis currently being tuned.
func HasImprovedOnAxis(threadsForComp bool, bestCTime, newCTime, bestDTime, newDTime float64) bool {
	if threadsForComp {
		return newCTime < bestCTime
	}
	return newDTime < bestDTime
}

// IsSpecialChunk reports the short-circuit: a chunk too small to
// carry more than its own header and one element never becomes the new
// best, regardless of its measured score.
func IsSpecialChunk(cbytes, typesize int) bool {
	return cbytes <= headerOverhead+typesize
}

// seedMeasurements stamps cand with placeholder measurements bad enough
// that any real first measurement beats them under HasImproved and
// HasImprovedOnAxis alike. Init uses this so the starting best (hint or
// default) is never mistaken for an already-measured candidate: without
// it, the zero-value Score/CRatio would trip HasImproved's degenerate-
// input guard and the search could never record its first winner.
func seedMeasurements(cand params.CParams) params.CParams {
	cand.Score = math.MaxFloat64
	cand.CTime = math.MaxFloat64
	cand.DTime = math.MaxFloat64
	cand.CRatio = math.SmallestNonzeroFloat64
	return cand
}
