package btune

import (
	"github.com/sirupsen/logrus"

	"github.com/Blosc/btune-go/btune/features"
	"github.com/Blosc/btune-go/btune/inference"
	"github.com/Blosc/btune-go/btune/params"
	"github.com/Blosc/btune-go/btune/trace"
)

// tunerState is the mutable state the search engine and inference
// front-end share for one pipeline context. It is owned exclusively by
// the Tuner wrapping it; nothing here is safe to share across contexts.
type tunerState struct {
	cfg  Config
	band params.Band

	codecs  []params.Codec
	filters []params.Filter
	clevels []int

	combos     []combo
	comboIndex int

	clevelIndex int

	shuffleExp    int
	minShuffleExp int

	threadsForComp bool
	threadsValue   int

	state       State
	readaptFrom ReadaptFrom
	stepSize    int

	nsofts       int
	nhards       int
	nwaitings    int
	stepsInState int

	memcpyTriedThisHard bool

	minHards         int
	nhardsBeforeStop int

	best params.CParams

	frontEnd  *inference.FrontEnd
	extractor *features.Extractor
	tracer    *trace.Tracer

	maxThreads int

	pendingFromInference bool
	done                 bool
}

// currentProposal computes the candidate tuple for the active state,
// starting from best and mutating exactly the axis that state tunes.
func (ts *tunerState) currentProposal() params.CParams {
	cand := ts.best
	switch ts.state {
	case StateCodecFilter:
		idx := ts.comboIndex
		if idx < 0 {
			idx = 0
		}
		if idx > len(ts.combos)-1 {
			idx = len(ts.combos) - 1
		}
		c := ts.combos[idx]
		cand.Compcode = c.codec
		cand.Filter = c.filter
		cand.SplitMode = c.split
		cand.Clevel = params.RewriteClevel(cand.Clevel, c.codec)
	case StateShuffleSize:
		cand.Shufflesize = 1 << ts.shuffleExp
	case StateThreads:
		if ts.threadsForComp {
			cand.NThreadsComp = ts.threadsValue
		} else {
			cand.NThreadsDecomp = ts.threadsValue
		}
	case StateClevel:
		idx := ts.clevelIndex
		if idx < 0 {
			idx = 0
		}
		if idx > len(ts.clevels)-1 {
			idx = len(ts.clevels) - 1
		}
		cand.Clevel = params.RewriteClevel(ts.clevels[idx], cand.Compcode)
	case StateMemcpy:
		cand.Clevel = 0
	}
	return cand
}

// recordOutcome scores a just-measured candidate against best, advances
// the state machine, and returns the trace winner label.
func (ts *tunerState) recordOutcome(cand params.CParams, special bool, pipelineErr bool) string {
	winner := "-"
	switch {
	case special:
		winner = "S"
	case pipelineErr:
		// Uninformative step: no scoring, no best update, but the search
		// still advances so a flaky decompression never wedges the state
		// machine.
	default:
		var improved bool
		if ts.state == StateThreads {
			improved = HasImprovedOnAxis(ts.threadsForComp, ts.best.CTime, cand.CTime, ts.best.DTime, cand.DTime)
		} else {
			improved = HasImproved(ts.band, ts.best.Score, cand.Score, ts.best.CRatio, cand.CRatio)
		}
		if improved {
			winner = "W"
			ts.best = cand
		}
		ts.stepState(improved)
		return winner
	}
	ts.stepState(false)
	return winner
}

// stepState advances the index/value the active state tunes, applies the
// first-step-no-improve direction flip, and transitions to the next state
// once the active one is exhausted.
func (ts *tunerState) stepState(improved bool) {
	firstStep := ts.stepsInState == 0
	ended := false

	switch ts.state {
	case StateCodecFilter:
		next := ts.comboIndex + ts.stepSize
		if next >= len(ts.combos)-1 {
			next = len(ts.combos) - 1
			ended = true
		}
		ts.comboIndex = next
	case StateShuffleSize:
		next, e := advanceBounded(ts.shuffleExp, 1, ts.minShuffleExp, intLog2(params.MaxShuffle), ts.best.IncreasingShuffle)
		ts.shuffleExp = next
		ended = e
	case StateThreads:
		next, e := advanceBounded(ts.threadsValue, 1, 1, ts.maxThreads, ts.best.IncreasingNThreads)
		ts.threadsValue = next
		ended = e
	case StateClevel:
		next, e := advanceBounded(ts.clevelIndex, ts.stepSize, 0, len(ts.clevels)-1, ts.best.IncreasingClevel)
		ts.clevelIndex = next
		ended = e
	case StateMemcpy:
		ended = true
	case StateWaiting:
		// Every chunk spent in WAITING counts as one wait and re-runs the
		// WAITING orchestration.
		ts.nwaitings++
		ended = true
	}

	if firstStep && !improved {
		ts.flipDirection()
	}
	ts.stepsInState++

	if ended {
		ts.transitionFromState()
	}
}

// flipDirection reverses the monotone flag the active state walks along,
// so the next time that state is entered it searches the other way.
func (ts *tunerState) flipDirection() {
	switch ts.state {
	case StateShuffleSize:
		ts.best.IncreasingShuffle = !ts.best.IncreasingShuffle
	case StateThreads:
		ts.best.IncreasingNThreads = !ts.best.IncreasingNThreads
	case StateClevel:
		ts.best.IncreasingClevel = !ts.best.IncreasingClevel
	}
}

func (ts *tunerState) needsShuffleState() bool {
	return ts.best.Filter == params.FilterShuffle || ts.best.Filter == params.FilterBitShuffle
}

func (ts *tunerState) wantsMemcpy() bool {
	return ts.band == params.BandLowCR && ts.readaptFrom == ReadaptHard && !ts.memcpyTriedThisHard
}

// transitionFromState moves to the next node in the CODEC_FILTER ->
// (SHUFFLE_SIZE?) -> THREADS -> CLEVEL -> (MEMCPY?) -> WAITING -> STOP
// cycle, entering it with freshly computed bounds.
func (ts *tunerState) transitionFromState() {
	ts.stepsInState = 0
	switch ts.state {
	case StateCodecFilter:
		if ts.needsShuffleState() {
			ts.enterShuffleSize()
		} else {
			ts.enterThreads()
		}
	case StateShuffleSize:
		ts.enterThreads()
	case StateThreads:
		if ts.band == params.BandBalanced && ts.threadsForComp {
			ts.threadsForComp = false
			ts.threadsValue = ts.best.NThreadsDecomp
			ts.stepsInState = 0
			return
		}
		ts.enterClevel()
	case StateClevel:
		if ts.wantsMemcpy() {
			ts.enterMemcpy()
		} else {
			ts.enterWaiting()
		}
	case StateMemcpy:
		ts.enterWaiting()
	case StateWaiting:
		ts.runWaitingTransition()
	case StateStop:
		ts.done = true
	default:
		logrus.Errorf("btune: %v: unrecognized state %v, forcing STOP", ErrInvariant, int(ts.state))
		ts.state = StateStop
		ts.done = true
	}
}

func (ts *tunerState) enterShuffleSize() {
	ts.state = StateShuffleSize
	ts.minShuffleExp = minShuffleExpFor(ts.best.Filter)
	exp := intLog2(ts.best.Shufflesize)
	if exp < ts.minShuffleExp {
		exp = ts.minShuffleExp
	}
	if maxExp := intLog2(params.MaxShuffle); exp > maxExp {
		exp = maxExp
	}
	ts.shuffleExp = exp
}

func (ts *tunerState) enterThreads() {
	ts.state = StateThreads
	ts.threadsForComp = ts.cfg.PerfMode != params.PerfDecomp
	if ts.threadsForComp {
		ts.threadsValue = ts.best.NThreadsComp
	} else {
		ts.threadsValue = ts.best.NThreadsDecomp
	}
}

func (ts *tunerState) enterClevel() {
	ts.state = StateClevel
	ts.clevels = params.ClevelsForBand(ts.band, ts.best.Compcode)
	ts.clevelIndex = nearestClevelIndex(ts.clevels, ts.best.Clevel)
}

func (ts *tunerState) enterMemcpy() {
	ts.state = StateMemcpy
	ts.memcpyTriedThisHard = true
}

func (ts *tunerState) enterWaiting() {
	ts.state = StateWaiting
	ts.nwaitings = 0
}

func (ts *tunerState) enterSoftReadapt() {
	ts.readaptFrom = ReadaptSoft
	ts.stepSize = SoftStep
	ts.enterClevel()
	ts.stepsInState = 0
}

func (ts *tunerState) enterHardReadapt() {
	ts.nhards++
	ts.readaptFrom = ReadaptHard
	ts.stepSize = HardStep
	if ts.nhards >= ts.nhardsBeforeStop {
		ts.stepSize = SoftStep
	}
	ts.memcpyTriedThisHard = false
	splitAuto := ts.best.SplitMode == params.SplitAuto
	ts.combos = buildCombos(ts.codecs, ts.filters, ts.best.SplitMode, splitAuto)
	ts.comboIndex = 0
	ts.state = StateCodecFilter
	ts.stepsInState = 0
}

// runWaitingTransition is the WAITING orchestration: it decides,
// once a readapt cycle returns to WAITING, whether to run another soft
// cycle, wait, run another hard cycle, or stop, based on which cycle just
// finished and the configured repeat policy.
func (ts *tunerState) runWaitingTransition() {
	switch ts.readaptFrom {
	case ReadaptHard:
		if ts.nhards >= ts.nhardsBeforeStop {
			ts.applyRepeatPolicy()
			return
		}
		switch {
		case ts.cfg.Behaviour.NSoftsBeforeHard > 0:
			ts.nsofts = 0
			ts.enterSoftReadapt()
		case ts.cfg.Behaviour.NWaitsBeforeReadapt > 0:
			ts.readaptFrom = ReadaptWait
			ts.nwaitings = 0
		default:
			ts.enterHardReadapt()
		}

	case ReadaptSoft:
		ts.nsofts++
		if ts.cfg.CParamsHint && ts.nhardsBeforeStop == 0 {
			ts.state = StateStop
			ts.done = true
			return
		}
		lastInCycle := ts.nsofts >= ts.cfg.Behaviour.NSoftsBeforeHard
		if !lastInCycle {
			ts.enterSoftReadapt()
			return
		}
		if ts.nhards < ts.nhardsBeforeStop {
			ts.enterHardReadapt()
		} else {
			ts.applyRepeatPolicy()
		}

	case ReadaptWait:
		if ts.nwaitings < ts.cfg.Behaviour.NWaitsBeforeReadapt {
			// Still waiting: stay in StateWaiting without resetting
			// nwaitings, so stepState keeps counting.
			return
		}
		if ts.nhards < ts.nhardsBeforeStop {
			ts.enterHardReadapt()
		} else {
			ts.applyRepeatPolicy()
		}
	}
}

// applyRepeatPolicy runs once the last configured hard cycle completes:
// REPEAT_ALL cycles back through softs/waits/hards before stopping,
// REPEAT_SOFT only repeats softs, and STOP halts immediately.
func (ts *tunerState) applyRepeatPolicy() {
	switch ts.cfg.Behaviour.RepeatMode {
	case RepeatAll:
		switch {
		case ts.cfg.Behaviour.NSoftsBeforeHard > 0:
			ts.nsofts = 0
			ts.enterSoftReadapt()
		case ts.cfg.Behaviour.NWaitsBeforeReadapt > 0:
			ts.nwaitings = 0
			ts.readaptFrom = ReadaptWait
			ts.state = StateWaiting
		case ts.nhardsBeforeStop > 0:
			ts.nhards = 0
			ts.enterHardReadapt()
		default:
			ts.state = StateStop
			ts.done = true
		}
	case RepeatSoft:
		if ts.cfg.Behaviour.NSoftsBeforeHard > 0 {
			ts.nsofts = 0
			ts.enterSoftReadapt()
		} else {
			ts.state = StateStop
			ts.done = true
		}
	default: // RepeatStop
		ts.state = StateStop
		ts.done = true
	}
}

// seedFromInference restricts the search's codec/filter/clevel space to
// the inference front-end's most-predicted category and restarts the
// hard-readapt cycle seeded with it.
func (ts *tunerState) seedFromInference(cat inference.Category) {
	ts.codecs = []params.Codec{cat.Codec}
	ts.filters = []params.Filter{cat.Filter}

	clevel := params.ClampClevel(cat.Clevel)
	if ts.cfg.PerfMode == params.PerfDecomp {
		ts.clevels = []int{clevel}
	} else {
		// The seed ladder never drops to 0: an inference-predicted clevel
		// is always a real compression level, so its neighborhood stays
		// within [1, MaxClevel] rather than the general [MinClevel,
		// MaxClevel] range ClampClevel enforces elsewhere.
		lo := clevel - 1
		if lo < 1 {
			lo = 1
		}
		hi := clevel + 1
		if hi > params.MaxClevel {
			hi = params.MaxClevel
		}
		levels := make([]int, 0, 3)
		for l := lo; l <= hi; l++ {
			levels = append(levels, l)
		}
		ts.clevels = levels
	}

	ts.best.Compcode = cat.Codec
	ts.best.Filter = cat.Filter
	ts.best.SplitMode = cat.SplitMode
	ts.best.Clevel = clevel
	ts.clevelIndex = nearestClevelIndex(ts.clevels, clevel)

	ts.nhards = 0
	ts.enterHardReadapt()
}
