// Package btune implements an adaptive compression-parameter tuner: a
// genetic/exploratory search state machine and a model-driven inference
// front-end that cooperate to propose (codec, filter, split mode, clevel,
// shuffle size, thread counts) for each chunk a compression pipeline
// presents, and refine the proposal as compression/decompression
// measurements come back.
package btune

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Blosc/btune-go/btune/features"
	"github.com/Blosc/btune-go/btune/inference"
	"github.com/Blosc/btune-go/btune/params"
	"github.com/Blosc/btune-go/btune/trace"
)

// Context stands in for the outer pipeline's per-chunk compression
// context (cctx and, where noted, dctx combined) that the real plug-in
// contract mutates in place. The compression kernels, the super-chunk
// format, and their I/O are out of scope: Context is only the seam the
// tuner writes its proposal into.
type Context struct {
	// Chunk and Typesize/SourceSize describe the input the tuner is
	// about to propose parameters for.
	Chunk      []byte
	Typesize   int
	SourceSize int

	// Fields NextCParams mutates, mirroring cctx's layout.
	Compcode       params.Codec
	Filters        [2]params.Filter
	FiltersMeta    [2]int
	SplitMode      params.SplitMode
	Clevel         int
	Blocksize      int
	NThreadsComp   int
	NThreadsDecomp int
}

// applyCParams writes cand into ctx following the filter-slot convention:
// a single filter occupies the last slot; BYTEDELTA additionally sets the
// previous slot to SHUFFLE with filters_meta = typesize.
func (ctx *Context) applyCParams(cand params.CParams) {
	ctx.Compcode = cand.Compcode
	ctx.SplitMode = cand.SplitMode
	ctx.Clevel = cand.Clevel
	ctx.Blocksize = cand.Blocksize
	ctx.NThreadsComp = cand.NThreadsComp
	ctx.NThreadsDecomp = cand.NThreadsDecomp

	ctx.Filters[0] = params.FilterNoFilter
	ctx.FiltersMeta[0] = 0
	ctx.Filters[1] = cand.Filter
	ctx.FiltersMeta[1] = 0
	if cand.Filter == params.FilterShuffle || cand.Filter == params.FilterBitShuffle {
		ctx.FiltersMeta[1] = ctx.Typesize
	}
	if cand.Filter == params.FilterByteDelta {
		ctx.Filters[0] = params.FilterShuffle
		ctx.FiltersMeta[0] = ctx.Typesize
	}
}

// Decompressor performs the optional decompression Update uses to measure
// dtime. The outer pipeline supplies one built around either a
// caller-owned or a freshly constructed decompression context; the tuner
// never retains it past the Update call that receives it.
type Decompressor interface {
	Decompress() (dtimeSeconds float64, err error)
}

// Tuner is the plug-in the outer compression pipeline installs on a
// context: Init allocates it, NextBlocksize/NextCParams propose
// parameters, Update records measurements and advances state, and Free
// releases it.
type Tuner struct {
	state *tunerState
}

// Init allocates a Tuner for one pipeline context. cfg is copied,
// environment-overridden, and validated; hint, when cfg.CParamsHint is
// true, seeds the initial best tuple. maxThreads bounds the THREADS
// state's search range, and registry (may be nil) receives the one-shot
// entropy probe registration.
//
// The returned error is always nil: every misconfiguration is
// clamped/defaulted and logged instead.
func Init(cfg Config, hint *params.CParams, maxThreads int, registry CodecRegistry) (*Tuner, error) {
	ApplyEnvOverrides(&cfg)
	cfg.Validate()
	RegisterEntropyProbe(registry)

	if maxThreads < 1 {
		maxThreads = 1
	}

	band := params.BandFor(cfg.Tradeoff)
	decompBiased := cfg.PerfMode == params.PerfDecomp
	codecs := filterAvailableCodecs(params.CodecsForBand(band, decompBiased), cfg.AvailableCodecs)

	best := params.NewDefaultCParams(0)
	if cfg.CParamsHint && hint != nil {
		best = *hint
	}
	best = seedMeasurements(best)

	minHards := 1
	if cfg.CParamsHint {
		minHards = 0
	}
	nhardsBeforeStop := cfg.Behaviour.NHardsBeforeStop
	if !cfg.CParamsHint {
		nhardsBeforeStop++
	}
	if nhardsBeforeStop < minHards {
		nhardsBeforeStop = minHards
	}

	ts := &tunerState{
		cfg:              cfg,
		band:             band,
		codecs:           codecs,
		filters:          params.FiltersForBand(band),
		best:             best,
		minHards:         minHards,
		nhardsBeforeStop: nhardsBeforeStop,
		frontEnd:         inference.NewFrontEnd(cfg.ModelsDir, cfg.UseInference),
		extractor:        features.NewExtractor(),
		tracer:           trace.NewTracer(cfg.Trace),
		maxThreads:       maxThreads,
	}
	ts.enterHardReadapt() // nhards becomes 1, seeding best from the starting parameters.

	return &Tuner{state: ts}, nil
}

// NextBlocksize exists to satisfy the plug-in contract; the tuner
// leaves blocksize selection to the outer pipeline and never overrides
// it, so this is a no-op.
func (t *Tuner) NextBlocksize(_ *Context) {}

// NextCParams proposes parameters for ctx.Chunk. While the inference
// front-end is active it bypasses the search state machine entirely; once
// exhausted, it seeds the search from the most-predicted category exactly
// once and falls through to the state machine from then on.
func (t *Tuner) NextCParams(ctx *Context) {
	ts := t.state

	if ts.done {
		ctx.applyCParams(ts.best)
		return
	}

	if cat, ok := ts.frontEnd.Predict(ctx.Chunk, ctx.Typesize); ok {
		ts.pendingFromInference = true
		cand := ts.best
		cand.Compcode = cat.Codec
		cand.Filter = cat.Filter
		cand.SplitMode = cat.SplitMode
		cand.Clevel = params.ClampClevel(cat.Clevel)
		ctx.applyCParams(cand)
		return
	}
	if ts.frontEnd.Exhausted() {
		if seed, ok := ts.frontEnd.MostPredicted(); ok {
			ts.seedFromInference(seed)
		}
	}

	ts.pendingFromInference = false
	ctx.applyCParams(ts.currentProposal())
}

// Update records the measurements for the chunk NextCParams just proposed
// parameters for, scores it, and advances the state machine. ctime is in
// seconds; cbytes is the compressed size the pipeline produced. Update
// performs no decompression, so dtime is recorded as zero.
func (t *Tuner) Update(ctx *Context, ctime float64, cbytes int) (float64, error) {
	return t.updateWithDecompressor(ctx, ctime, cbytes, nil)
}

// UpdateWithDecompression is Update, but additionally measures dtime via
// decomp when perf_mode requires it. decomp, when non-nil, is invoked
// exactly once — the only blocking operation the tuner performs.
//
// A decompression failure is never fatal: it is logged, wrapped in
// ErrPipelineError, and returned, but the step still advances the state
// machine so a single flaky measurement cannot wedge the tuner.
func (t *Tuner) UpdateWithDecompression(ctx *Context, ctime float64, cbytes int, decomp Decompressor) (float64, error) {
	return t.updateWithDecompressor(ctx, ctime, cbytes, decomp)
}

func (t *Tuner) updateWithDecompressor(ctx *Context, ctime float64, cbytes int, decomp Decompressor) (float64, error) {
	ts := t.state
	if ts.done {
		return 0, nil
	}

	var dtime float64
	var pipelineErr error
	if decomp != nil && wantsDtime(ts.cfg.PerfMode) {
		d, err := decomp.Decompress()
		if err != nil {
			logrus.Warnf("btune: %v during update, treating step as uninformative: %v", ErrPipelineError, err)
			pipelineErr = fmt.Errorf("%w: %v", ErrPipelineError, err)
		} else {
			dtime = d
		}
	}

	cand := ts.currentProposal()
	if ts.pendingFromInference {
		cand.Compcode = ctx.Compcode
		cand.Filter = ctx.Filters[1]
		cand.SplitMode = ctx.SplitMode
		cand.Clevel = ctx.Clevel
	}
	cand.CTime = ctime
	cand.DTime = dtime
	cand.CRatio = CRatio(float64(ctx.SourceSize), float64(cbytes))
	cand.Score = Score(ts.cfg.PerfMode, ctime, float64(cbytes), dtime, ts.cfg.Bandwidth)

	special := IsSpecialChunk(cbytes, ctx.Typesize)

	var winner string
	if ts.pendingFromInference {
		winner = "-"
		if !special {
			logrus.Tracef("btune: inference proposal scored (not fed back to search): score=%.4f cratio=%.4f", cand.Score, cand.CRatio)
		}
	} else {
		winner = ts.recordOutcome(cand, special, pipelineErr != nil)
	}

	ts.tracer.Step(trace.Record{
		Codec:       cand.Compcode.String(),
		Filter:      cand.Filter.String(),
		Split:       cand.SplitMode.String(),
		CLevel:      cand.Clevel,
		Blocksize:   ctx.Blocksize,
		Shufflesize: cand.Shufflesize,
		CThreads:    cand.NThreadsComp,
		DThreads:    cand.NThreadsDecomp,
		Score:       cand.Score,
		CRatio:      cand.CRatio,
		State:       ts.state.String(),
		Readapt:     ts.readaptFrom.String(),
		Winner:      winner,
	})

	return dtime, pipelineErr
}

// filterAvailableCodecs drops any band-admitted codec not present in
// available, logging ErrCodecUnavailable for each one omitted. A nil
// available list means every codec the runtime offers is assumed
// present, so no filtering happens. If filtering would empty the list
// entirely, the unfiltered list is kept instead: a search with no
// codecs to try is worse than one that tries an unavailable one and
// lets the outer pipeline's own compression call fail.
func filterAvailableCodecs(codecs, available []params.Codec) []params.Codec {
	if available == nil {
		return codecs
	}
	present := make(map[params.Codec]bool, len(available))
	for _, c := range available {
		present[c] = true
	}
	out := make([]params.Codec, 0, len(codecs))
	for _, c := range codecs {
		if present[c] {
			out = append(out, c)
			continue
		}
		logrus.Warnf("btune: %v: %s not registered in this runtime, omitting from search", ErrCodecUnavailable, c)
	}
	if len(out) == 0 {
		return codecs
	}
	return out
}

// wantsDtime reports whether perf_mode requires a decompression
// measurement at all; COMP-only tuning never pays for it.
func wantsDtime(mode params.PerfMode) bool {
	return mode == params.PerfDecomp || mode == params.PerfBalanced || mode == params.PerfAuto
}

// Free releases the Tuner's state. The caller is expected to clear its own
// handle (cctx.tuner_params = nil in the C contract) after calling this;
// Go's garbage collector reclaims everything else once that handle drops.
func (t *Tuner) Free() {
	t.state = nil
}

// Best returns the current winning parameter tuple, useful for tests and
// for a pipeline that wants to persist the final choice for logging.
func (t *Tuner) Best() params.CParams {
	return t.state.best
}

// State returns the current search state machine node, mostly useful for
// tests asserting on tuner behavior.
func (t *Tuner) State() State {
	return t.state.state
}
