package cmd

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Blosc/btune-go/btune"
	"github.com/Blosc/btune-go/btune/entropy"
	"github.com/Blosc/btune-go/btune/params"
)

var (
	runTradeoff     float64
	runPerfMode     string
	runBandwidth    float64
	runModelsDir    string
	runUseInference int
	runTrace        bool
	runCParamsHint  bool
	runChunks       int
	runChunkSize    int
	runTypesize     int
	runPattern      string
	runMaxThreads   int
	runSeed         int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the tuner across a synthetic stream of chunks and report the winning parameters",
	Run:   runRun,
}

func init() {
	runCmd.Flags().Float64Var(&runTradeoff, "tradeoff", 0.5, "Speed/ratio tradeoff in [0,1], 0=fastest 1=smallest")
	runCmd.Flags().StringVar(&runPerfMode, "perf-mode", "BALANCED", "COMP, DECOMP, BALANCED or AUTO")
	runCmd.Flags().Float64Var(&runBandwidth, "bandwidth", 1024*1024, "Assumed storage bandwidth in KB/s")
	runCmd.Flags().StringVar(&runModelsDir, "models-dir", "", "Directory holding the inference classifier artifact and its metadata.yaml")
	runCmd.Flags().IntVar(&runUseInference, "use-inference", 0, "How many leading chunks the inference front-end may answer")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "Print the per-step trace table")
	runCmd.Flags().BoolVar(&runCParamsHint, "cparams-hint", false, "Run in cparams-hint mode (no extra seeding hard cycle); the CLI passes no hint tuple, so the search starts from the built-in defaults")
	runCmd.Flags().IntVar(&runChunks, "chunks", 64, "Number of chunks to feed the tuner")
	runCmd.Flags().IntVar(&runChunkSize, "chunk-size", 1<<20, "Size in bytes of each synthetic chunk")
	runCmd.Flags().IntVar(&runTypesize, "typesize", 4, "Element size in bytes")
	runCmd.Flags().StringVar(&runPattern, "pattern", "mixed", "zeros, arange, mixed or random")
	runCmd.Flags().IntVar(&runMaxThreads, "max-threads", 4, "Upper bound the THREADS state may search up to")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "PRNG seed for the random/mixed patterns")
}

func runRun(_ *cobra.Command, _ []string) {
	cfg := btune.DefaultConfig()
	cfg.Tradeoff = runTradeoff
	if mode, ok := params.ParsePerfMode(runPerfMode); ok {
		cfg.PerfMode = mode
	} else {
		logrus.Warnf("btune-sim: unrecognized --perf-mode=%q, using BALANCED", runPerfMode)
	}
	cfg.Bandwidth = runBandwidth
	cfg.ModelsDir = runModelsDir
	cfg.UseInference = runUseInference
	cfg.Trace = runTrace
	cfg.CParamsHint = runCParamsHint

	tuner, err := btune.Init(cfg, nil, runMaxThreads, nil)
	if err != nil {
		logrus.Fatalf("btune-sim: init failed: %v", err)
	}

	rng := rand.New(rand.NewSource(runSeed))
	for i := 0; i < runChunks; i++ {
		chunk := generateChunk(runPattern, runChunkSize, runTypesize, rng)
		ctx := &btune.Context{Chunk: chunk, Typesize: runTypesize, SourceSize: len(chunk)}
		tuner.NextCParams(ctx)

		ctime, cbytes := simulateCompression(chunk, ctx)
		if _, err := tuner.Update(ctx, ctime, cbytes); err != nil {
			logrus.Warnf("btune-sim: step %d: %v", i, err)
		}
	}

	best := tuner.Best()
	fmt.Printf("winner: codec=%s filter=%s split=%s clevel=%d shufflesize=%d cthreads=%d dthreads=%d cratio=%.3f score=%.4f state=%s\n",
		best.Compcode, best.Filter, best.SplitMode, best.Clevel, best.Shufflesize,
		best.NThreadsComp, best.NThreadsDecomp, best.CRatio, best.Score, tuner.State())
}

// generateChunk produces one synthetic chunk. The patterns are stand-ins
// for the kinds of buffers Scenarios A-F reason about: an all-zero chunk,
// a typed arange ramp, a mixed-entropy buffer, and uniform noise.
func generateChunk(pattern string, size, typesize int, rng *rand.Rand) []byte {
	buf := make([]byte, size)
	switch pattern {
	case "zeros":
		// buf is already zeroed.
	case "arange":
		for i := range buf {
			buf[i] = byte(i / max(typesize, 1))
		}
	case "random":
		rng.Read(buf)
	default: // mixed
		half := size / 2
		for i := 0; i < half; i++ {
			buf[i] = byte(i / max(typesize, 1))
		}
		rng.Read(buf[half:])
	}
	return buf
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// simulateCompression stands in for the real codec kernels (out of
// scope): it derives a plausible compressed size from the entropy probe's
// estimate, shrunk further by clevel and the chosen filter, and a time
// that grows with clevel and shrinks with thread count.
func simulateCompression(chunk []byte, ctx *btune.Context) (ctime float64, cbytes int) {
	estimated, _ := entropy.EstimateWithHashLog(chunk, entropy.HashLog)

	levelFactor := 1.0 - 0.05*float64(ctx.Clevel)
	if levelFactor < 0.4 {
		levelFactor = 0.4
	}
	filterFactor := 1.0
	if ctx.Filters[1] != params.FilterNoFilter {
		filterFactor = 0.85
	}
	cbytes = int(math.Max(1, float64(estimated)*levelFactor*filterFactor))

	baseTime := float64(len(chunk)) / (2.5e9) // ~2.5 GB/s baseline scan rate
	ctime = baseTime * (1.0 + 0.3*float64(ctx.Clevel)) / float64(max(ctx.NThreadsComp, 1))
	return ctime, cbytes
}
