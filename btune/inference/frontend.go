// Package inference implements the model-driven front-end: it
// loads a per-dataset classifier from a models directory, runs it against
// cheap entropy features to propose (codec, filter, clevel, splitmode) for
// the first N chunks, then hands the search state machine a seed derived
// from the most frequently predicted category.
package inference

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/Blosc/btune-go/btune/features"
)

// alwaysInfer mirrors the config sentinel "use_inference == -1": run
// inference on every chunk, never switching to pure search.
const alwaysInfer = -1

// FrontEnd tracks inference availability and prediction history for one
// pipeline context. A FrontEnd with no loaded artifact behaves exactly
// like a build without a models directory: Active is always false and
// Predict always returns ok=false, matching a pipeline context with
// inference disabled.
type FrontEnd struct {
	artifact  Artifact
	extractor *features.Extractor

	remaining int // chunks of inference left; alwaysInfer means unlimited
	seeded    bool

	order     []Category
	histogram map[Category]int
}

// NewFrontEnd scans modelsDir for a classifier artifact and metadata. A
// missing directory or failed load disables inference for this context
// (inference_count becomes 0) without returning an error: ModelMissing and
// ModelLoadError are never fatal.
func NewFrontEnd(modelsDir string, useInference int) *FrontEnd {
	fe := &FrontEnd{
		extractor: features.NewExtractor(),
		remaining: useInference,
		histogram: make(map[Category]int),
	}
	if modelsDir == "" || useInference == 0 {
		fe.remaining = 0
		return fe
	}
	artifact, err := loadArtifact(modelsDir)
	if err != nil {
		logrus.Infof("btune: inference disabled for this context: %v", err)
		fe.remaining = 0
		return fe
	}
	fe.artifact = artifact
	return fe
}

// Active reports whether the front-end still has chunks left to predict.
func (fe *FrontEnd) Active() bool {
	return fe.artifact != nil && (fe.remaining == alwaysInfer || fe.remaining > 0)
}

// Predict runs the classifier on chunk's features. ok is false whenever
// inference is inactive or the classifier itself failed, in which case the
// caller should fall back to the search state machine for this chunk.
func (fe *FrontEnd) Predict(chunk []byte, typesize int) (Category, bool) {
	if !fe.Active() {
		return Category{}, false
	}
	v := fe.extractor.Extract(chunk, typesize)
	cat, err := fe.artifact.Predict(v)
	if err != nil {
		logrus.Warnf("btune: inference prediction failed, falling back to search: %v", err)
		return Category{}, false
	}

	if _, seen := fe.histogram[cat]; !seen {
		fe.order = append(fe.order, cat)
	}
	fe.histogram[cat]++
	if fe.remaining > 0 {
		fe.remaining--
	}
	logrus.Tracef("btune: Inference category=%s", categoryLabel(cat))
	return cat, true
}

// Exhausted reports whether the front-end just ran out of its inference
// budget and has not yet produced a seed for the search state machine.
func (fe *FrontEnd) Exhausted() bool {
	return fe.artifact != nil && fe.remaining == 0 && !fe.seeded && len(fe.order) > 0
}

// MostPredicted computes the most frequently predicted category across
// the inference window and marks the front-end as seeded so it is only
// computed once per pipeline context. The second return value is false if
// no prediction was ever recorded.
func (fe *FrontEnd) MostPredicted() (Category, bool) {
	fe.seeded = true
	if len(fe.order) == 0 {
		return Category{}, false
	}

	counts := make([]float64, len(fe.order))
	bestIdx := 0
	for i, cat := range fe.order {
		counts[i] = float64(fe.histogram[cat])
		if counts[i] > counts[bestIdx] {
			bestIdx = i
		}
	}
	// Concentration of the histogram is only used for diagnostics: a
	// near-uniform histogram (low variance relative to its mean) means the
	// "most predicted" seed is a weak signal, worth a trace note. gonum's
	// sample variance divides by n-1, which is undefined for a single
	// category, so that case is reported as zero rather than NaN.
	mean := stat.Mean(counts, nil)
	var variance float64
	if len(counts) > 1 {
		variance = stat.Variance(counts, nil)
	}
	logrus.Tracef("btune: prediction histogram mean=%.2f variance=%.2f categories=%d", mean, variance, len(fe.order))

	return fe.order[bestIdx], true
}

func categoryLabel(c Category) string {
	return c.Codec.String() + "/" + c.Filter.String() + "/" + c.SplitMode.String()
}
