package inference

import (
	"fmt"

	modeltuner "github.com/llm-inferno/model-tuner"

	"github.com/Blosc/btune-go/btune/features"
)

// Artifact is a loaded per-dataset classifier: it turns a feature vector
// into a predicted Category. Implementations are read-only and own
// no per-call mutable state.
type Artifact interface {
	Predict(v features.Vector) (Category, error)
}

// modelTunerArtifact adapts github.com/llm-inferno/model-tuner's model
// handle to Artifact, resolving its integer class index through the
// category table declared in the models_dir's metadata file.
type modelTunerArtifact struct {
	model      *modeltuner.Model
	categories []Category
}

// loadArtifact scans dir for a model-tuner artifact and its metadata file.
// Any failure is wrapped in ErrModelMissing/ErrModelLoadError; the caller
// treats both as "inference unavailable", never as fatal.
func loadArtifact(dir string) (Artifact, error) {
	categories, err := loadMetadata(dir)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories declared in %s", ErrModelMissing, dir)
	}

	model, err := modeltuner.LoadModel(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoadError, err)
	}

	return &modelTunerArtifact{model: model, categories: categories}, nil
}

func (a *modelTunerArtifact) Predict(v features.Vector) (Category, error) {
	idx, err := a.model.Predict(v.Slice())
	if err != nil {
		return Category{}, fmt.Errorf("%w: %v", ErrModelLoadError, err)
	}
	if idx < 0 || idx >= len(a.categories) {
		return Category{}, fmt.Errorf("inference: predicted category index %d out of range [0,%d)", idx, len(a.categories))
	}
	return a.categories[idx], nil
}
