package inference

import "errors"

// Sentinel errors for the inference front-end's non-fatal failure modes:
// a missing or unloadable model never aborts the tuner, it only
// disables inference for the current pipeline context.
var (
	ErrModelMissing   = errors.New("inference: model artifact missing")
	ErrModelLoadError = errors.New("inference: model artifact failed to load")
)
