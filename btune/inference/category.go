package inference

import "github.com/Blosc/btune-go/btune/params"

// Category is the discrete parameter tuple a trained classifier predicts
// for a chunk: codec, filter, split mode and compression level. It
// excludes thread counts and shuffle size, which the search state machine
// still tunes after inference seeds it.
type Category struct {
	Codec     params.Codec
	Filter    params.Filter
	SplitMode params.SplitMode
	Clevel    int
}
