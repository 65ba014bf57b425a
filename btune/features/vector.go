// Package features reduces a chunk to the fixed-size feature vector the
// inference front-end feeds to its classifier: an entropy-probe ratio, two
// one-shot reference speeds, and the chunk's shape.
package features

import (
	"sync"
	"time"

	"github.com/Blosc/btune-go/btune/entropy"
	"github.com/Blosc/btune-go/internal/smoothing"
)

// Vector is the fixed-length feature vector extracted from a chunk.
type Vector struct {
	EntropyCRatio float64
	ArangeSpeed   float64 // bytes/second
	ZerosSpeed    float64 // bytes/second
	TypeSize      int
	ChunkSize     int
}

// Slice returns the vector as a flat []float64, the layout the model-tuner
// classifier expects.
func (v Vector) Slice() []float64 {
	return []float64{v.EntropyCRatio, v.ArangeSpeed, v.ZerosSpeed, float64(v.TypeSize), float64(v.ChunkSize)}
}

// Extractor computes feature vectors for a stream of chunks from one
// pipeline context. The two reference speeds are expensive relative to the
// entropy probe itself (they each run the probe over a synthetic
// same-sized chunk), so they are cached for the most recent chunk size and
// recomputed only when the size changes, and smoothed across those
// recomputations with a Kalman estimator to damp wall-clock jitter in the
// timing measurement.
type Extractor struct {
	mu           sync.Mutex
	cachedSize   int
	haveCache    bool
	arangeSpeed  float64
	zerosSpeed   float64
	arangeSmooth *smoothing.Estimator
	zerosSmooth  *smoothing.Estimator
}

// NewExtractor returns a ready-to-use Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		arangeSmooth: smoothing.NewEstimator(),
		zerosSmooth:  smoothing.NewEstimator(),
	}
}

// Extract computes the feature vector for chunk, given its element type
// size in bytes.
func (e *Extractor) Extract(chunk []byte, typesize int) Vector {
	_, cratio := entropy.Estimate(chunk)
	arangeSpeed, zerosSpeed := e.referenceSpeeds(len(chunk))
	return Vector{
		EntropyCRatio: cratio,
		ArangeSpeed:   arangeSpeed,
		ZerosSpeed:    zerosSpeed,
		TypeSize:      typesize,
		ChunkSize:     len(chunk),
	}
}

// referenceSpeeds returns the arange/zeros reference speeds for chunks of
// size n, computing and smoothing them when n differs from the previous
// call's size and returning the cached value while it stays the same.
func (e *Extractor) referenceSpeeds(n int) (arangeSpeed, zerosSpeed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.haveCache && e.cachedSize == n {
		return e.arangeSpeed, e.zerosSpeed
	}
	rawArange := measureSpeed(arangeChunk(n))
	rawZeros := measureSpeed(zerosChunk(n))
	e.arangeSpeed = e.arangeSmooth.Observe(rawArange)
	e.zerosSpeed = e.zerosSmooth.Observe(rawZeros)
	e.cachedSize = n
	e.haveCache = true
	return e.arangeSpeed, e.zerosSpeed
}

// measureSpeed runs the entropy probe over buf and returns bytes/second,
// standing in for the "magic instrumentation path" the outer pipeline
// would otherwise provide for a real codec.
func measureSpeed(buf []byte) float64 {
	start := time.Now()
	entropy.Estimate(buf)
	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return float64(len(buf)) * 1e6 // effectively instantaneous
	}
	return float64(len(buf)) / elapsed
}

func arangeChunk(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

func zerosChunk(n int) []byte {
	return make([]byte, n)
}
