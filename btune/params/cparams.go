// Package params defines the candidate parameter tuple the tuner searches
// over and the codec/filter/split-mode vocabulary it draws from. It has no
// dependency on the rest of btune so that both the search state machine and
// the inference front-end can share one definition without an import cycle.
package params

import "fmt"

// Codec identifies a compression codec in the outer pipeline's codec table.
type Codec int

const (
	CodecBloscLZ Codec = iota
	CodecLZ4
	CodecLZ4HC
	CodecZlib
	CodecZstd
)

func (c Codec) String() string {
	switch c {
	case CodecBloscLZ:
		return "blosclz"
	case CodecLZ4:
		return "lz4"
	case CodecLZ4HC:
		return "lz4hc"
	case CodecZlib:
		return "zlib"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}

// Filter is the pre-transform applied before the codec runs.
type Filter int

const (
	FilterNoFilter Filter = iota
	FilterShuffle
	FilterBitShuffle
	FilterByteDelta
)

func (f Filter) String() string {
	switch f {
	case FilterNoFilter:
		return "nofilter"
	case FilterShuffle:
		return "shuffle"
	case FilterBitShuffle:
		return "bitshuffle"
	case FilterByteDelta:
		return "bytedelta"
	default:
		return fmt.Sprintf("filter(%d)", int(f))
	}
}

// SplitMode controls whether a chunk's blocks are split per type-size lane
// before compression.
type SplitMode int

const (
	SplitAuto SplitMode = iota
	SplitAlways
	SplitNever
)

func (s SplitMode) String() string {
	switch s {
	case SplitAuto:
		return "auto"
	case SplitAlways:
		return "always"
	case SplitNever:
		return "never"
	default:
		return fmt.Sprintf("split(%d)", int(s))
	}
}

const (
	// MinClevel and MaxClevel bound the admissible compression levels.
	MinClevel = 0
	MaxClevel = 9

	// MinShuffle and MinBitShuffle are the smallest admissible shuffle
	// block sizes for the respective filters; MaxShuffle bounds growth.
	MinShuffle    = 1 << 3 // 8
	MinBitShuffle = 1 << 2 // 4
	MaxShuffle    = 16
)

// CParams is a full candidate parameter tuple plus the measurements taken
// the last time it was tried and the monotone-direction flags the search
// state machine uses to decide which way to step next.
type CParams struct {
	Compcode   Codec
	Filter     Filter
	SplitMode  SplitMode
	Clevel     int
	Blocksize  int
	Shufflesize int

	NThreadsComp   int
	NThreadsDecomp int

	IncreasingClevel   bool
	IncreasingBlock    bool
	IncreasingShuffle  bool
	IncreasingNThreads bool

	Score  float64
	CRatio float64
	CTime  float64
	DTime  float64
}

// NewDefaultCParams returns a conservative starting tuple: shuffle filter, no
// split decision made yet, minimum clevel, single-threaded, shuffle size at
// its floor, and every monotone flag pointed "up".
func NewDefaultCParams(typesize int) CParams {
	shuffle := MinShuffle
	if typesize > 0 && typesize < shuffle {
		shuffle = typesize
	}
	return CParams{
		Compcode:           CodecBloscLZ,
		Filter:             FilterShuffle,
		SplitMode:          SplitAuto,
		Clevel:             MinClevel,
		Blocksize:          0,
		Shufflesize:        shuffle,
		NThreadsComp:       1,
		NThreadsDecomp:     1,
		IncreasingClevel:   true,
		IncreasingBlock:    true,
		IncreasingShuffle:  true,
		IncreasingNThreads: true,
	}
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ClampClevel keeps clevel within [MinClevel, MaxClevel].
func ClampClevel(clevel int) int {
	if clevel < MinClevel {
		return MinClevel
	}
	if clevel > MaxClevel {
		return MaxClevel
	}
	return clevel
}

// ClampThreads keeps a thread count within [1, maxThreads].
func ClampThreads(n, maxThreads int) int {
	if n < 1 {
		return 1
	}
	if n > maxThreads {
		return maxThreads
	}
	return n
}
