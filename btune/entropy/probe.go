// Package entropy implements a fast, lossy LZ-style compressed-size
// estimator. It never produces compressed bytes; it only predicts how many
// bytes a generic byte-oriented LZ codec would need, which is cheap enough
// to run once per chunk as a feature and as a "special chunk" detector.
package entropy

import "encoding/binary"

const (
	// HashLog is the default log2 size of the position hash table.
	HashLog = 14

	// MaxCopy bounds a literal run before a new run (and its header byte)
	// starts.
	MaxCopy = 32

	// MaxFarDistance is the farthest backreference distance the probe will
	// consider a candidate match; beyond it, a hit is accounted as a
	// literal instead.
	MaxFarDistance = 65535 + 8191 - 1

	// MinMatchLen is the shortest run the probe will account as a match
	// rather than literals.
	MinMatchLen = 3

	hashMultiplier = 2654435761
)

// Estimate runs the probe with the default hash table size and returns the
// estimated compressed size in bytes and the implied ratio
// (len(src) / estimated bytes). An empty input estimates to zero bytes and
// a ratio of 1.0.
func Estimate(src []byte) (estimatedBytes int, cratio float64) {
	return EstimateWithHashLog(src, HashLog)
}

// EstimateWithHashLog is Estimate with an explicit hash log, exposed so
// callers can choose the window size; inputs longer than 1<<hashLog bytes
// are scanned only up to the window and the rest is extrapolated.
func EstimateWithHashLog(src []byte, hashLog uint) (int, float64) {
	n := len(src)
	if n == 0 {
		return 0, 1.0
	}

	hashLen := 1 << hashLog
	scanLen := n
	if scanLen > hashLen {
		scanLen = hashLen
	}

	table := make([]uint32, hashLen)
	output := 0
	litRun := 0

	accountLiteral := func() {
		if litRun == 0 {
			output++ // new run header byte
		}
		output++ // the literal byte itself
		litRun++
		if litRun >= MaxCopy {
			litRun = 0
		}
	}

	pos := 0
	for pos+4 <= scanLen {
		word := binary.LittleEndian.Uint32(src[pos:])
		key := hashKey(word, hashLog)
		ref := int(table[key])
		table[key] = uint32(pos)
		distance := pos - ref

		if distance == 0 || distance >= MaxFarDistance || !match4(src, ref, pos) {
			accountLiteral()
			pos++
			continue
		}

		matchLen := extendMatch(src, ref, pos, scanLen)
		if matchLen < MinMatchLen {
			accountLiteral()
			pos++
			continue
		}

		litRun = 0
		headerBytes := 2
		if distance >= 1<<16 {
			headerBytes = 4
		}
		output += headerBytes
		if matchLen >= 7 {
			output += (matchLen - 7 + 254) / 255
		}
		pos += matchLen
	}

	// Tail shorter than a 4-byte window: all literal.
	for ; pos < scanLen; pos++ {
		accountLiteral()
	}
	// Truncated remainder (n > hashLen) is not scanned; approximate its
	// cost at the same average output density (estimated bytes per input
	// byte) observed over the scanned window.
	if n > scanLen && output > 0 {
		density := float64(output) / float64(scanLen)
		output += int(density * float64(n-scanLen))
	}

	if output == 0 {
		output = 1
	}
	return output, float64(n) / float64(output)
}

func hashKey(word uint32, hashLog uint) uint32 {
	return (word * hashMultiplier) >> (32 - hashLog)
}

func match4(src []byte, ref, pos int) bool {
	if ref+4 > len(src) || pos+4 > len(src) {
		return false
	}
	return binary.LittleEndian.Uint32(src[ref:]) == binary.LittleEndian.Uint32(src[pos:])
}

// extendMatch greedily extends a confirmed 4-byte match in 8-byte strides,
// falling back to a byte-wise compare for the remainder.
func extendMatch(src []byte, ref, pos, limit int) int {
	matchLen := 0
	maxLen := limit - pos
	if refMax := len(src) - ref; refMax < maxLen {
		maxLen = refMax
	}
	for matchLen+8 <= maxLen {
		a := binary.LittleEndian.Uint64(src[ref+matchLen:])
		b := binary.LittleEndian.Uint64(src[pos+matchLen:])
		if a != b {
			break
		}
		matchLen += 8
	}
	for matchLen < maxLen && src[ref+matchLen] == src[pos+matchLen] {
		matchLen++
	}
	return matchLen
}
