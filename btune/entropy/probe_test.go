package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate_Deterministic(t *testing.T) {
	buf := make([]byte, 1024)
	for i := range buf {
		buf[i] = byte(i * 7 % 251)
	}
	bytes1, ratio1 := Estimate(buf)
	bytes2, ratio2 := Estimate(buf)
	assert.Equal(t, bytes1, bytes2)
	assert.Equal(t, ratio1, ratio2)
}

func TestEstimate_AllZeros_HighRatio(t *testing.T) {
	buf := make([]byte, 1024)
	_, ratio := Estimate(buf)
	assert.Greater(t, ratio, 25.0, "an all-zeros buffer should compress to near nothing")
}

func TestEstimate_RampPattern_ModestRatio(t *testing.T) {
	buf := make([]byte, 1024)
	for i := range buf {
		buf[i] = byte(i)
	}
	_, ratio := Estimate(buf)
	assert.GreaterOrEqual(t, ratio, 1.0)
}

func TestEstimate_Empty(t *testing.T) {
	bytes, ratio := Estimate(nil)
	assert.Equal(t, 0, bytes)
	assert.Equal(t, 1.0, ratio)
}

func TestEstimate_RandomLikeData_LowRatio(t *testing.T) {
	buf := make([]byte, 4096)
	seed := uint32(12345)
	for i := range buf {
		seed = seed*1664525 + 1013904223
		buf[i] = byte(seed >> 24)
	}
	_, ratio := Estimate(buf)
	assert.Less(t, ratio, 1.2, "pseudo-random data should barely compress")
}

func TestEstimateWithHashLog_TruncatesWindow(t *testing.T) {
	buf := make([]byte, 1<<16)
	bytesDefault, _ := EstimateWithHashLog(buf, HashLog)
	assert.Positive(t, bytesDefault)

	// Only the first 1<<HashLog bytes are scanned; the other three quarters
	// of the buffer are extrapolated at the scanned window's density.
	bytesWindow, _ := EstimateWithHashLog(buf[:1<<HashLog], HashLog)
	assert.Equal(t, 4*bytesWindow, bytesDefault)
}
