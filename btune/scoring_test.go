package btune

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Blosc/btune-go/btune/params"
)

func TestScore_CompOnlyCountsCTimeAndSize(t *testing.T) {
	s := Score(params.PerfComp, 1.0, 1024, 99.0, 1.0)
	assert.Equal(t, 1.0+1.0, s) // reduced=1024/1024=1, /bandwidth(1)=1
}

func TestScore_DecompOnlyCountsDTimeAndSize(t *testing.T) {
	s := Score(params.PerfDecomp, 99.0, 1024, 2.0, 1.0)
	assert.Equal(t, 1.0+2.0, s)
}

func TestScore_BalancedCountsEverything(t *testing.T) {
	s := Score(params.PerfBalanced, 1.0, 1024, 2.0, 1.0)
	assert.Equal(t, 1.0+1.0+2.0, s)
}

func TestCRatio(t *testing.T) {
	assert.Equal(t, 4.0, CRatio(4096, 1024))
	assert.Equal(t, 0.0, CRatio(4096, 0))
}

func TestHasImproved_HighCR_RequiresOnlyBetterRatio(t *testing.T) {
	assert.True(t, HasImproved(params.BandHighCR, 10, 5, 1.0, 1.5))
	assert.False(t, HasImproved(params.BandHighCR, 10, 5, 1.5, 1.0))
}

func TestHasImproved_LowCR_FastButWorseRatioCanWin(t *testing.T) {
	// score_coef = best/new = 10/4 = 2.5 > 2, cratio_coef = 0.6 > 0.5
	assert.True(t, HasImproved(params.BandLowCR, 10, 4, 1.0, 0.6))
}

func TestHasImproved_NeverOnTie(t *testing.T) {
	assert.False(t, HasImproved(params.BandBalanced, 10, 10, 1.0, 1.0))
}

func TestHasImprovedOnAxis_ThreadsForComp(t *testing.T) {
	assert.True(t, HasImprovedOnAxis(true, 2.0, 1.0, 5.0, 5.0))
	assert.False(t, HasImprovedOnAxis(true, 2.0, 2.0, 5.0, 1.0))
}

func TestHasImprovedOnAxis_ThreadsForDecomp(t *testing.T) {
	assert.True(t, HasImprovedOnAxis(false, 2.0, 2.0, 5.0, 3.0))
}

func TestIsSpecialChunk(t *testing.T) {
	assert.True(t, IsSpecialChunk(headerOverhead+4, 4))
	assert.False(t, IsSpecialChunk(headerOverhead+100, 4))
}
