package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_PopulatesAllFields(t *testing.T) {
	ex := NewExtractor()
	chunk := make([]byte, 256)
	for i := range chunk {
		chunk[i] = byte(i % 17)
	}
	v := ex.Extract(chunk, 4)
	assert.Equal(t, 4, v.TypeSize)
	assert.Equal(t, 256, v.ChunkSize)
	assert.Greater(t, v.EntropyCRatio, 0.0)
	assert.Greater(t, v.ArangeSpeed, 0.0)
	assert.Greater(t, v.ZerosSpeed, 0.0)
}

func TestExtract_ReferenceSpeedsCachedPerSize(t *testing.T) {
	ex := NewExtractor()
	chunk := make([]byte, 128)
	v1 := ex.Extract(chunk, 4)
	v2 := ex.Extract(chunk, 4)
	assert.Equal(t, v1.ArangeSpeed, v2.ArangeSpeed)
	assert.Equal(t, v1.ZerosSpeed, v2.ZerosSpeed)
}

func TestVector_Slice_Layout(t *testing.T) {
	v := Vector{EntropyCRatio: 1.5, ArangeSpeed: 100, ZerosSpeed: 200, TypeSize: 4, ChunkSize: 64}
	s := v.Slice()
	assert.Equal(t, []float64{1.5, 100, 200, 4, 64}, s)
}
