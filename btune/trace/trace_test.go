package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracer_RecordsAlwaysKept(t *testing.T) {
	tr := NewTracer(false)
	tr.Step(Record{Codec: "zstd", Winner: "W"})
	tr.Step(Record{Codec: "lz4", Winner: "-"})
	assert.Len(t, tr.Records(), 2)
	assert.Equal(t, "W", tr.Records()[0].Winner)
}

func TestTracer_DisabledTracerStillAccumulates(t *testing.T) {
	tr := NewTracer(false)
	for i := 0; i < 5; i++ {
		tr.Step(Record{Codec: "lz4"})
	}
	assert.Len(t, tr.Records(), 5)
}
