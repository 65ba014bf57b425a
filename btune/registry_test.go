package btune

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRegistry) RegisterEncoder(id int, name string, encode func(src []byte) int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func TestRegisterEntropyProbe_NilRegistryDoesNotConsumeOnce(t *testing.T) {
	registerEntropyProbeOnce = sync.Once{}
	defer func() { registerEntropyProbeOnce = sync.Once{} }()

	RegisterEntropyProbe(nil)

	reg := &fakeRegistry{}
	RegisterEntropyProbe(reg)
	assert.Equal(t, 1, reg.calls, "a nil registry must not burn the one-shot registration for a later real one")
}

func TestRegisterEntropyProbe_RegistersExactlyOnce(t *testing.T) {
	registerEntropyProbeOnce = sync.Once{}
	defer func() { registerEntropyProbeOnce = sync.Once{} }()

	regA := &fakeRegistry{}
	regB := &fakeRegistry{}
	RegisterEntropyProbe(regA)
	RegisterEntropyProbe(regB)

	require.Equal(t, 1, regA.calls)
	assert.Equal(t, 0, regB.calls, "the second Tuner's registry must not be touched once the first registered")
}
