package btune

import (
	"sync"

	"github.com/Blosc/btune-go/btune/entropy"
)

// EntropyProbeCodecID and EntropyProbeCodecName are the reserved codec
// identity the entropy probe registers under.
const (
	EntropyProbeCodecID   = 244
	EntropyProbeCodecName = "entropy_probe"
)

// CodecRegistry is the pipeline-global codec table the tuner registers
// the entropy probe into. The real table (codec kernels, their encoders
// and decoders) is out of scope; this interface is the seam a host
// pipeline implements.
type CodecRegistry interface {
	RegisterEncoder(id int, name string, encode func(src []byte) (estimatedSize int)) error
}

var registerEntropyProbeOnce sync.Once

// RegisterEntropyProbe registers the entropy probe's encoder into reg
// exactly once per process, regardless of how many Tuners are
// constructed across however many pipeline contexts. A nil registry is a
// no-op that does not consume the one-time registration, which lets
// tests and the CLI harness run without a real pipeline and still
// register cleanly once a real one shows up.
func RegisterEntropyProbe(reg CodecRegistry) {
	if reg == nil {
		return
	}
	registerEntropyProbeOnce.Do(func() {
		_ = reg.RegisterEncoder(EntropyProbeCodecID, EntropyProbeCodecName, func(src []byte) int {
			n, _ := entropy.Estimate(src)
			return n
		})
	})
}
