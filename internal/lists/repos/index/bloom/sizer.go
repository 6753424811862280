package bloom

import (
	"math"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-listsync/internal/lists/repos/index"
)

// defaultFPRate applies when the configured rate is outside (0, 1).
const defaultFPRate = 0.01

// sizer implements index.BloomSizer. The bit count comes from the library
// estimate; the hash count is rounded rather than ceiled so that loose rates
// (p >= 0.5) settle on a single hash.
type sizer struct{}

// NewSizer returns a BloomSizer implementation.
func NewSizer() index.BloomSizer { return sizer{} }

func (sizer) Size(entries uint64, p float64) (uint64, uint8) {
	if entries == 0 {
		// an empty list still gets a usable filter
		entries = 1
	}
	if !(p > 0 && p < 1) {
		p = defaultFPRate
	}
	bits, _ := bitsbloom.EstimateParameters(uint(entries), p)
	if bits == 0 {
		bits = 1
	}
	hashes := math.Round(float64(bits) / float64(entries) * math.Ln2)
	return uint64(bits), uint8(math.Max(1, hashes))
}
