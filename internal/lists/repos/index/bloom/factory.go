package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-listsync/internal/lists/repos/index"
)

// factory implements index.BloomFactory using internal sizing formulas.
type factory struct{}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() index.BloomFactory { return factory{} }

// New constructs a filter sized for the given capacity and target false-positive rate.
func (factory) New(capacity uint64, fpRate float64) index.BloomFilter {
	m, k := NewSizer().Size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
