package index

import "github.com/haukened/rr-listsync/internal/lists/domain"

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is the minimal interface the index needs from Bloom filters.
type BloomFilter interface {
	Add(key string)
	MightContain(key string) bool
}

// BloomFactory creates BloomFilter instances sized for a dataset.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache caches decisions by canonical name with basic metrics.
type DecisionCache interface {
	Get(name string) (domain.Decision, bool)
	Put(name string, d domain.Decision)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// Stats exposes index-level counters.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}
