package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// filter holds lookup keys (canonical names and "*." wildcard keys) in a
// bits-and-blooms filter. Rebuilds add while checks may be in flight.
type filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key string) {
	f.mu.Lock()
	f.bf.AddString(key)
	f.mu.Unlock()
}

func (f *filter) MightContain(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(key)
}
