package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-listsync/internal/lists/domain"
	"github.com/haukened/rr-listsync/internal/lists/repos/index"
)

// decisionCache is an LRU-backed index.DecisionCache tracking hits, misses
// and evictions.
type decisionCache struct {
	lru       *lru.Cache[string, domain.Decision]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache always misses; used when size <= 0.
type disabledCache struct{}

// newLRU is swapped in tests.
var newLRU = func(size int, onEvict func(string, domain.Decision)) (*lru.Cache[string, domain.Decision], error) {
	return lru.NewWithEvict(size, onEvict)
}

// New creates a DecisionCache with the given capacity, or a disabled cache
// when size <= 0.
func New(size int) (index.DecisionCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}
	dc := &decisionCache{}
	cache, err := newLRU(size, func(string, domain.Decision) {
		atomic.AddUint64(&dc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	dc.lru = cache
	return dc, nil
}

func (c *decisionCache) Get(name string) (domain.Decision, bool) {
	if val, ok := c.lru.Get(name); ok {
		atomic.AddUint64(&c.hits, 1)
		return val, true
	}
	atomic.AddUint64(&c.misses, 1)
	return domain.Decision{}, false
}

func (c *decisionCache) Put(name string, d domain.Decision) { c.lru.Add(name, d) }

func (c *decisionCache) Len() int { return c.lru.Len() }

// Purge clears all entries; each counts as an eviction.
func (c *decisionCache) Purge() { c.lru.Purge() }

func (c *decisionCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

func (d *disabledCache) Get(string) (domain.Decision, bool) { return domain.Decision{}, false }

func (d *disabledCache) Put(string, domain.Decision) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ index.DecisionCache = (*decisionCache)(nil)
var _ index.DecisionCache = (*disabledCache)(nil)
