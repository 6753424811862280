// Package index answers "is this name listed?" over the current block and
// allow lists. Lookups go bloom -> cache -> entry map; rebuilds swap all
// three atomically.
package index

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/haukened/rr-listsync/internal/lists/common/utils"
	"github.com/haukened/rr-listsync/internal/lists/domain"
)

const wildcardPrefix = "*."

// ListRef names a list and its kind.
type ListRef struct {
	Name string
	Kind domain.ListKind
}

// Source is a parsed list to index.
type Source struct {
	ListRef
	File domain.ListFile
}

// Reader is the read half of the versioned list store.
type Reader interface {
	Read(ctx context.Context, path string) ([]string, domain.Version, error)
}

// Index is safe for concurrent lookups.
type Index struct {
	mu      sync.RWMutex
	entries map[string][]domain.Match // entry key -> first match per list
	bloom   BloomFilter
	cache   DecisionCache
	factory BloomFactory
	fpRate  float64
}

// New constructs an empty Index. fpRate is the target false-positive rate
// for the Bloom filter built on each rebuild.
func New(cache DecisionCache, factory BloomFactory, fpRate float64) *Index {
	return &Index{entries: map[string][]domain.Match{}, cache: cache, factory: factory, fpRate: fpRate}
}

// Load reads and parses each list from r, then rebuilds the index.
func (x *Index) Load(ctx context.Context, r Reader, lists ...ListRef) error {
	sources := make([]Source, 0, len(lists))
	for _, l := range lists {
		lines, _, err := r.Read(ctx, l.Name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", l.Name, err)
		}
		sources = append(sources, Source{ListRef: l, File: domain.ParseListFile(lines)})
	}
	x.Rebuild(sources...)
	return nil
}

// Rebuild replaces the indexed data with sources.
func (x *Index) Rebuild(sources ...Source) {
	entries := make(map[string][]domain.Match)
	for _, src := range sources {
		var added time.Time
		for _, l := range src.File.Lines {
			switch l.Kind {
			case domain.LineHeader:
				added = l.Date
			case domain.LineEntry:
				if hasList(entries[l.Key], src.Name) {
					continue
				}
				entries[l.Key] = append(entries[l.Key], domain.Match{
					List:     src.Name,
					Kind:     src.Kind,
					Entry:    l.Key,
					Added:    added,
					Wildcard: strings.HasPrefix(l.Key, wildcardPrefix),
				})
			}
		}
	}

	bf := x.factory.New(uint64(len(entries)), x.fpRate)
	for k := range entries {
		bf.Add(k)
	}

	x.mu.Lock()
	x.entries = entries
	x.bloom = bf
	x.cache.Purge()
	x.mu.Unlock()
}

// Lookup returns the decision for name. An allow match overrides a block match.
func (x *Index) Lookup(name string) domain.Decision {
	cn := utils.CanonicalName(name)
	keys := candidateKeys(cn)

	if !x.checkBloom(keys) {
		return domain.EmptyDecision(cn)
	}
	if d, ok := x.cache.Get(cn); ok {
		return d
	}
	dec := x.resolve(cn, keys)
	x.cache.Put(cn, dec)
	return dec
}

// Stats returns entry and cache counters.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	n := len(x.entries)
	x.mu.RUnlock()
	hits, misses, evictions := x.cache.Stats()
	return Stats{Entries: n, Hits: hits, Misses: misses, Evictions: evictions}
}

// candidateKeys lists the entry keys that cover cn, most specific first: the
// name itself, then a wildcard anchored at each ancestor above the public suffix.
func candidateKeys(cn string) []string {
	keys := []string{cn}
	a := strings.TrimPrefix(cn, wildcardPrefix)
	for {
		i := strings.IndexByte(a, '.')
		if i < 0 {
			break
		}
		a = a[i+1:]
		if a == "" || utils.IsPublicSuffix(a) {
			break
		}
		keys = append(keys, wildcardPrefix+a)
	}
	return keys
}

// checkBloom reports whether any candidate might be present. With no bloom
// loaded it returns true so the entry map stays authoritative.
func (x *Index) checkBloom(keys []string) bool {
	x.mu.RLock()
	bf := x.bloom
	x.mu.RUnlock()
	if bf == nil {
		return true
	}
	for _, k := range keys {
		if bf.MightContain(k) {
			return true
		}
	}
	return false
}

func (x *Index) resolve(cn string, keys []string) domain.Decision {
	x.mu.RLock()
	defer x.mu.RUnlock()

	dec := domain.EmptyDecision(cn)
	for _, k := range keys {
		for _, m := range x.entries[k] {
			switch {
			case m.Kind == domain.ListBlock && dec.Block == nil:
				dec.Block = &m
			case m.Kind == domain.ListAllow && dec.Allow == nil:
				dec.Allow = &m
			}
		}
	}
	return dec
}

func hasList(ms []domain.Match, list string) bool {
	for _, m := range ms {
		if m.List == list {
			return true
		}
	}
	return false
}
