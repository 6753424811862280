package lru

import (
	"errors"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-listsync/internal/lists/domain"
)

func blocked(name string) domain.Decision {
	return domain.Decision{Name: name, Block: &domain.Match{List: "nyan.rpz", Entry: name}}
}

func TestDecisionCache_HitMissAndPut(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	_, ok := c.Get("evil.example")
	assert.False(t, ok)

	c.Put("evil.example", blocked("evil.example"))
	got, ok := c.Get("evil.example")
	require.True(t, ok)
	assert.True(t, got.IsBlocked())

	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestDecisionCache_EvictionAndPurge(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Put("a.example", blocked("a.example"))
	c.Put("b.example", blocked("b.example"))
	c.Put("c.example", blocked("c.example"))
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	_, _, evictions := c.Stats()
	assert.Equal(t, uint64(3), evictions)
}

func TestDecisionCache_Disabled(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	c.Put("x.example", blocked("x.example"))
	_, ok := c.Get("x.example")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Purge()
	h, m, e := c.Stats()
	assert.Zero(t, h+m+e)
}

func TestNew_Error(t *testing.T) {
	orig := newLRU
	t.Cleanup(func() { newLRU = orig })
	newLRU = func(int, func(string, domain.Decision)) (*lru.Cache[string, domain.Decision], error) {
		return nil, errors.New("cache creation error")
	}
	_, err := New(1)
	assert.Error(t, err)
}
