package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CountsAndTextfile(t *testing.T) {
	r := New()
	r.RequestProcessed("closed")
	r.RequestProcessed("closed")
	r.RequestProcessed("rejected")
	r.DomainOutcome("nyan.rpz", "added")
	r.WriteConflict("whitelist.txt")

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "listsync_requests_total")
	assert.Contains(t, names, "listsync_domains_total")
	assert.Contains(t, names, "listsync_write_conflicts_total")

	path := filepath.Join(t.TempDir(), "listsync.prom")
	require.NoError(t, r.WriteTextfile(path, 1723550000))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `listsync_requests_total{result="closed"} 2`), text)
	assert.True(t, strings.Contains(text, `listsync_domains_total{list="nyan.rpz",outcome="added"} 1`), text)
	assert.True(t, strings.Contains(text, "listsync_last_run_timestamp_seconds "), text)
}

func TestRegistry_TextfileBadPath(t *testing.T) {
	r := New()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"), 0)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	n := NewNoop()
	n.RequestProcessed("closed")
	n.DomainOutcome("a", "b")
	n.WriteConflict("a")
}
