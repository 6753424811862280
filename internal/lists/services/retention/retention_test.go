package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/rr-listsync/internal/lists/domain"
)

var today = time.Date(2025, 8, 14, 9, 30, 0, 0, time.UTC)

func header(daysAgo int) string {
	return domain.HeaderLine(today.AddDate(0, 0, -daysAgo)).Raw
}

func TestPrune_DropsOldBlocksKeepsRecent(t *testing.T) {
	f := domain.ParseListFile([]string{
		"legacy.example CNAME .",
		header(45),
		"old1.example CNAME .",
		"old2.example CNAME .",
		header(10),
		"recent.example CNAME .",
		"# note kept with its block",
	})

	got := Prune(f, today, 30).Raw()

	assert.Equal(t, []string{
		"legacy.example CNAME .",
		header(10),
		"recent.example CNAME .",
		"# note kept with its block",
	}, got)
}

func TestPrune_BoundaryIsInclusive(t *testing.T) {
	f := domain.ParseListFile([]string{header(31), "a.example", header(30), "b.example"})
	assert.Equal(t, []string{header(30), "b.example"}, Prune(f, today, 30).Raw())
}

func TestPrune_UndatedBlockNeverPruned(t *testing.T) {
	f := domain.ParseListFile([]string{"# legacy", "a.example", "b.example"})
	assert.Equal(t, f.Raw(), Prune(f, today, 0).Raw())
}

func TestPrune_Idempotent(t *testing.T) {
	f := domain.ParseListFile([]string{
		"z.example",
		header(90), "a.example",
		header(60), "b.example",
		header(29), "c.example",
		header(0), "d.example",
	})
	for _, age := range []int{0, 1, 30, 59, 60, 61, 365} {
		once := Prune(f, today, age)
		twice := Prune(once, today, age)
		assert.True(t, once.Equal(twice), "age %d not idempotent", age)
	}
}

func TestPrune_DoesNotMutateInput(t *testing.T) {
	raw := []string{header(45), "a.example"}
	f := domain.ParseListFile(raw)
	_ = Prune(f, today, 30)
	assert.Equal(t, raw, f.Raw())
}

func TestPrune_NegativeAgeTreatedAsZero(t *testing.T) {
	f := domain.ParseListFile([]string{header(1), "a.example", header(0), "b.example"})
	assert.Equal(t, []string{header(0), "b.example"}, Prune(f, today, -5).Raw())
}

func TestExpired(t *testing.T) {
	f := domain.ParseListFile([]string{"keep.example", header(45), "Old.Example CNAME .", header(3), "new.example"})
	assert.Equal(t, []string{"old.example"}, Expired(f, today, 30))
	assert.Empty(t, Expired(f, today, 365))
}

func TestExpired_AgreesWithPruneOnNegativeAge(t *testing.T) {
	f := domain.ParseListFile([]string{header(1), "a.example", header(0), "b.example"})
	assert.Equal(t, []string{"a.example"}, Expired(f, today, -5))
	assert.Equal(t, Cutoff(today, 0), Cutoff(today, -5))
}
