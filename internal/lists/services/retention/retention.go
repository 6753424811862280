// Package retention drops dated blocks that have aged out of a list.
package retention

import (
	"time"

	"github.com/haukened/rr-listsync/internal/lists/domain"
)

// DefaultMaxAgeDays is the retention window used when none is configured.
const DefaultMaxAgeDays = 30

// Cutoff returns the oldest header date that survives pruning on today.
// A negative window is treated as zero.
func Cutoff(today time.Time, maxAgeDays int) time.Time {
	if maxAgeDays < 0 {
		maxAgeDays = 0
	}
	return domain.Day(today).AddDate(0, 0, -maxAgeDays)
}

// Prune returns f without the dated blocks whose header date is before
// today minus maxAgeDays. The undated leading block is always kept and
// surviving blocks keep their order. Prune is pure and idempotent.
func Prune(f domain.ListFile, today time.Time, maxAgeDays int) domain.ListFile {
	cutoff := Cutoff(today, maxAgeDays)
	out := make([]domain.Line, 0, len(f.Lines))
	for _, b := range f.Blocks() {
		if b.Dated && b.Date.Before(cutoff) {
			continue
		}
		out = append(out, b.Lines...)
	}
	return domain.ListFile{Lines: out}
}

// Expired returns the entry keys Prune would drop, in file order.
func Expired(f domain.ListFile, today time.Time, maxAgeDays int) []string {
	cutoff := Cutoff(today, maxAgeDays)
	var keys []string
	for _, b := range f.Blocks() {
		if !b.Dated || !b.Date.Before(cutoff) {
			continue
		}
		for _, l := range b.Lines {
			if l.Kind == domain.LineEntry {
				keys = append(keys, l.Key)
			}
		}
	}
	return keys
}
