// Package merge applies additions and removals to the in-memory form of a list.
package merge

import (
	"time"

	"github.com/haukened/rr-listsync/internal/lists/domain"
)

// Target identifies the list being changed.
type Target struct {
	Name string          // stable list identifier, e.g. "nyan.rpz"
	Kind domain.ListKind // selects the entry line form
	// Allowed holds keys that must never be added to this list: the allow
	// list's keys when the block list is the target.
	Allowed map[string]struct{}
}

// Merge appends candidates to f under today's date block.
//
// For each candidate, in order:
//   - wildcard and not privileged: unauthorized-skipped
//   - key in target.Allowed: allow-listed-skipped
//   - key already present (including earlier candidates): duplicate-skipped
//   - otherwise: appended and added
//
// Merge never removes or reorders existing lines. One outcome is returned
// per candidate, skipped ones included.
func Merge(f domain.ListFile, candidates []domain.Domain, target Target, privileged bool, today time.Time) (domain.ListFile, []domain.Outcome) {
	present := f.Keys()
	outcomes := make([]domain.Outcome, 0, len(candidates))
	var added []domain.Line

	for _, d := range candidates {
		o := domain.Outcome{Domain: d, List: target.Name}
		switch {
		case d.IsWildcard() && !privileged:
			o.Kind = domain.OutcomeUnauthorizedSkipped
		case contains(target.Allowed, d.Key()):
			o.Kind = domain.OutcomeAllowListedSkipped
		case contains(present, d.Key()):
			o.Kind = domain.OutcomeDuplicateSkipped
		default:
			o.Kind = domain.OutcomeAdded
			added = append(added, domain.EntryLine(target.Kind, d))
			present[d.Key()] = struct{}{}
		}
		outcomes = append(outcomes, o)
	}

	if len(added) == 0 {
		return copyFile(f), outcomes
	}
	return appendToDay(f, added, today), outcomes
}

// Remove drops every entry whose key matches one of domains. It reports one
// removed outcome per distinct domain that matched at least one line.
func Remove(f domain.ListFile, domains []domain.Domain, target Target) (domain.ListFile, []domain.Outcome) {
	drop := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		drop[d.Key()] = struct{}{}
	}

	hit := make(map[string]struct{})
	out := make([]domain.Line, 0, len(f.Lines))
	for _, l := range f.Lines {
		if l.Kind == domain.LineEntry && contains(drop, l.Key) {
			hit[l.Key] = struct{}{}
			continue
		}
		out = append(out, l)
	}

	var outcomes []domain.Outcome
	reported := make(map[string]struct{}, len(hit))
	for _, d := range domains {
		k := d.Key()
		if !contains(hit, k) || contains(reported, k) {
			continue
		}
		reported[k] = struct{}{}
		outcomes = append(outcomes, domain.Outcome{Domain: d, Kind: domain.OutcomeRemoved, List: target.Name})
	}
	return domain.ListFile{Lines: out}, outcomes
}

// appendToDay places lines at the end of today's dated block, creating the
// block at the end of the file when there is none. Header dates never go
// backwards: when the last header is dated after today, lines join that block.
func appendToDay(f domain.ListFile, lines []domain.Line, today time.Time) domain.ListFile {
	day := domain.Day(today)
	at, last := -1, -1
	for i, l := range f.Lines {
		if l.Kind != domain.LineHeader {
			continue
		}
		last = i
		if l.Date.Equal(day) {
			at = blockEnd(f.Lines, i)
		}
	}
	if at < 0 && last >= 0 {
		if latest, _ := f.LastHeaderDate(); latest.After(day) {
			at = blockEnd(f.Lines, last)
		}
	}

	out := make([]domain.Line, 0, len(f.Lines)+len(lines)+1)
	if at < 0 {
		out = append(out, f.Lines...)
		out = append(out, domain.HeaderLine(day))
		out = append(out, lines...)
		return domain.ListFile{Lines: out}
	}
	out = append(out, f.Lines[:at]...)
	out = append(out, lines...)
	out = append(out, f.Lines[at:]...)
	return domain.ListFile{Lines: out}
}

// blockEnd returns the index just past the block whose header is at start,
// ignoring trailing blank lines so they stay between blocks.
func blockEnd(lines []domain.Line, start int) int {
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if lines[i].Kind == domain.LineHeader {
			end = i
			break
		}
	}
	for end > start+1 && lines[end-1].Kind == domain.LineBlank {
		end--
	}
	return end
}

func copyFile(f domain.ListFile) domain.ListFile {
	out := make([]domain.Line, len(f.Lines))
	copy(out, f.Lines)
	return domain.ListFile{Lines: out}
}

func contains(set map[string]struct{}, k string) bool {
	_, ok := set[k]
	return ok
}
