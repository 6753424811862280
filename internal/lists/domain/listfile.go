package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/haukened/rr-listsync/internal/lists/common/utils"
)

// DateLayout is the calendar date format used in block headers.
const DateLayout = "2006-01-02"

// headerPattern matches a date header line such as "# added: 2025-08-14".
var headerPattern = regexp.MustCompile(`^#\s*added:\s*(\d{4}-\d{2}-\d{2})\s*$`)

// Version is an opaque token identifying one revision of a list file.
// The empty Version denotes a file that does not exist yet.
type Version string

// ListKind selects the line form used for new entries.
type ListKind uint8

const (
	// ListBlock is the response-policy block list ("<domain> CNAME .").
	ListBlock ListKind = iota
	// ListAllow is the allow list (bare "<domain>").
	ListAllow
)

// String returns a stable string representation of the list kind.
func (k ListKind) String() string {
	switch k {
	case ListBlock:
		return "block"
	case ListAllow:
		return "allow"
	default:
		return fmt.Sprintf("ListKind(%d)", k)
	}
}

// EntryLine renders the line added to a list of this kind for d.
func (k ListKind) EntryLine(d Domain) string {
	if k == ListBlock {
		return d.Name + " CNAME ."
	}
	return d.Name
}

// LineKind classifies a parsed list line.
type LineKind uint8

const (
	LineBlank LineKind = iota
	LineComment
	LineHeader
	LineEntry
)

// Line is one line of a list file, classified once at parse time.
//
// Notes:
// - Raw is the line exactly as stored and is what gets written back.
// - Key is set for entries only: the case-folded first whitespace-delimited token.
// - Date is set for headers only.
type Line struct {
	Raw  string
	Kind LineKind
	Key  string
	Date time.Time
}

// ParseLine classifies a single raw line.
func ParseLine(raw string) Line {
	trimmed := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	switch {
	case trimmed == "":
		return Line{Raw: raw, Kind: LineBlank}
	case strings.HasPrefix(trimmed, "#"):
		if m := headerPattern.FindStringSubmatch(trimmed); m != nil {
			if d, err := time.Parse(DateLayout, m[1]); err == nil {
				return Line{Raw: raw, Kind: LineHeader, Date: d}
			}
		}
		return Line{Raw: raw, Kind: LineComment}
	default:
		return Line{Raw: raw, Kind: LineEntry, Key: utils.CanonicalName(strings.Fields(trimmed)[0])}
	}
}

// HeaderLine builds a date header line for day.
func HeaderLine(day time.Time) Line {
	d := Day(day)
	return Line{Raw: "# added: " + d.Format(DateLayout), Kind: LineHeader, Date: d}
}

// EntryLine builds an entry line for d in a list of the given kind.
func EntryLine(kind ListKind, d Domain) Line {
	return Line{Raw: kind.EntryLine(d), Kind: LineEntry, Key: d.Key()}
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ListFile is the parsed, in-memory form of a list file.
type ListFile struct {
	Lines []Line
}

// ParseListFile classifies every raw line of a list file.
func ParseListFile(raw []string) ListFile {
	lines := make([]Line, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, ParseLine(r))
	}
	return ListFile{Lines: lines}
}

// Raw returns the stored text of every line, in order.
func (f ListFile) Raw() []string {
	out := make([]string, 0, len(f.Lines))
	for _, l := range f.Lines {
		out = append(out, l.Raw)
	}
	return out
}

// Keys returns the set of entry keys present in the file.
func (f ListFile) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(f.Lines))
	for _, l := range f.Lines {
		if l.Kind == LineEntry {
			keys[l.Key] = struct{}{}
		}
	}
	return keys
}

// Equal reports whether both files render to the same text.
func (f ListFile) Equal(other ListFile) bool {
	if len(f.Lines) != len(other.Lines) {
		return false
	}
	for i := range f.Lines {
		if f.Lines[i].Raw != other.Lines[i].Raw {
			return false
		}
	}
	return true
}

// Block is a contiguous run of lines sharing one date header.
// The leading undated block has Dated == false and no header line.
type Block struct {
	Dated bool
	Date  time.Time
	Lines []Line // header first when Dated
}

// Blocks partitions the file into its undated leading block and its dated blocks.
// The undated block is always first, possibly empty.
func (f ListFile) Blocks() []Block {
	blocks := []Block{{}}
	for _, l := range f.Lines {
		if l.Kind == LineHeader {
			blocks = append(blocks, Block{Dated: true, Date: l.Date})
		}
		cur := &blocks[len(blocks)-1]
		cur.Lines = append(cur.Lines, l)
	}
	return blocks
}

// LastHeaderDate returns the date of the last header line, if any.
func (f ListFile) LastHeaderDate() (time.Time, bool) {
	for i := len(f.Lines) - 1; i >= 0; i-- {
		if f.Lines[i].Kind == LineHeader {
			return f.Lines[i].Date, true
		}
	}
	return time.Time{}, false
}
