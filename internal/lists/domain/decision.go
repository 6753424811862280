package domain

import "time"

// Match is one list entry that covers a looked-up name.
type Match struct {
	List     string    // list identifier, e.g. "nyan.rpz"
	Kind     ListKind  // block or allow
	Entry    string    // matching entry key; "*.x" for wildcard coverage
	Added    time.Time // date of the enclosing block; zero when undated
	Wildcard bool
}

// Decision is the outcome of looking a name up in both lists.
// Pure value type, no external dependencies.
type Decision struct {
	Name  string
	Block *Match
	Allow *Match
}

// IsBlocked reports whether the name is block-listed and not allow-listed.
func (d Decision) IsBlocked() bool { return d.Block != nil && d.Allow == nil }

// IsAllowed reports whether an allow entry covers the name.
func (d Decision) IsAllowed() bool { return d.Allow != nil }

// Status is a one-word summary: "allowed", "blocked" or "unlisted".
func (d Decision) Status() string {
	switch {
	case d.IsAllowed():
		return "allowed"
	case d.IsBlocked():
		return "blocked"
	default:
		return "unlisted"
	}
}

// EmptyDecision returns a decision with no matches.
func EmptyDecision(name string) Decision { return Decision{Name: name} }
