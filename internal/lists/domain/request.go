package domain

import (
	"fmt"
	"strings"
)

// Action is the list operation a request asks for.
type Action uint8

const (
	// ActionNone is the zero value carried by rejected requests.
	ActionNone Action = iota
	// ActionBlock adds domains to the block list.
	ActionBlock
	// ActionAllow adds domains to the allow list and removes them from the block list.
	ActionAllow
)

// String returns a stable string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionBlock:
		return "block"
	case ActionAllow:
		return "allow"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// Request titles recognised by the authorization policy.
const (
	TitleAbuse    = "[abuse]"
	TitleRecovery = "[recovery]"
)

// ActionFromTitle maps a request title to an action. Titles are trimmed and
// case-folded; anything other than the two recognised titles is rejected.
func ActionFromTitle(title string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(title)) {
	case TitleAbuse:
		return ActionBlock, true
	case TitleRecovery:
		return ActionAllow, true
	default:
		return ActionNone, false
	}
}

// Request is a single list change request supplied by a RequestReader.
// It is immutable and consumed once.
type Request struct {
	ID        int    // sequence id assigned by the request source
	Title     string // "[abuse]" or "[recovery]", case-insensitive
	Body      string // free-form text with one or more "domain:" declarations
	Requester string // identity of the user who filed the request
}

// Validate checks the fields every request must carry regardless of policy.
func (r Request) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("request id must be positive, got %d", r.ID)
	}
	if strings.TrimSpace(r.Requester) == "" {
		return fmt.Errorf("request %d has no requester", r.ID)
	}
	return nil
}
