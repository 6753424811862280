package domain

import "fmt"

// OutcomeKind is the per-domain result of applying a request to a list.
type OutcomeKind uint8

const (
	OutcomeAdded OutcomeKind = iota
	OutcomeDuplicateSkipped
	OutcomeUnauthorizedSkipped
	OutcomeRemoved
	OutcomeAllowListedSkipped
)

// String returns a stable string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAdded:
		return "added"
	case OutcomeDuplicateSkipped:
		return "duplicate-skipped"
	case OutcomeUnauthorizedSkipped:
		return "unauthorized-skipped"
	case OutcomeRemoved:
		return "removed"
	case OutcomeAllowListedSkipped:
		return "allow-listed-skipped"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", k)
	}
}

// Outcome records what happened to one domain in one list.
type Outcome struct {
	Domain Domain
	Kind   OutcomeKind
	List   string // list file identifier
}

// Message renders the human-readable line reported back to the requester.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeAdded:
		return fmt.Sprintf("`%s` added to `%s`.", o.Domain, o.List)
	case OutcomeDuplicateSkipped:
		return fmt.Sprintf("`%s` is already present in `%s`, skipped.", o.Domain, o.List)
	case OutcomeUnauthorizedSkipped:
		return fmt.Sprintf("`%s` skipped: wildcard entries require an authorized requester.", o.Domain)
	case OutcomeRemoved:
		return fmt.Sprintf("`%s` removed from `%s`.", o.Domain, o.List)
	case OutcomeAllowListedSkipped:
		return fmt.Sprintf("`%s` is allow-listed, not added to `%s`.", o.Domain, o.List)
	default:
		return fmt.Sprintf("`%s`: %s", o.Domain, o.Kind)
	}
}

// Verdict is the result of authorizing a request. Exactly one of Rejection
// or (Action, Domains) is meaningful.
type Verdict struct {
	Action    Action
	Domains   []Domain
	Rejection *ValidationError
}

// Accepted reports whether the request passed every policy rule.
func (v Verdict) Accepted() bool { return v.Rejection == nil }

// Reject builds a rejected Verdict.
func Reject(err *ValidationError) Verdict { return Verdict{Rejection: err} }

// Accept builds an accepted Verdict.
func Accept(action Action, domains []Domain) Verdict {
	return Verdict{Action: action, Domains: domains}
}
