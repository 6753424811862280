// Package policy decides whether a request may change the lists at all.
package policy

import (
	"strings"

	"github.com/haukened/rr-listsync/internal/lists/domain"
	"github.com/haukened/rr-listsync/internal/lists/services/extract"
)

// Sets holds the injected authorization sets. Identities compare
// case-insensitively.
type Sets struct {
	Banned    []string // requesters whose requests are always rejected
	Recovery  []string // requesters allowed to file [recovery] (allow) requests
	Wildcards []string // requesters allowed to declare "*." domains
}

// Policy evaluates requests against a fixed set of authorization rules.
type Policy struct {
	banned    map[string]struct{}
	recovery  map[string]struct{}
	wildcards map[string]struct{}
}

// New builds a Policy from the given sets.
func New(s Sets) *Policy {
	return &Policy{
		banned:    toSet(s.Banned),
		recovery:  toSet(s.Recovery),
		wildcards: toSet(s.Wildcards),
	}
}

// Evaluate applies the rules in order; the first failing rule decides.
//
//  1. banned requester
//  2. title must be [abuse] (block) or [recovery] (allow)
//  3. allow requires a recovery-authorized requester
//  4. at least one declared domain
//  5. any wildcard requires a wildcard-authorized requester; one unauthorized
//     wildcard rejects the whole request
func (p *Policy) Evaluate(requester, title, body string) domain.Verdict {
	if p.IsBanned(requester) {
		return domain.Reject(domain.NewValidationError(domain.ReasonBanned,
			"user %q is not allowed to file requests", requester))
	}

	action, ok := domain.ActionFromTitle(title)
	if !ok {
		return domain.Reject(domain.NewValidationError(domain.ReasonBadTitle,
			"title must be %q or %q, got %q", domain.TitleAbuse, domain.TitleRecovery, strings.TrimSpace(title)))
	}

	if action == domain.ActionAllow && !p.CanRecover(requester) {
		return domain.Reject(domain.NewValidationError(domain.ReasonUnauthorizedAction,
			"user %q is not allowed to file %s requests", requester, domain.TitleRecovery))
	}

	domains := extract.Domains(body)
	if len(domains) == 0 {
		return domain.Reject(domain.NewValidationError(domain.ReasonNoDomains,
			"no \"domain: <host>\" declaration found"))
	}

	if !p.CanWildcard(requester) {
		for _, d := range domains {
			if d.IsWildcard() {
				return domain.Reject(domain.NewValidationError(domain.ReasonUnauthorizedWildcard,
					"user %q is not allowed to submit wildcard domain %q", requester, d.Name))
			}
		}
	}

	return domain.Accept(action, domains)
}

// EvaluateRequest is Evaluate for a whole request.
func (p *Policy) EvaluateRequest(r domain.Request) domain.Verdict {
	if err := r.Validate(); err != nil {
		return domain.Reject(domain.NewValidationError(domain.ReasonMalformed, "%v", err))
	}
	return p.Evaluate(r.Requester, r.Title, r.Body)
}

// IsBanned reports whether requester is in the banned set.
func (p *Policy) IsBanned(requester string) bool { return has(p.banned, requester) }

// CanRecover reports whether requester may file allow requests.
func (p *Policy) CanRecover(requester string) bool { return has(p.recovery, requester) }

// CanWildcard reports whether requester may add wildcard entries.
func (p *Policy) CanWildcard(requester string) bool { return has(p.wildcards, requester) }

func toSet(users []string) map[string]struct{} {
	set := make(map[string]struct{}, len(users))
	for _, u := range users {
		if u = normalize(u); u != "" {
			set[u] = struct{}{}
		}
	}
	return set
}

func has(set map[string]struct{}, user string) bool {
	_, ok := set[normalize(user)]
	return ok
}

func normalize(user string) string {
	return strings.ToLower(strings.TrimSpace(user))
}
