package domain

import (
	"fmt"
	"strings"

	"github.com/haukened/rr-listsync/internal/lists/common/utils"
)

// wildcardPrefix marks a declared domain that covers every subdomain of its base.
const wildcardPrefix = "*."

// Domain is a hostname declared in a request, kept exactly as written.
// A wildcard and its base domain are distinct entities.
type Domain struct {
	Name string
}

// NewDomain constructs a Domain from a raw declaration.
func NewDomain(name string) (Domain, error) {
	d := Domain{Name: strings.TrimSpace(name)}
	if err := d.Validate(); err != nil {
		return Domain{}, err
	}
	return d, nil
}

// Validate checks that the domain carries a non-empty name with at least two labels.
func (d Domain) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("domain name must not be empty")
	}
	base := strings.TrimPrefix(d.Name, wildcardPrefix)
	if !strings.Contains(strings.Trim(base, "."), ".") {
		return fmt.Errorf("domain %q must have at least two labels", d.Name)
	}
	return nil
}

// IsWildcard reports whether the domain was declared with a "*." prefix.
func (d Domain) IsWildcard() bool { return strings.HasPrefix(d.Name, wildcardPrefix) }

// Key returns the comparison key: lower-cased with trailing dots removed.
func (d Domain) Key() string { return utils.CanonicalName(d.Name) }

// String returns the name as declared.
func (d Domain) String() string { return d.Name }

// Names returns the declared names of the given domains, in order.
func Names(ds []Domain) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}
