package utils

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// CanonicalName returns a name in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// NormalizeInput converts an operator-typed host, possibly internationalized,
// into its canonical ASCII form. A leading "*." is preserved.
func NormalizeInput(raw string) (string, error) {
	name := CanonicalName(raw)
	wildcard := strings.HasPrefix(name, "*.")
	name = strings.TrimPrefix(name, "*.")
	if name == "" {
		return "", fmt.Errorf("empty name")
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", fmt.Errorf("idna: %w", err)
	}
	if wildcard {
		return "*." + ascii, nil
	}
	return ascii, nil
}

// ApexDomain returns the registrable domain (eTLD+1) of name, or name itself
// when it has none.
func ApexDomain(name string) string {
	name = CanonicalName(strings.TrimPrefix(strings.TrimSpace(name), "*."))
	apex, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return name
	}
	return apex
}

// IsPublicSuffix reports whether name is itself a public suffix such as "com" or "co.uk".
func IsPublicSuffix(name string) bool {
	name = CanonicalName(name)
	if name == "" {
		return false
	}
	suffix, _ := publicsuffix.PublicSuffix(name)
	return suffix == name
}
