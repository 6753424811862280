// Package extract finds "domain:" declarations in free-form request text.
package extract

import (
	"regexp"

	"github.com/haukened/rr-listsync/internal/lists/domain"
)

// declPattern implements the declaration grammar:
//
//	(start-of-line | whitespace) "domain:" [" "] ["*."] label ("." label)+
//
// where label is 1-63 of [A-Za-z0-9-]. RE2 has no lookahead, so a match whose
// last label continues past 63 characters is discarded by Domains.
var declPattern = regexp.MustCompile(`(?im)(?:^|\s)domain: ?((?:\*\.)?[a-z0-9-]{1,63}(?:\.[a-z0-9-]{1,63})+)`)

// Domains returns every declared domain in body, in order, duplicates included.
// Names are returned exactly as written; no case folding or trailing-dot removal.
// An empty result is not an error here.
func Domains(body string) []domain.Domain {
	var out []domain.Domain
	for _, m := range declPattern.FindAllStringSubmatchIndex(body, -1) {
		start, end := m[2], m[3]
		if end < len(body) && isLabelByte(body[end]) {
			// the last label ran past 63 characters
			continue
		}
		d, err := domain.NewDomain(body[start:end])
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

func isLabelByte(b byte) bool {
	return b == '-' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
