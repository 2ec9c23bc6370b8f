// Package match decides create-vs-update for an extracted candidate.
// Matching is scoped by source namespace: the caller passes only rows from
// the candidate's own namespace, and ambiguity is resolved conservatively:
// zero or multiple hits both mean "not found", preferring a missed update
// over corrupting the wrong row.
package match

import (
	"regexp"
	"strings"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

// prefixLen is how much of the normalized candidate name is used for
// substring containment. Long enough to be distinctive, short enough to
// survive suffix differences ("...Family Medicine" vs "...Family Medicine LLC").
const prefixLen = 24

var entitySuffixPattern = regexp.MustCompile(`(?i),?\s*(llc\.?|pllc|pc|p\.?c\.?|inc\.?|ltd\.?|corp\.?)$`)

// FindTarget returns the ID of the single provider row whose name or
// practice name contains the candidate name's prefix. rows must already be
// restricted to the candidate's source namespace and, for backfill passes,
// to rows still missing the field being filled.
func FindTarget(rows []model.Provider, candidateName string) (string, bool) {
	prefix := NormalizedPrefix(candidateName)
	if prefix == "" {
		return "", false
	}

	var hit string
	for i := range rows {
		if containsPrefix(rows[i].Name, prefix) || containsPrefix(rows[i].PracticeName, prefix) {
			if hit != "" && hit != rows[i].ID {
				// Ambiguous: more than one row matches.
				return "", false
			}
			hit = rows[i].ID
		}
	}
	if hit == "" {
		return "", false
	}
	return hit, true
}

// NormalizedPrefix lowercases the name, strips a trailing business-entity
// suffix, and truncates to the match prefix length.
func NormalizedPrefix(name string) string {
	n := strings.TrimSpace(name)
	n = entitySuffixPattern.ReplaceAllString(n, "")
	n = strings.ToLower(strings.TrimSpace(n))
	if len(n) > prefixLen {
		n = strings.TrimSpace(n[:prefixLen])
	}
	return n
}

func containsPrefix(field, prefix string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), prefix)
}
