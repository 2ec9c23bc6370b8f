package geo

import "strings"

// commonFirstNames catches geocoder false positives where a person's first
// name was parsed as a city ("Towns" named Sharon, Florence etc. exist, but
// in practice these captures come from physician names on the page).
var commonFirstNames = map[string]bool{
	"james": true, "john": true, "robert": true, "michael": true,
	"william": true, "david": true, "richard": true, "joseph": true,
	"thomas": true, "charles": true, "christopher": true, "daniel": true,
	"matthew": true, "anthony": true, "mark": true, "donald": true,
	"steven": true, "paul": true, "andrew": true, "joshua": true,
	"mary": true, "patricia": true, "jennifer": true, "linda": true,
	"elizabeth": true, "barbara": true, "susan": true, "jessica": true,
	"sarah": true, "karen": true, "nancy": true, "lisa": true,
	"betty": true, "margaret": true, "sandra": true, "ashley": true,
	"kimberly": true, "emily": true, "donna": true, "michelle": true,
}

// nameSuffixes are credential/generational suffixes. A "city" carrying one
// of these is a fragment of a person's name.
var nameSuffixes = []string{"md", "m.d", "do", "d.o", "phd", "ph.d", "jr", "sr", "ii", "iii", "iv", "np", "pa-c"}

// looksLikePersonName reports whether a captured city token is more likely
// a fragment of the provider's display name than a real place.
func looksLikePersonName(city, providerName string) bool {
	c := strings.ToLower(strings.TrimSpace(city))
	if c == "" {
		return true
	}

	// Credential or generational suffix on any token.
	for _, tok := range strings.Fields(c) {
		tok = strings.Trim(tok, ".,")
		for _, suffix := range nameSuffixes {
			if tok == suffix {
				return true
			}
		}
	}

	// Common first name as the sole token.
	if commonFirstNames[c] {
		return true
	}

	// Substring of the provider's own name tokens.
	if providerName != "" {
		lowerName := strings.ToLower(providerName)
		for _, tok := range strings.Fields(c) {
			tok = strings.Trim(tok, ".,")
			if len(tok) >= 3 && strings.Contains(lowerName, tok) {
				return true
			}
		}
	}

	return false
}
