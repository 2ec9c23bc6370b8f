// Package geo resolves partial address data to a best-effort location
// through an ordered fallback chain of parsers and geocoder lookups.
package geo

// validStates is the 50-state set plus DC and PR.
var validStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true, "PR": true,
}

// ValidState reports whether code is a real state/territory abbreviation.
func ValidState(code string) bool {
	return validStates[code]
}

// mdZipPrefixes is the set of three-digit ZIP prefixes assigned to
// Maryland. "MD" as a state match is accepted only when the ZIP agrees;
// otherwise the letters were almost certainly a physician credential.
var mdZipPrefixes = map[string]bool{
	"206": true, "207": true, "208": true, "209": true, "210": true,
	"211": true, "212": true, "214": true, "215": true, "216": true,
	"217": true, "218": true, "219": true,
}

// validMDZip reports whether a ZIP is plausible for Maryland.
func validMDZip(zip string) bool {
	return len(zip) == 5 && mdZipPrefixes[zip[:3]]
}
