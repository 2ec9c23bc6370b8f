package extract

import (
	"regexp"
	"strings"
)

// Two independent passes: honorific-prefixed names and credential-suffixed
// names. Results are merged into one order-stable, deduplicated list.
// A name token is either a capitalized word or a middle initial "X.".
// Keeping the period out of full words stops a match from running across a
// sentence boundary ("Dr. Sam Prairie. We" must capture "Sam Prairie").
var (
	drNamePattern   = regexp.MustCompile(`\b(?:Dr\.|Doctor)\s+([A-Z](?:[a-zA-Z'\-]+|\.)(?:\s+[A-Z](?:[a-zA-Z'\-]+|\.)){0,2})`)
	credNamePattern = regexp.MustCompile(`\b([A-Z](?:[a-zA-Z'\-]+|\.)(?:\s+[A-Z](?:[a-zA-Z'\-]+|\.)){0,2}),?\s+(?:M\.?D\.?|D\.?O\.?)(?:[^a-zA-Z]|$)`)
)

// Physicians extracts physician names from free text.
func Physicians(text string) []string {
	if text == "" {
		return nil
	}

	var names []string
	seen := make(map[string]bool)

	add := func(raw string) {
		name := cleanName(raw)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		names = append(names, name)
	}

	for _, m := range drNamePattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range credNamePattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return names
}

// cleanName trims stray credential fragments the capture group may have
// picked up and rejects single-token "names" that are usually sentence
// starts, not people.
func cleanName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimSuffix(name, ",")
	name = strings.TrimSuffix(name, ".")
	for _, cred := range []string{" MD", " M.D.", " DO", " D.O."} {
		name = strings.TrimSuffix(name, cred)
	}
	name = strings.TrimSpace(name)
	if !strings.Contains(name, " ") {
		return ""
	}
	return name
}
