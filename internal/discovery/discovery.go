// Package discovery picks a provider's practice website out of web search
// results, rejecting directory and social-profile URLs that would poison the
// later pricing scrape.
package discovery

import (
	"fmt"
	"net/url"
	"strings"
)

// SearchResult is one organic web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"description,omitempty"`
}

// defaultBlocklist lists domains that host provider listings rather than
// provider practices. Subdomains are blocked too.
var defaultBlocklist = []string{
	"dpcfrontier.com",
	"dpcalliance.org",
	"dpcare.org",
	"dpccareers.org",
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"twitter.com",
	"x.com",
	"yelp.com",
	"yellowpages.com",
	"healthgrades.com",
	"zocdoc.com",
	"vitals.com",
	"webmd.com",
	"wellness.com",
	"mapquest.com",
	"npidb.org",
	"npino.com",
	"wikipedia.org",
	"youtube.com",
}

// DefaultBlocklist returns a copy of the built-in directory-domain blocklist.
func DefaultBlocklist() []string {
	out := make([]string, len(defaultBlocklist))
	copy(out, defaultBlocklist)
	return out
}

// BuildQuery builds the search query for a provider's practice website.
func BuildQuery(name, city, state string) string {
	parts := []string{fmt.Sprintf("%q", name)}
	if city != "" && city != "Unknown" {
		parts = append(parts, fmt.Sprintf("%q", city))
	}
	if state != "" && state != "XX" {
		parts = append(parts, state)
	}
	parts = append(parts, "direct primary care")
	return strings.Join(parts, " ")
}

// FilterSearchResults returns the first result URL that is not on the
// blocklist, in result order. Search rank is the only relevance signal kept.
func FilterSearchResults(results []SearchResult, blocklist []string) (string, bool) {
	for _, r := range results {
		if usableWebsite(r.URL, blocklist) {
			return r.URL, true
		}
	}
	return "", false
}

func usableWebsite(website string, blocklist []string) bool {
	u, err := url.Parse(website)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return false
	}

	for _, blocked := range blocklist {
		blocked = strings.ToLower(blocked)
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return false
		}
	}
	return true
}
