package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

// acceptingPhrases and notAcceptingPhrases classify the accepting-patients
// flag from profile prose. Absence of both leaves the flag nil (unknown).
var notAcceptingPhrases = []string{
	"not accepting new patients",
	"not currently accepting",
	"waitlist only",
	"wait list only",
	"practice is full",
}

var acceptingPhrases = []string{
	"accepting new patients",
	"currently accepting",
	"now accepting",
}

// Alliance parses a DPC Alliance directory profile page into a candidate
// record. The page is member-edited HTML, so every selector is best-effort
// and a selector miss leaves the field unset.
func Alliance(html string, sourceID string) (*model.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// goquery tolerates almost anything; a hard failure means the
		// input was not HTML at all.
		return &model.Candidate{SourceID: sourceID}, nil //nolint:nilerr
	}

	c := &model.Candidate{SourceID: sourceID}

	c.Name = firstText(doc, "h1", ".member-name", ".profile-title")
	c.PracticeName = firstText(doc, ".practice-name", ".member-practice", "h2.practice")
	c.Address = firstText(doc, ".address", ".member-address", "address")

	if website, ok := doc.Find(`a[href^="http"]`).FilterFunction(isExternalPracticeLink).Attr("href"); ok {
		c.Website = strings.TrimSpace(website)
	}

	text := doc.Text()
	c.Phone = Phone(text)
	c.Emails = Emails(text)
	c.Physicians = Physicians(text)
	c.Specialties = allianceSpecialties(doc)
	c.AcceptingPatients = acceptingFlag(text)
	applyPricing(c, Pricing(text))

	// Fall back to the page title when the profile has no heading.
	if c.Name == "" {
		c.Name = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return c, nil
}

// firstText returns the trimmed text of the first selector that matches.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// isExternalPracticeLink keeps the first off-directory link, skipping
// social and mail links.
func isExternalPracticeLink(_ int, s *goquery.Selection) bool {
	href, ok := s.Attr("href")
	if !ok {
		return false
	}
	lower := strings.ToLower(href)
	for _, skip := range []string{"dpcalliance.org", "facebook.com", "twitter.com", "x.com", "instagram.com", "linkedin.com", "mailto:", "tel:", "maps.google"} {
		if strings.Contains(lower, skip) {
			return false
		}
	}
	return true
}

func allianceSpecialties(doc *goquery.Document) []string {
	var out []string
	seen := make(map[string]bool)
	doc.Find(".specialty, .specialties li, .member-specialty").Each(func(_ int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, t)
	})
	return out
}

func acceptingFlag(text string) *bool {
	lower := strings.ToLower(text)
	for _, phrase := range notAcceptingPhrases {
		if strings.Contains(lower, phrase) {
			f := false
			return &f
		}
	}
	for _, phrase := range acceptingPhrases {
		if strings.Contains(lower, phrase) {
			t := true
			return &t
		}
	}
	return nil
}
