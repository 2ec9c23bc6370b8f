// Package extract holds the pure field extractors. Every function in this
// package is a function of its input text only: no network, no store access.
// Malformed or empty input yields an empty result, never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

// priceField names the candidate field a pricing pattern feeds.
type priceField int

const (
	fieldMonthly priceField = iota
	fieldChild
	fieldFamily
	fieldEnrollment
)

// pricingPattern maps one amount-bearing regex to exactly one target field.
// Patterns are tried in order; the first match per field wins. Strong
// patterns are keyword-anchored and justify high confidence on a hit.
type pricingPattern struct {
	re     *regexp.Regexp
	field  priceField
	strong bool
}

// The table is ordered: keyword-anchored forms first, then the bare
// "$N/month" form, then loose price mentions. Each regex captures the
// integer dollar amount in group 1; a keyword with no trailing digits
// simply fails to match and is discarded.
var pricingPatterns = []pricingPattern{
	{regexp.MustCompile(`(?i)\b(?:child|children|kids?|pediatric)\b[^$\d\n]{0,40}\$\s*(\d{1,4})`), fieldChild, true},
	{regexp.MustCompile(`(?i)\b(?:family|couple|household)\b[^$\d\n]{0,40}\$\s*(\d{1,4})`), fieldFamily, true},
	{regexp.MustCompile(`(?i)\b(?:enrollment|registration|sign[- ]?up|annual)\b[^$\d\n]{0,40}\$\s*(\d{1,4})`), fieldEnrollment, true},
	{regexp.MustCompile(`(?i)\b(?:monthly|membership|individual|adult)\b[^$\d\n]{0,40}\$\s*(\d{1,4})`), fieldMonthly, true},
	{regexp.MustCompile(`(?i)\$\s*(\d{1,4})(?:\.\d{2})?\s*(?:/|per\s+)\s*(?:month|mo)\b`), fieldMonthly, true},
	{regexp.MustCompile(`(?i)\b(?:price|cost|fee)s?\b[^$\d\n]{0,30}\$\s*(\d{1,4})`), fieldMonthly, false},
}

// tierPattern matches labeled price-list lines like
// "Children (0-18): $25/mo" or "Individual Adult $75 per month".
var tierPattern = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z /&+'-]{1,34}?)\s*(?:\(\s*(\d{1,2})\s*[-\x{2013}]\s*(\d{1,2})\s*\))?\s*[:\-]?\s*\$\s*(\d{1,4})(?:\.\d{2})?\s*(?:(?:/|per\s+)\s*(?:month|mo)\b)?`)

// PricingResult is the outcome of a pricing scan over free text.
type PricingResult struct {
	MonthlyFee      float64
	ChildMonthlyFee *float64
	FamilyFee       *float64
	EnrollmentFee   *float64
	Tiers           []model.PricingTier
	Notes           string
	Confidence      model.PricingConfidence
}

// Pricing scans free text for membership pricing. Confidence is high when
// the monthly fee came from a keyword-anchored pattern, medium when it came
// from a loose price mention, low when only secondary fees were found, and
// none when nothing matched.
func Pricing(text string) PricingResult {
	res := PricingResult{Confidence: model.PricingNone}
	if strings.TrimSpace(text) == "" {
		return res
	}

	monthlyStrong := false
	for _, p := range pricingPatterns {
		if fieldSet(&res, p.field) {
			continue
		}
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := strconv.Atoi(m[1])
		if err != nil || amount <= 0 {
			continue
		}
		v := float64(amount)
		switch p.field {
		case fieldMonthly:
			res.MonthlyFee = v
			monthlyStrong = p.strong
		case fieldChild:
			res.ChildMonthlyFee = &v
		case fieldFamily:
			res.FamilyFee = &v
		case fieldEnrollment:
			res.EnrollmentFee = &v
		}
	}

	res.Tiers = extractTiers(text)

	switch {
	case res.MonthlyFee > 0 && monthlyStrong:
		res.Confidence = model.PricingHigh
	case res.MonthlyFee > 0:
		res.Confidence = model.PricingMedium
	case res.ChildMonthlyFee != nil || res.FamilyFee != nil || res.EnrollmentFee != nil || len(res.Tiers) > 0:
		res.Confidence = model.PricingLow
	}

	if res.Confidence != model.PricingNone {
		res.Notes = noteFor(res)
	}
	return res
}

func fieldSet(r *PricingResult, f priceField) bool {
	switch f {
	case fieldMonthly:
		return r.MonthlyFee > 0
	case fieldChild:
		return r.ChildMonthlyFee != nil
	case fieldFamily:
		return r.FamilyFee != nil
	case fieldEnrollment:
		return r.EnrollmentFee != nil
	}
	return false
}

// extractTiers pulls labeled price-list rows out of line-oriented text.
// Generic labels ("price", "cost") are skipped; a tier needs a real label.
func extractTiers(text string) []model.PricingTier {
	var tiers []model.PricingTier
	seen := make(map[string]bool)
	for _, m := range tierPattern.FindAllStringSubmatch(text, 12) {
		label := strings.TrimSpace(m[1])
		lower := strings.ToLower(label)
		if len(label) < 3 || lower == "price" || lower == "cost" || lower == "fee" || lower == "only" {
			continue
		}
		if seen[lower] {
			continue
		}
		amount, err := strconv.Atoi(m[4])
		if err != nil || amount <= 0 {
			continue
		}
		tier := model.PricingTier{Label: label, MonthlyFee: float64(amount)}
		if m[2] != "" && m[3] != "" {
			lo, _ := strconv.Atoi(m[2])
			hi, _ := strconv.Atoi(m[3])
			if lo <= hi {
				tier.AgeMin = &lo
				tier.AgeMax = &hi
			}
		}
		seen[lower] = true
		tiers = append(tiers, tier)
	}
	return tiers
}

func noteFor(r PricingResult) string {
	var parts []string
	if r.MonthlyFee > 0 {
		parts = append(parts, "monthly fee found")
	}
	if r.ChildMonthlyFee != nil {
		parts = append(parts, "child fee found")
	}
	if r.FamilyFee != nil {
		parts = append(parts, "family fee found")
	}
	if r.EnrollmentFee != nil {
		parts = append(parts, "enrollment fee found")
	}
	if len(r.Tiers) > 0 {
		parts = append(parts, strconv.Itoa(len(r.Tiers))+" pricing tiers found")
	}
	return strings.Join(parts, "; ")
}
