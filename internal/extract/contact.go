package extract

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	digitsOnly   = regexp.MustCompile(`\D`)
)

// placeholderDomains are template/demo domains that show up in scraped
// page boilerplate and never belong to a real practice.
var placeholderDomains = map[string]bool{
	"example.com":    true,
	"test.com":       true,
	"email.com":      true,
	"yourdomain.com": true,
	"domain.com":     true,
}

// Emails extracts email addresses from free text, filtering out obvious
// placeholder domains. The result is deduplicated and order-stable.
func Emails(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailPattern.FindAllString(text, -1) {
		addr := strings.ToLower(m)
		at := strings.LastIndex(addr, "@")
		if at < 0 || placeholderDomains[addr[at+1:]] {
			continue
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

// Phone extracts the first US phone number from free text, normalized to
// ten digits. Returns "" when no plausible number is present.
func Phone(text string) string {
	if text == "" {
		return ""
	}
	for _, m := range phonePattern.FindAllString(text, 5) {
		if n := NormalizePhone(m); n != "" {
			return n
		}
	}
	return ""
}

// NormalizePhone strips formatting from a phone number and drops a leading
// country code. Anything that does not reduce to ten digits is rejected.
func NormalizePhone(raw string) string {
	digits := digitsOnly.ReplaceAllString(raw, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	// Area codes never start with 0 or 1.
	if digits[0] == '0' || digits[0] == '1' {
		return ""
	}
	return digits
}
