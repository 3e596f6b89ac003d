// Package audit writes one append-only trail record per run and scans
// chunk text for personally identifiable information.
package audit

import (
	"regexp"
)

// PII categories reported by the scanner.
const (
	CategoryEmail     = "email"
	CategoryPhoneFR   = "phone_fr"
	CategoryPhoneIntl = "phone_intl"
	CategoryNIR       = "nir"
	CategoryIBAN      = "iban"
	CategoryCard      = "card"
	CategoryIPv4      = "ipv4"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// French numbers: +33 or 0 prefix, then nine digits in pairs.
	phoneFRRe = regexp.MustCompile(`(?:\+33|0)[\s.\-]?[1-9](?:[\s.\-]?\d{2}){4}`)

	// Any international number with a + country code. Matches that
	// overlap a French match are dropped during aggregation.
	phoneIntlRe = regexp.MustCompile(`\+\d{1,3}(?:[\s.\-]?\d{1,4}){2,6}`)

	// French NIR: sex digit, year, month, department, commune, order
	// number, control key. 2A/2B cover Corsica.
	nirRe = regexp.MustCompile(`\b[12]\s?\d{2}\s?(?:0[1-9]|1[0-2])\s?(?:\d{2}|2[AB])\s?\d{3}\s?\d{3}\s?\d{2}\b`)

	ibanRe = regexp.MustCompile(`\b[A-Z]{2}\d{2}(?:\s?[A-Z0-9]{4}){2,7}\s?[A-Z0-9]{1,4}\b`)

	cardRe = regexp.MustCompile(`\b(?:\d{4}[\s\-]?){3}\d{4}\b`)

	ipv4Re = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// recommendations maps categories to remediation advice included in
// the audit record.
var recommendations = map[string]string{
	CategoryEmail:     "Mask or pseudonymize email addresses before indexing.",
	CategoryPhoneFR:   "Remove phone numbers or move them to a restricted field.",
	CategoryPhoneIntl: "Remove phone numbers or move them to a restricted field.",
	CategoryNIR:       "French social security numbers detected; restrict access per RGPD.",
	CategoryIBAN:      "Bank account identifiers detected; consider tokenization.",
	CategoryCard:      "Payment card numbers detected; verify PCI-DSS handling.",
	CategoryIPv4:      "IP addresses can identify individuals; review retention policy.",
}

// scanOrder keeps category output deterministic.
var scanOrder = []string{
	CategoryEmail,
	CategoryPhoneFR,
	CategoryPhoneIntl,
	CategoryNIR,
	CategoryIBAN,
	CategoryCard,
	CategoryIPv4,
}

// ScanText counts PII occurrences per category in one text.
// International phone matches that overlap a French match count once,
// as phone_fr.
func ScanText(text string) map[string]int {
	counts := make(map[string]int)

	add := func(category string, n int) {
		if n > 0 {
			counts[category] += n
		}
	}

	add(CategoryEmail, len(emailRe.FindAllString(text, -1)))

	frRanges := phoneFRRe.FindAllStringIndex(text, -1)
	add(CategoryPhoneFR, len(frRanges))

	intl := 0
	for _, loc := range phoneIntlRe.FindAllStringIndex(text, -1) {
		if !overlapsAny(loc, frRanges) {
			intl++
		}
	}
	add(CategoryPhoneIntl, intl)

	add(CategoryNIR, len(nirRe.FindAllString(text, -1)))

	ibanRanges := ibanRe.FindAllStringIndex(text, -1)
	add(CategoryIBAN, len(ibanRanges))

	// IBAN digit groups align on fours and would read as card numbers.
	cards := 0
	for _, loc := range cardRe.FindAllStringIndex(text, -1) {
		if !overlapsAny(loc, ibanRanges) {
			cards++
		}
	}
	add(CategoryCard, cards)
	add(CategoryIPv4, len(ipv4Re.FindAllString(text, -1)))

	return counts
}

func overlapsAny(loc []int, ranges [][]int) bool {
	for _, r := range ranges {
		if loc[0] < r[1] && r[0] < loc[1] {
			return true
		}
	}
	return false
}

// Report is the aggregated scan over all chunks of a run.
type Report struct {
	Total         int
	ByCategory    map[string]int
	ChunksWithPII []int
}

// ScanChunks scans every text and aggregates totals, per-category
// counts, and the indices of chunks containing any PII.
func ScanChunks(texts []string) Report {
	report := Report{ByCategory: make(map[string]int)}
	for i, text := range texts {
		counts := ScanText(text)
		if len(counts) == 0 {
			continue
		}
		report.ChunksWithPII = append(report.ChunksWithPII, i)
		for category, n := range counts {
			report.ByCategory[category] += n
			report.Total += n
		}
	}
	return report
}

// Recommendations returns remediation advice for every category
// present in the report, in scan order.
func (r Report) Recommendations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, category := range scanOrder {
		if r.ByCategory[category] == 0 {
			continue
		}
		advice := recommendations[category]
		if seen[advice] {
			continue
		}
		seen[advice] = true
		out = append(out, advice)
	}
	return out
}

// Critical reports whether the scan found categories that demand an
// immediate alert (payment cards or social security numbers).
func (r Report) Critical() bool {
	return r.ByCategory[CategoryCard] > 0 || r.ByCategory[CategoryNIR] > 0
}
