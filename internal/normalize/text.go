// Package normalize applies Unicode and vector normalization plus a
// final validation pass before storage.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/docpipe/docpipe/internal/config"
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"«", `"`,
	"»", `"`,
	"‘", "'",
	"’", "'",
	"‚", "'",
)

func unicodeForm(name string) (norm.Form, bool) {
	switch name {
	case "NFC":
		return norm.NFC, true
	case "NFKC":
		return norm.NFKC, true
	case "NFD":
		return norm.NFD, true
	case "NFKD":
		return norm.NFKD, true
	default:
		return norm.NFC, false
	}
}

// NormalizeText applies the configured Unicode form, accent stripping
// and quote standardization, in that order.
func NormalizeText(text string, cfg config.NormalizationConfig) string {
	if form, ok := unicodeForm(cfg.UnicodeForm); ok {
		text = form.String(text)
	}
	if cfg.StripAccents {
		text = stripAccents(text)
	}
	if cfg.StandardizeQuotes {
		text = quoteReplacer.Replace(text)
	}
	return text
}

// stripAccents decomposes and drops combining marks, then recomposes.
func stripAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}
