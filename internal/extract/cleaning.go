package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/docpipe/docpipe/internal/config"
)

var (
	multiSpaceRe  = regexp.MustCompile(`[ \t]+`)
	multiBlankRe  = regexp.MustCompile(`\n{3,}`)
	pageNumberRe  = regexp.MustCompile(`(?mi)^\s*(?:page\s+\d+(?:\s*(?:/|of|sur)\s*\d+)?|-\s*\d+\s*-|\d{1,4})\s*$`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	specialCharRe = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?'"()\-]`)
)

// CleanText applies the configured cleaning steps in a fixed order.
// Each step is a pure transformation of the text.
func CleanText(text string, cfg config.CleaningConfig) string {
	if cfg.StripHTMLTags {
		text = htmlTagRe.ReplaceAllString(text, " ")
	}
	if cfg.NormalizeWhitespace {
		text = normalizeWhitespace(text)
	}
	if cfg.StripPageNumbers {
		text = pageNumberRe.ReplaceAllString(text, "")
	}
	if cfg.RemoveBlankLines {
		text = removeBlankLines(text)
	}
	if cfg.MinLineLength > 0 {
		text = dropShortLines(text, cfg.MinLineLength)
	}
	if cfg.Lowercase {
		text = strings.ToLower(text)
	}
	if cfg.StripSpecialChars {
		text = specialCharRe.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// normalizeWhitespace collapses runs of spaces and tabs, trims line
// ends, and caps consecutive newlines at two.
func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return multiBlankRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

func removeBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func dropShortLines(text string, minLen int) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if len(strings.TrimSpace(line)) >= minLen {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
