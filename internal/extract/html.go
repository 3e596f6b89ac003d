package extract

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/docpipe/docpipe/internal/config"
)

// HTMLExtractor converts HTML/XML documents to text. With
// preserve_structure it renders markdown keeping headings, lists, and
// quotes; otherwise it strips tags flat.
type HTMLExtractor struct {
	exts extensionSet
	cfg  config.HTMLConfig
}

var _ Extractor = (*HTMLExtractor)(nil)

// NewHTMLExtractor creates the HTML extractor.
func NewHTMLExtractor(cfg config.HTMLConfig) *HTMLExtractor {
	return &HTMLExtractor{
		exts: newExtensionSet(".html", ".htm", ".xhtml", ".xml"),
		cfg:  cfg,
	}
}

func (e *HTMLExtractor) Name() string                { return "html" }
func (e *HTMLExtractor) Available() bool             { return true }
func (e *HTMLExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

func (e *HTMLExtractor) Extract(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("read failed: %v", err))
	}

	content := string(data)
	content = stripElements(content, append([]string{"script", "style"}, e.cfg.StripTags...))

	var text string
	if e.cfg.PreserveStructure {
		markdown, err := htmltomarkdown.ConvertString(content)
		if err != nil {
			return Failure(e.Name(), fmt.Sprintf("markdown conversion failed: %v", err))
		}
		text = markdown
	} else {
		text = htmlTagRe.ReplaceAllString(content, " ")
		text = normalizeWhitespace(text)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Failure(e.Name(), "no text content")
	}

	result := Result{
		Text:       text,
		Success:    true,
		Confidence: 0.9,
	}
	result.SetMeta("file_size", len(data))
	result.SetMeta("preserve_structure", e.cfg.PreserveStructure)
	return result
}

// stripElements removes the named elements together with their content.
func stripElements(content string, tags []string) string {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		re, err := regexp.Compile(`(?is)<` + regexp.QuoteMeta(tag) + `\b[^>]*>.*?</` + regexp.QuoteMeta(tag) + `>`)
		if err != nil {
			continue
		}
		content = re.ReplaceAllString(content, " ")
	}
	return content
}
