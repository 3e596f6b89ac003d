// Package enrich attaches governance metadata to chunks: content hash,
// processing timestamp, sensitivity class, document type and
// regulatory tags.
package enrich

import (
	"context"
	"strings"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/providers"
)

// Sensitivity levels, least to most restricted.
var sensitivityLevels = map[string]bool{
	"public":       true,
	"interne":      true,
	"confidentiel": true,
	"secret":       true,
}

// documentTypeKeywords maps filename substrings to document types.
// Order matters: the first match wins.
var documentTypeKeywords = []struct {
	keyword string
	docType string
}{
	{"contrat", "contract"},
	{"contract", "contract"},
	{"audit", "audit report"},
	{"politique", "policy"},
	{"policy", "policy"},
	{"procedure", "procedure"},
	{"procédure", "procedure"},
}

// classifier resolves the sensitivity of a chunk. With an LLM it asks
// for a single label; otherwise it scans for sensitive keywords.
type classifier struct {
	cfg config.EnrichmentConfig
	llm providers.LLMClient
}

func (c *classifier) sensitivity(ctx context.Context, text string) string {
	fallback := c.cfg.DefaultSensitivity
	if fallback == "" {
		fallback = config.DefaultSensitivity
	}

	if c.cfg.UseLLM && c.llm != nil && c.llm.Available() {
		if label, ok := c.askLLM(ctx, text); ok {
			return label
		}
		return fallback
	}

	if c.containsSensitiveKeyword(text) {
		return "confidentiel"
	}
	return fallback
}

// askLLM returns the model's label and whether it was valid. The label
// is the first token of the first non-empty reply line.
func (c *classifier) askLLM(ctx context.Context, text string) (string, bool) {
	template := c.cfg.LLM.PromptTemplate
	if template == "" {
		template = config.DefaultSensitivityPrompt
	}
	prompt := strings.ReplaceAll(template, "{text}", text)

	reply, err := c.llm.Complete(ctx, providers.CompletionRequest{
		Model:       c.cfg.LLM.Model,
		Prompt:      prompt,
		Temperature: c.cfg.LLM.Temperature,
		MaxTokens:   c.cfg.LLM.MaxTokens,
	})
	if err != nil {
		return "", false
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		token := strings.ToLower(strings.Trim(strings.Fields(line)[0], ".,:;!\"'"))
		if sensitivityLevels[token] {
			return token, true
		}
		return "", false
	}
	return "", false
}

func (c *classifier) containsSensitiveKeyword(text string) bool {
	keywords := c.cfg.SensitiveKeywords
	if len(keywords) == 0 {
		keywords = config.DefaultSensitiveKeywords
	}
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// documentType classifies by filename keyword.
func documentType(filename string) string {
	lower := strings.ToLower(filename)
	for _, entry := range documentTypeKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.docType
		}
	}
	return "other"
}

// regulatoryTags scans the text for known framework names. Matching is
// case-insensitive on the framework identifier.
func regulatoryTags(text string, frameworks []string) []string {
	if len(frameworks) == 0 {
		frameworks = config.DefaultRegulatoryFrameworks
	}
	lower := strings.ToLower(text)

	var tags []string
	for _, framework := range frameworks {
		if strings.Contains(lower, strings.ToLower(framework)) {
			tags = append(tags, framework)
		}
	}
	return tags
}
