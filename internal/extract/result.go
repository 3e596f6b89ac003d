// Package extract implements format-specific text extraction with a
// profile-driven fallback chain.
package extract

import "strings"

// Result is the outcome of a single extractor attempt. A routine
// failure is reported with Success=false and Error set, never with a
// panic or a Go error from Extract.
type Result struct {
	Text          string         `json:"text"`
	Success       bool           `json:"success"`
	ExtractorName string         `json:"extractor_name"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Error         string         `json:"error,omitempty"`
	Confidence    float64        `json:"confidence_score"`
}

// Failure builds a failed result for an extractor. Failed results
// carry no text.
func Failure(extractorName, errMsg string) Result {
	return Result{
		Success:       false,
		ExtractorName: extractorName,
		Error:         errMsg,
		Metadata:      map[string]any{},
	}
}

// SetMeta stores a metadata value, allocating the map on first use.
func (r *Result) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// ValidationPolicy decides whether an extraction result is good enough
// to stop the fallback chain.
type ValidationPolicy struct {
	MinTextLength int
	MinConfidence float64
}

// Validate applies the default acceptance policy: success, enough
// non-whitespace text, and sufficient confidence.
func (p ValidationPolicy) Validate(r Result) bool {
	if !r.Success {
		return false
	}
	if len(strings.TrimSpace(r.Text)) < p.MinTextLength {
		return false
	}
	return r.Confidence >= p.MinConfidence
}
