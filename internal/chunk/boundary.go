package chunk

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	fencedBlockRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	lineCommentRe  = regexp.MustCompile(`(?m)//[^\n"]*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseBoundaries extracts the "boundaries" array from an LLM reply.
// Models wrap JSON in fenced code blocks, surround it with narrative,
// leave trailing commas, add comments, and quote numbers; all of those
// forms are accepted. Entries that are not usable integers are
// skipped.
func ParseBoundaries(reply string) ([]int, error) {
	candidate := reply
	if m := fencedBlockRe.FindStringSubmatch(reply); m != nil {
		candidate = m[1]
	}

	// Narrow to the outermost object so narrative text around the
	// JSON does not break decoding.
	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	candidate = candidate[start : end+1]

	candidate = blockCommentRe.ReplaceAllString(candidate, "")
	candidate = lineCommentRe.ReplaceAllString(candidate, "")
	candidate = trailingComma.ReplaceAllString(candidate, "$1")

	var payload struct {
		Boundaries []json.RawMessage `json:"boundaries"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("invalid boundaries JSON; %w", err)
	}

	var boundaries []int
	for _, raw := range payload.Boundaries {
		if n, ok := decodeBoundary(raw); ok {
			boundaries = append(boundaries, n)
		}
	}
	return boundaries, nil
}

// decodeBoundary accepts a JSON number or a numeric string.
func decodeBoundary(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}
