// Package chunk splits document text into ordered fragments using one
// of four strategies: fixed, recursive, semantic, or llm_guided.
package chunk

import "context"

// Chunker is one splitting strategy. Implementations return the text
// fragments in document order; sizing validation happens afterwards in
// the stage.
type Chunker interface {
	// Name returns the strategy name.
	Name() string

	// Split cuts the text into ordered fragments. Empty text yields an
	// empty slice.
	Split(ctx context.Context, text string) ([]string, error)
}
