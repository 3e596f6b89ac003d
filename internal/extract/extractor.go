package extract

import (
	"path/filepath"
	"strings"
)

// Extractor is one text extraction strategy. Extract reports routine
// failure through the result, never through a panic; the fallback
// chain moves on to the next candidate.
type Extractor interface {
	// Name returns the extractor's registry name.
	Name() string

	// CanExtract reports whether the extractor handles the file,
	// decided by extension.
	CanExtract(path string) bool

	// Extract reads the file and returns the extraction result.
	Extract(path string) Result

	// Available reports whether the extractor's external tooling is
	// present. Unavailable extractors are dropped from the chain.
	Available() bool
}

// extensionSet is the common CanExtract implementation.
type extensionSet map[string]bool

func newExtensionSet(exts ...string) extensionSet {
	set := make(extensionSet, len(exts))
	for _, ext := range exts {
		set[ext] = true
	}
	return set
}

func (s extensionSet) contains(path string) bool {
	return s[strings.ToLower(filepath.Ext(path))]
}

// Registry holds all known extractors by name.
type Registry struct {
	byName map[string]Extractor
	order  []string
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Extractor)}
}

// Register adds an extractor. Registering the same name twice replaces
// the earlier entry without changing its position.
func (r *Registry) Register(e Extractor) {
	if _, exists := r.byName[e.Name()]; !exists {
		r.order = append(r.order, e.Name())
	}
	r.byName[e.Name()] = e
}

// Get returns the extractor with the given name.
func (r *Registry) Get(name string) (Extractor, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Names returns all registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
