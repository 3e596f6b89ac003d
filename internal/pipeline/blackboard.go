package pipeline

// Blackboard is the shared state stages read from and write to. Each
// stage consumes the fields written by its predecessors and fills its
// own; a stage never mutates another stage's output slice in place.
type Blackboard struct {
	// MonitoredFiles are the input file paths discovered for this run.
	MonitoredFiles []string

	// ExtractedDocuments is filled by the extraction stage.
	ExtractedDocuments []Document

	// Chunks is filled by the chunking stage.
	Chunks []Chunk

	// EnrichedChunks is filled by the enrichment stage.
	EnrichedChunks []Chunk

	// AuditRecord is filled by the audit stage.
	AuditRecord *AuditRecord

	// EmbeddedChunks is filled by the embedding stage.
	EmbeddedChunks []Chunk

	// NormalizedChunks is filled by the normalization stage.
	NormalizedChunks []Chunk

	// StorageResult is filled by the storage stage.
	StorageResult *StorageReport

	// FailedSources collects input paths that could not be processed,
	// for the lifecycle stage to route to the errors directory.
	FailedSources map[string]string

	warnings []string
}

// NewBlackboard creates a blackboard for one run over the given files.
func NewBlackboard(files []string) *Blackboard {
	return &Blackboard{
		MonitoredFiles: files,
		FailedSources:  make(map[string]string),
	}
}

// AddWarning records a non-fatal condition. Warnings do not stop the
// run; the engine logs them after each stage.
func (b *Blackboard) AddWarning(msg string) {
	b.warnings = append(b.warnings, msg)
}

// Warnings returns all warnings recorded so far.
func (b *Blackboard) Warnings() []string {
	return b.warnings
}

// MarkFailed records a source file that could not be processed along
// with the reason. The lifecycle stage moves these to the errors
// directory.
func (b *Blackboard) MarkFailed(sourcePath, reason string) {
	b.FailedSources[sourcePath] = reason
}

// ActiveChunks returns the most processed chunk set available, so a
// stage keeps working when an optional upstream stage was disabled.
func (b *Blackboard) ActiveChunks() []Chunk {
	switch {
	case b.NormalizedChunks != nil:
		return b.NormalizedChunks
	case b.EmbeddedChunks != nil:
		return b.EmbeddedChunks
	case b.EnrichedChunks != nil:
		return b.EnrichedChunks
	default:
		return b.Chunks
	}
}
