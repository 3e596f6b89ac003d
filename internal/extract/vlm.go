package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/providers"
)

const defaultVLMPrompt = "Transcribe all text visible in this document image. " +
	"Reply with the transcription only, preserving reading order."

var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// VisionCompleter is the provider capability the VLM extractor needs.
type VisionCompleter interface {
	Available() bool
	CompleteVision(ctx context.Context, req providers.VisionRequest) (string, error)
}

// VLMExtractor transcribes document images through a vision-capable
// chat model. It sits late in the quality chain and is filtered out
// entirely when use_vlm is false.
type VLMExtractor struct {
	exts    extensionSet
	cfg     config.VLMConfig
	client  VisionCompleter
	timeout time.Duration
}

var _ Extractor = (*VLMExtractor)(nil)

// NewVLMExtractor creates the vision-model extractor. A nil client
// makes it unavailable.
func NewVLMExtractor(cfg config.VLMConfig, client VisionCompleter) *VLMExtractor {
	return &VLMExtractor{
		exts:    newExtensionSet(".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"),
		cfg:     cfg,
		client:  client,
		timeout: 3 * time.Minute,
	}
}

func (e *VLMExtractor) Name() string                { return "vlm" }
func (e *VLMExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

func (e *VLMExtractor) Available() bool {
	return e.client != nil && e.client.Available() && e.cfg.Model != ""
}

func (e *VLMExtractor) Extract(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("read failed: %v", err))
	}

	mime, ok := imageMIMETypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Failure(e.Name(), fmt.Sprintf("unsupported image type %q", filepath.Ext(path)))
	}

	prompt := e.cfg.Prompt
	if prompt == "" {
		prompt = defaultVLMPrompt
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	text, err := e.client.CompleteVision(ctx, providers.VisionRequest{
		Model:     e.cfg.Model,
		Prompt:    prompt,
		ImageData: data,
		MIMEType:  mime,
		MaxTokens: 4096,
	})
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("vision transcription failed: %v", err))
	}

	result := Result{
		Text:       strings.TrimSpace(text),
		Success:    true,
		Confidence: 0.8,
	}
	result.SetMeta("model", e.cfg.Model)
	result.SetMeta("file_size", len(data))
	return result
}
