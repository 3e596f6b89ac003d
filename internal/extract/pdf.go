package extract

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// PDFExtractor pulls the text layer out of a PDF. The primary backend
// is the pdftotext tool when present; otherwise it falls back to
// scanning content streams for text-showing operators. Image-only
// PDFs yield too little text here and fall through to OCR.
type PDFExtractor struct {
	exts          extensionSet
	pdftotextPath string
}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates the PDF extractor, probing for pdftotext.
func NewPDFExtractor() *PDFExtractor {
	path, _ := exec.LookPath("pdftotext")
	return &PDFExtractor{
		exts:          newExtensionSet(".pdf"),
		pdftotextPath: path,
	}
}

func (e *PDFExtractor) Name() string                { return "pdf" }
func (e *PDFExtractor) Available() bool             { return true }
func (e *PDFExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

func (e *PDFExtractor) Extract(path string) Result {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("invalid pdf: %v", err))
	}

	var (
		text       string
		backend    string
		confidence float64
	)
	if e.pdftotextPath != "" {
		text, err = e.runPdftotext(path)
		backend, confidence = "pdftotext", 0.9
	}
	if e.pdftotextPath == "" || err != nil || strings.TrimSpace(text) == "" {
		text, err = contentStreamText(path, pageCount)
		backend, confidence = "content_stream", 0.6
		if err != nil {
			return Failure(e.Name(), fmt.Sprintf("text extraction failed: %v", err))
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Failure(e.Name(), "no text layer (likely scanned document)")
	}

	result := Result{
		Text:       text,
		Success:    true,
		Confidence: confidence,
	}
	result.SetMeta("page_count", pageCount)
	result.SetMeta("backend", backend)
	return result
}

func (e *PDFExtractor) runPdftotext(path string) (string, error) {
	out, err := os.CreateTemp("", "docpipe-pdf-*.txt")
	if err != nil {
		return "", err
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	cmd := exec.Command(e.pdftotextPath, "-layout", "-enc", "UTF-8", path, outPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %v (%s)", err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var (
	literalTjRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*(?:Tj|')`)
	tjArrayRe   = regexp.MustCompile(`\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)
	literalRe   = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)
	octalRe     = regexp.MustCompile(`\\([0-7]{1,3})`)
)

// contentStreamText scans every page's content stream for Tj/TJ
// operators. It only handles literal strings, which covers simply
// encoded PDFs; anything else falls through to OCR.
func contentStreamText(path string, pageCount int) (string, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for page := 1; page <= pageCount; page++ {
		reader, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil {
			continue
		}
		content, err := io.ReadAll(reader)
		if err != nil {
			continue
		}

		stream := string(content)
		for _, m := range literalTjRe.FindAllStringSubmatch(stream, -1) {
			b.WriteString(decodePDFString(m[1]))
			b.WriteString(" ")
		}
		for _, m := range tjArrayRe.FindAllStringSubmatch(stream, -1) {
			for _, lit := range literalRe.FindAllStringSubmatch(m[1], -1) {
				b.WriteString(decodePDFString(lit[1]))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// decodePDFString resolves the escape sequences of a PDF literal
// string.
func decodePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n", `\r`, "\r", `\t`, "\t",
		`\(`, "(", `\)`, ")", `\\`, `\`,
	)
	s = replacer.Replace(s)
	return octalRe.ReplaceAllStringFunc(s, func(m string) string {
		code, err := strconv.ParseInt(m[1:], 8, 32)
		if err != nil {
			return m
		}
		return string(rune(code))
	})
}
