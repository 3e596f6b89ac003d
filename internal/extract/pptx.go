package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PptxExtractor reads PPTX/PPTM presentations, emitting slide text in
// slide order with a per-slide header.
type PptxExtractor struct {
	exts extensionSet
}

var _ Extractor = (*PptxExtractor)(nil)

// NewPptxExtractor creates the PPTX extractor.
func NewPptxExtractor() *PptxExtractor {
	return &PptxExtractor{exts: newExtensionSet(".pptx", ".pptm")}
}

func (e *PptxExtractor) Name() string                { return "pptx" }
func (e *PptxExtractor) Available() bool             { return true }
func (e *PptxExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

func (e *PptxExtractor) Extract(path string) Result {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("open failed: %v", err))
	}
	defer archive.Close()

	type slidePart struct {
		number int
		file   *zip.File
	}
	var slides []slidePart
	for _, f := range archive.File {
		if m := slidePartRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slidePart{number: n, file: f})
		}
	}
	if len(slides) == 0 {
		return Failure(e.Name(), "no slides found")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var parts []string
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return Failure(e.Name(), fmt.Sprintf("slide %d open failed: %v", s.number, err))
		}
		text, err := drawingMLText(rc)
		rc.Close()
		if err != nil {
			return Failure(e.Name(), fmt.Sprintf("slide %d parse failed: %v", s.number, err))
		}
		if text != "" {
			parts = append(parts, fmt.Sprintf("## Slide %d\n\n%s", s.number, text))
		}
	}
	if len(parts) == 0 {
		return Failure(e.Name(), "no text content")
	}

	result := Result{
		Text:       strings.Join(parts, "\n\n"),
		Success:    true,
		Confidence: 0.9,
	}
	result.SetMeta("slide_count", len(slides))
	return result
}

// drawingMLText collects run text from a DrawingML slide part. Each
// paragraph (a:p) becomes one line.
func drawingMLText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var b strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}
