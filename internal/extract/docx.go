package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DocxExtractor reads DOCX/DOCM word-processing documents by walking
// the main document part.
type DocxExtractor struct {
	exts extensionSet
}

var _ Extractor = (*DocxExtractor)(nil)

// NewDocxExtractor creates the DOCX extractor.
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{exts: newExtensionSet(".docx", ".docm")}
}

func (e *DocxExtractor) Name() string                { return "docx" }
func (e *DocxExtractor) Available() bool             { return true }
func (e *DocxExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

func (e *DocxExtractor) Extract(path string) Result {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("open failed: %v", err))
	}
	defer archive.Close()

	rc, err := openZipEntry(&archive.Reader, "word/document.xml")
	if err != nil {
		return Failure(e.Name(), "word/document.xml missing")
	}
	defer rc.Close()

	text, paragraphs, err := wordMLText(rc)
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("document parse failed: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return Failure(e.Name(), "no text content")
	}

	result := Result{
		Text:       text,
		Success:    true,
		Confidence: 0.95,
	}
	result.SetMeta("paragraph_count", paragraphs)
	return result
}

// wordMLText walks a WordprocessingML stream collecting run text.
// Paragraph ends become newlines, tabs and breaks are preserved.
func wordMLText(r io.Reader) (string, int, error) {
	decoder := xml.NewDecoder(r)

	var b strings.Builder
	paragraphs := 0
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs++
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), paragraphs, nil
}
