package extract

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/docpipe/docpipe/internal/config"
)

// OCRExtractor runs tesseract on images and on rasterized PDF pages.
// Optional preprocessing (grayscale, contrast boost, sharpen) is
// applied before recognition.
type OCRExtractor struct {
	exts          extensionSet
	cfg           config.OCRConfig
	tesseractPath string
	pdftoppmPath  string
}

var _ Extractor = (*OCRExtractor)(nil)

// NewOCRExtractor creates the OCR extractor, probing for the external
// tools it depends on.
func NewOCRExtractor(cfg config.OCRConfig) *OCRExtractor {
	tesseract, _ := exec.LookPath("tesseract")
	pdftoppm, _ := exec.LookPath("pdftoppm")
	return &OCRExtractor{
		exts:          newExtensionSet(".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp", ".gif", ".pdf"),
		cfg:           cfg,
		tesseractPath: tesseract,
		pdftoppmPath:  pdftoppm,
	}
}

func (e *OCRExtractor) Name() string                { return "ocr" }
func (e *OCRExtractor) Available() bool             { return e.tesseractPath != "" }
func (e *OCRExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

func (e *OCRExtractor) Extract(path string) Result {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return e.extractPDF(path)
	}
	return e.extractImage(path)
}

func (e *OCRExtractor) extractImage(path string) Result {
	imagePath := path
	if e.cfg.Preprocess.Grayscale || e.cfg.Preprocess.ContrastBoost || e.cfg.Preprocess.Sharpen {
		preprocessed, err := e.preprocess(path)
		if err != nil {
			return Failure(e.Name(), fmt.Sprintf("preprocessing failed: %v", err))
		}
		defer os.Remove(preprocessed)
		imagePath = preprocessed
	}

	text, err := e.runTesseract(imagePath)
	if err != nil {
		return Failure(e.Name(), err.Error())
	}

	result := Result{
		Text:       strings.TrimSpace(text),
		Success:    true,
		Confidence: 0.7,
	}
	result.SetMeta("languages", strings.Join(e.cfg.Languages, "+"))
	return result
}

func (e *OCRExtractor) extractPDF(path string) Result {
	if e.pdftoppmPath == "" {
		return Failure(e.Name(), "pdftoppm not installed, cannot rasterize pdf")
	}

	tmpDir, err := os.MkdirTemp("", "docpipe-ocr-*")
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("temp dir failed: %v", err))
	}
	defer os.RemoveAll(tmpDir)

	dpi := e.cfg.DPI
	if dpi <= 0 {
		dpi = 300
	}
	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.Command(e.pdftoppmPath, "-r", strconv.Itoa(dpi), "-png", path, prefix)
	if output, err := cmd.CombinedOutput(); err != nil {
		return Failure(e.Name(), fmt.Sprintf("pdftoppm failed: %v (%s)", err, strings.TrimSpace(string(output))))
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(pages) == 0 {
		return Failure(e.Name(), "rasterization produced no pages")
	}
	sort.Strings(pages)

	var parts []string
	for _, page := range pages {
		text, err := e.runTesseract(page)
		if err != nil {
			return Failure(e.Name(), err.Error())
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return Failure(e.Name(), "ocr produced no text")
	}

	result := Result{
		Text:       strings.Join(parts, "\n\n"),
		Success:    true,
		Confidence: 0.65,
	}
	result.SetMeta("page_count", len(pages))
	result.SetMeta("dpi", dpi)
	return result
}

func (e *OCRExtractor) runTesseract(imagePath string) (string, error) {
	args := []string{imagePath, "stdout"}
	if len(e.cfg.Languages) > 0 {
		args = append(args, "-l", strings.Join(e.cfg.Languages, "+"))
	}
	if e.cfg.PageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PageSegMode))
	}

	out, err := exec.Command(e.tesseractPath, args...).Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %v", err)
	}
	return string(out), nil
}

// preprocess decodes the image, applies the configured transforms, and
// writes a PNG for tesseract.
func (e *OCRExtractor) preprocess(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode failed: %w", err)
	}

	gray := toGray(img)
	if e.cfg.Preprocess.ContrastBoost {
		gray = stretchContrast(gray)
	}
	if e.cfg.Preprocess.Sharpen {
		gray = sharpen(gray)
	}

	out, err := os.CreateTemp("", "docpipe-pre-*.png")
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := png.Encode(out, gray); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("encode failed: %w", err)
	}
	return out.Name(), nil
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// stretchContrast maps the observed intensity range onto [0, 255].
func stretchContrast(gray *image.Gray) *image.Gray {
	min, max := uint8(255), uint8(0)
	for _, p := range gray.Pix {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	if max <= min {
		return gray
	}

	out := image.NewGray(gray.Bounds())
	scale := 255.0 / float64(max-min)
	for i, p := range gray.Pix {
		out.Pix[i] = uint8(float64(p-min) * scale)
	}
	return out
}

// sharpen applies a 3x3 unsharp kernel.
func sharpen(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	copy(out.Pix, gray.Pix)

	kernel := [3][3]int{{0, -1, 0}, {-1, 5, -1}, {0, -1, 0}}
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			sum := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sum += int(gray.GrayAt(x+kx, y+ky).Y) * kernel[ky+1][kx+1]
				}
			}
			if sum < 0 {
				sum = 0
			}
			if sum > 255 {
				sum = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(sum)})
		}
	}
	return out
}
