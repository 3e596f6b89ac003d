package extract

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/docpipe/docpipe/internal/config"
)

// sheet is one table of cell values.
type sheet struct {
	Name string
	Rows [][]string
}

// TabularExtractor reads CSV/TSV files and XLSX/ODS workbooks and
// renders them to a configurable textual form.
type TabularExtractor struct {
	exts extensionSet
	cfg  config.TabularConfig
}

var _ Extractor = (*TabularExtractor)(nil)

// NewTabularExtractor creates the spreadsheet extractor.
func NewTabularExtractor(cfg config.TabularConfig) *TabularExtractor {
	return &TabularExtractor{
		exts: newExtensionSet(".csv", ".tsv", ".xlsx", ".xlsm", ".ods"),
		cfg:  cfg,
	}
}

func (e *TabularExtractor) Name() string                { return "tabular" }
func (e *TabularExtractor) Available() bool             { return true }
func (e *TabularExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

func (e *TabularExtractor) Extract(path string) Result {
	var (
		sheets []sheet
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		sheets, err = readDelimited(path, ',')
	case ".tsv":
		sheets, err = readDelimited(path, '\t')
	case ".xlsx", ".xlsm":
		sheets, err = readXLSX(path)
	case ".ods":
		sheets, err = readODS(path)
	default:
		return Failure(e.Name(), fmt.Sprintf("unsupported extension %q", filepath.Ext(path)))
	}
	if err != nil {
		return Failure(e.Name(), err.Error())
	}
	if len(sheets) == 0 {
		return Failure(e.Name(), "no tables found")
	}

	var parts []string
	totalRows := 0
	for _, s := range sheets {
		totalRows += len(s.Rows)
		rendered, renderErr := renderSheet(s, e.cfg.Format)
		if renderErr != nil {
			return Failure(e.Name(), renderErr.Error())
		}
		if len(sheets) > 1 {
			rendered = fmt.Sprintf("## Sheet: %s\n\n%s", s.Name, rendered)
		}
		if e.cfg.IncludeStats {
			rendered += "\n" + sheetStats(s)
		}
		parts = append(parts, rendered)
	}

	result := Result{
		Text:       strings.Join(parts, "\n\n"),
		Success:    true,
		Confidence: 0.95,
	}
	result.SetMeta("sheet_count", len(sheets))
	result.SetMeta("row_count", totalRows)
	result.SetMeta("format", e.cfg.Format)
	return result
}

func readDelimited(path string, comma rune) ([]sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []sheet{{Name: name, Rows: rows}}, nil
}

// readXLSX parses the minimal OOXML spreadsheet subset: shared strings
// plus per-worksheet cell values.
func readXLSX(path string) ([]sheet, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook failed: %w", err)
	}
	defer archive.Close()

	shared, err := readSharedStrings(&archive.Reader)
	if err != nil {
		return nil, err
	}
	names := readSheetNames(&archive.Reader)

	var sheetFiles []*zip.File
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheetFiles = append(sheetFiles, f)
		}
	}
	sort.Slice(sheetFiles, func(i, j int) bool { return sheetFiles[i].Name < sheetFiles[j].Name })

	var sheets []sheet
	for i, f := range sheetFiles {
		rows, err := readWorksheet(f, shared)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("Sheet%d", i+1)
		if i < len(names) {
			name = names[i]
		}
		sheets = append(sheets, sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

func openZipEntry(r *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range r.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, os.ErrNotExist
}

func readSharedStrings(r *zip.Reader) ([]string, error) {
	rc, err := openZipEntry(r, "xl/sharedStrings.xml")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()

	var sst struct {
		Items []struct {
			Texts []string `xml:"t"`
			Runs  []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"si"`
	}
	if err := xml.NewDecoder(rc).Decode(&sst); err != nil {
		return nil, fmt.Errorf("shared strings parse failed: %w", err)
	}

	strs := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		var b strings.Builder
		for _, t := range item.Texts {
			b.WriteString(t)
		}
		for _, run := range item.Runs {
			b.WriteString(run.Text)
		}
		strs[i] = b.String()
	}
	return strs, nil
}

func readSheetNames(r *zip.Reader) []string {
	rc, err := openZipEntry(r, "xl/workbook.xml")
	if err != nil {
		return nil
	}
	defer rc.Close()

	var wb struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheets>sheet"`
	}
	if err := xml.NewDecoder(rc).Decode(&wb); err != nil {
		return nil
	}

	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return names
}

func readWorksheet(f *zip.File, shared []string) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var ws struct {
		Rows []struct {
			Cells []struct {
				Ref    string `xml:"r,attr"`
				Type   string `xml:"t,attr"`
				Value  string `xml:"v"`
				Inline string `xml:"is>t"`
			} `xml:"c"`
		} `xml:"sheetData>row"`
	}
	if err := xml.NewDecoder(rc).Decode(&ws); err != nil {
		return nil, fmt.Errorf("worksheet parse failed: %w", err)
	}

	var rows [][]string
	for _, r := range ws.Rows {
		var row []string
		for _, c := range r.Cells {
			col := columnIndex(c.Ref)
			for len(row) <= col {
				row = append(row, "")
			}

			switch c.Type {
			case "s":
				idx, err := strconv.Atoi(c.Value)
				if err == nil && idx >= 0 && idx < len(shared) {
					row[col] = shared[idx]
				}
			case "inlineStr":
				row[col] = c.Inline
			default:
				row[col] = c.Value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex converts the column letters of a cell reference like
// "BC12" to a zero-based index.
func columnIndex(ref string) int {
	col := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A') + 1
	}
	if col == 0 {
		return 0
	}
	return col - 1
}

// readODS parses the OpenDocument spreadsheet content stream.
func readODS(path string) ([]sheet, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook failed: %w", err)
	}
	defer archive.Close()

	rc, err := openZipEntry(&archive.Reader, "content.xml")
	if err != nil {
		return nil, fmt.Errorf("content.xml missing: %w", err)
	}
	defer rc.Close()

	var content struct {
		Tables []struct {
			Name string `xml:"name,attr"`
			Rows []struct {
				Cells []struct {
					Repeated string   `xml:"number-columns-repeated,attr"`
					Text     []string `xml:"p"`
				} `xml:"table-cell"`
			} `xml:"table-row"`
		} `xml:"body>spreadsheet>table"`
	}
	if err := xml.NewDecoder(rc).Decode(&content); err != nil {
		return nil, fmt.Errorf("content parse failed: %w", err)
	}

	var sheets []sheet
	for _, table := range content.Tables {
		var rows [][]string
		for _, r := range table.Rows {
			var row []string
			for _, c := range r.Cells {
				value := strings.Join(c.Text, "\n")
				repeat := 1
				if c.Repeated != "" {
					if n, err := strconv.Atoi(c.Repeated); err == nil && n > 1 && n < 1000 {
						repeat = n
					}
				}
				for i := 0; i < repeat; i++ {
					row = append(row, value)
				}
			}
			// Trailing empty cells from column repetition carry no data.
			for len(row) > 0 && row[len(row)-1] == "" {
				row = row[:len(row)-1]
			}
			rows = append(rows, row)
		}
		sheets = append(sheets, sheet{Name: table.Name, Rows: rows})
	}
	return sheets, nil
}

func renderSheet(s sheet, format string) (string, error) {
	switch format {
	case "markdown":
		return renderMarkdown(s.Rows), nil
	case "csv":
		var b strings.Builder
		w := csv.NewWriter(&b)
		if err := w.WriteAll(s.Rows); err != nil {
			return "", fmt.Errorf("csv render failed: %w", err)
		}
		return b.String(), nil
	case "json":
		data, err := json.MarshalIndent(rowsToObjects(s.Rows), "", "  ")
		if err != nil {
			return "", fmt.Errorf("json render failed: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown tabular format %q", format)
	}
}

func renderMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = strings.ReplaceAll(row[i], "|", "\\|")
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}

	writeRow(rows[0])
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}

func rowsToObjects(rows [][]string) []map[string]string {
	if len(rows) == 0 {
		return nil
	}

	header := rows[0]
	objects := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		obj := make(map[string]string, len(row))
		for i, cell := range row {
			key := fmt.Sprintf("col_%d", i+1)
			if i < len(header) && header[i] != "" {
				key = header[i]
			}
			obj[key] = cell
		}
		objects = append(objects, obj)
	}
	return objects
}

// sheetStats summarizes a sheet: dimensions and how many cells parse
// as numbers.
func sheetStats(s sheet) string {
	cols, numeric, filled := 0, 0, 0
	for _, row := range s.Rows {
		if len(row) > cols {
			cols = len(row)
		}
		for _, cell := range row {
			if cell == "" {
				continue
			}
			filled++
			if _, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64); err == nil {
				numeric++
			}
		}
	}
	return fmt.Sprintf("Stats: %d rows x %d columns, %d filled cells, %d numeric", len(s.Rows), cols, filled, numeric)
}
