package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// Row maps header names to cell values. Cells are trimmed; missing trailing
// cells are absent from the map.
type Row map[string]string

type Sheet struct {
	Header []string
	Rows   []Row
}

// Read parses f into rows keyed by the first non-empty row. Blank rows are skipped.
func Read(f File) (*Sheet, error) {
	format, err := Detect(f)
	if err != nil {
		return nil, err
	}
	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(f.Data)
	default:
		records, err = readCSV(f.Data)
	}
	if err != nil {
		return nil, errors.Wrap(ErrUnreadableFile.WithMessage("%s: %v", f.Name, err), "read")
	}
	return toSheet(records)
}

func readCSV(data []byte) ([][]string, error) {
	br := stripUTF8BOM(bufio.NewReader(bytes.NewReader(data)))

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffDelimiter(data)
	return r.ReadAll()
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// sniffDelimiter picks ';' for exports from locales that use the comma as a decimal separator.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return f.GetRows(sheets[0])
}

func toSheet(records [][]string) (*Sheet, error) {
	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(records[start]))
	for i, h := range records[start] {
		header[i] = strings.TrimSpace(h)
	}

	sheet := &Sheet{Header: header}
	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if _, dup := row[header[i]]; dup {
				continue
			}
			row[header[i]] = strings.TrimSpace(cell)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
