// Package spreadsheet reads import files (CSV and .xlsx) into header-keyed rows
// and writes exports in the same two formats.
package spreadsheet

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"

	"github.com/iota-uz/itam/pkg/serrors"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLS  = "application/vnd.ms-excel"
)

var (
	ErrUnreadableFile    = serrors.NewError("IMPORT_UNREADABLE_FILE", "The file could not be read", "Import.Errors.Unreadable")
	ErrLegacyExcel       = serrors.NewError("IMPORT_LEGACY_EXCEL", "Legacy .xls files are not supported, save the sheet as .xlsx or CSV", "Import.Errors.LegacyExcel")
	ErrUnsupportedFormat = serrors.NewError("IMPORT_UNSUPPORTED_FORMAT", "Only CSV and .xlsx files can be imported", "Import.Errors.UnsupportedFormat")
	ErrEmptyFile         = serrors.NewError("IMPORT_EMPTY_FILE", "The file has no header row", "Import.Errors.Empty")
)

// File is an uploaded spreadsheet held in memory.
type File struct {
	Name string
	Data []byte
}

// Open reads a file from disk.
func Open(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrap(ErrUnreadableFile.WithMessage("%s: %v", filepath.Base(path), err), "open")
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Detect picks the format from the content, using the extension to settle
// plain-text files.
func Detect(f File) (Format, error) {
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	mt := mimetype.Detect(f.Data)

	switch {
	case mt.Is(mimeXLSX) || (ext == ".xlsx" && mt.Is("application/zip")):
		return FormatXLSX, nil
	case mt.Is(mimeXLS) || ext == ".xls":
		return "", ErrLegacyExcel
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return FormatCSV, nil
		}
	}
	if ext == ".csv" {
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat.WithMessage("Only CSV and .xlsx files can be imported, got %s", mt.String())
}
