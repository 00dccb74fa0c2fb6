package table

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/groupfill-cli/internal/utils"
)

// Output formats understood by Write.
const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatXLSX = "xlsx"
)

// WriteOptions controls how Write encodes a table.
type WriteOptions struct {
	// Format is csv, tsv or xlsx. If empty, it is taken from the path extension.
	Format string
	// Delimiter overrides the CSV delimiter.
	Delimiter rune
	// Sheet names the XLSX sheet.
	Sheet string
}

// FormatFromPath maps a file extension to an output format, defaulting to csv.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".tsv":
		return FormatTSV
	default:
		return FormatCSV
	}
}

// Read loads a table, choosing the reader by extension.
func Read(path string, opt ReadOptions) (*Table, error) {
	if FormatFromPath(path) == FormatXLSX {
		return ReadXLSX(path, opt.SheetName, opt.SheetIndex)
	}
	return ReadCSV(path, opt)
}

// Write stores t at path. Text formats are written atomically.
func Write(path string, t *Table, opt WriteOptions) error {
	format := strings.ToLower(strings.TrimSpace(opt.Format))
	if format == "" {
		format = FormatFromPath(path)
	}
	switch format {
	case FormatXLSX:
		return WriteXLSX(path, t, opt.Sheet)
	case FormatCSV, FormatTSV:
		delim := opt.Delimiter
		if delim == 0 {
			delim = ','
			if format == FormatTSV {
				delim = '\t'
			}
		}
		var buf bytes.Buffer
		if err := WriteCSV(&buf, t, delim); err != nil {
			return err
		}
		return utils.SafeWriteFile(path, buf.Bytes())
	default:
		return fmt.Errorf("unsupported output format: %s (use csv|tsv|xlsx)", opt.Format)
	}
}
