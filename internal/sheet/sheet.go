// Package sheet converts between spreadsheet bytes and grids of string cells.
//
// Three input shapes are read:
//
//   - xlsx workbooks (first sheet only), through unioffice
//   - csv files, through encoding/csv with lazy quoting
//   - tab-separated text, either a .tsv/.txt upload or text pasted into the form
//
// Every decoder returns a rectangular grid: cells are trimmed strings, blank
// cells are "", and short rows are padded to the widest row. Decoding has no
// side effects, so the same bytes always produce the same grid.
package sheet

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format identifies the tabular encoding of an input.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatCSV
	FormatTSV
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	default:
		return "unknown"
	}
}

// Sentinel errors returned by this package.
var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrNoRows            = errors.New("no rows found")
	ErrNoSheets          = errors.New("workbook has no sheets")
)

// XLSXContentType is the media type of an xlsx workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var extensionFormats = map[string]Format{
	".xlsx": FormatXLSX,
	".csv":  FormatCSV,
	".tsv":  FormatTSV,
	".txt":  FormatTSV,
}

var contentTypeFormats = map[string]Format{
	XLSXContentType:             FormatXLSX,
	"text/csv":                  FormatCSV,
	"application/csv":           FormatCSV,
	"text/tab-separated-values": FormatTSV,
}

// DetectFormat picks a format from the file extension, falling back to the
// declared content type. Anything else yields ErrUnsupportedFormat.
func DetectFormat(filename, contentType string) (Format, error) {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, nil
	}

	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if f, ok := contentTypeFormats[mediaType]; ok {
		return f, nil
	}

	return FormatUnknown, ErrUnsupportedFormat
}

// Decode reads data in the given format into a grid.
func Decode(f Format, data []byte) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)

	switch f {
	case FormatXLSX:
		rows, err = DecodeXLSX(data)
	case FormatCSV:
		rows, err = DecodeCSV(data)
	case FormatTSV:
		rows = DecodePaste(string(sanitizeUTF8(trimBOM(data))))
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// normalize trims every cell and pads rows to the widest row.
func normalize(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, width)
		for j, v := range row {
			cells[j] = strings.TrimSpace(v)
		}
		out[i] = cells
	}
	return out
}
