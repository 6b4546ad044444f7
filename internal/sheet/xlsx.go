package sheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/unidoc/unioffice/measurement"
	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"
)

// DecodeXLSX reads the first sheet of an xlsx workbook. Cells are read with
// their display formatting applied, so dates come back as the user sees them.
// Missing rows and cells inside the used range become blanks.
func DecodeXLSX(data []byte) ([][]string, error) {
	wb, err := spreadsheet.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}

	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	var grid [][]string
	for _, row := range sheets[0].Rows() {
		rowIdx := int(row.RowNumber()) - 1
		if rowIdx < 0 {
			continue
		}
		for len(grid) <= rowIdx {
			grid = append(grid, nil)
		}

		for _, cell := range row.Cells() {
			colName, err := cell.Column()
			if err != nil {
				continue
			}
			colIdx := int(reference.ColumnToIndex(colName))
			for len(grid[rowIdx]) <= colIdx {
				grid[rowIdx] = append(grid[rowIdx], "")
			}
			grid[rowIdx][colIdx] = cell.GetFormattedValue()
		}
	}

	return normalize(grid), nil
}

// Workbook describes a single-sheet xlsx file to write.
type Workbook struct {
	SheetName string
	Header    []string
	// Widths are column widths in characters, by column position.
	Widths []float64
	// Rows hold string, int, or float64 values; numbers are stored as numeric cells.
	Rows [][]any
}

// Encode writes wb as an xlsx workbook to w.
func Encode(w io.Writer, wb Workbook) error {
	book := spreadsheet.New()
	sh := book.AddSheet()
	if wb.SheetName != "" {
		sh.SetName(wb.SheetName)
	}

	header := sh.AddRow()
	for _, h := range wb.Header {
		header.AddCell().SetString(h)
	}

	for _, values := range wb.Rows {
		row := sh.AddRow()
		for _, v := range values {
			cell := row.AddCell()
			switch v := v.(type) {
			case string:
				cell.SetString(v)
			case int:
				cell.SetNumber(float64(v))
			case int64:
				cell.SetNumber(float64(v))
			case float64:
				cell.SetNumber(v)
			case nil:
				cell.SetString("")
			default:
				cell.SetString(fmt.Sprint(v))
			}
		}
	}

	for i, width := range wb.Widths {
		sh.Column(uint32(i + 1)).SetWidth(measurement.Distance(width) * measurement.Character)
	}

	if err := book.Save(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
