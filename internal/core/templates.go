package core

import "github.com/JonMunkholm/pricing/internal/sheet"

// Template download metadata.
const (
	TemplateFilename  = "pricing_template.xlsx"
	TemplateSheetName = "Pricing Template"
)

// TemplateHeader is the header row of the downloadable pricing template.
var TemplateHeader = []string{
	"Header Name",
	"Description",
	"Effective Date",
	"Expiration Date",
	"Status",
	"Invoice Minimum",
	"Container 55G Minimum",
	"Absolute Container Minimum",
}

var templateWidths = []float64{25, 45, 15, 15, 10, 16, 22, 26}

// templateExamples are filled in under the header so users see the expected
// shape of each column.
var templateExamples = [][]any{
	{"Standard Pricing 2024", "Standard pricing for customer services", "2024-01-01", "2024-12-31", StatusActive, 500, 200, 100},
	{"Premium Pricing 2024", "Premium pricing for high-volume customers", "2024-01-01", "2024-12-31", StatusActive, 1000, 400, 200},
	{"Q1 Promotional Pricing", "Promotional pricing for first quarter", "2024-01-01", "2024-03-31", StatusDraft, 250, 100, 50},
}

// TemplateWorkbook describes the pricing template spreadsheet.
func TemplateWorkbook() sheet.Workbook {
	rows := make([][]any, len(templateExamples))
	for i, r := range templateExamples {
		rows[i] = append([]any(nil), r...)
	}
	return sheet.Workbook{
		SheetName: TemplateSheetName,
		Header:    append([]string(nil), TemplateHeader...),
		Widths:    append([]float64(nil), templateWidths...),
		Rows:      rows,
	}
}
