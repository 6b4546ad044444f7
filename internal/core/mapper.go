package core

// mapper.go binds header cells to logical pricing fields.
//
// Required columns match loosely: the header only has to contain the field
// name, case-insensitively, so "Unit Price (USD)" still maps to Unit Price.
// Optional columns must match their literal header text. Columns that match
// nothing are ignored.

import "strings"

type columnField struct {
	name string
	set  func(r *MappedRow, v string)
}

// requiredColumns are the logical fields every pricing upload must carry, in
// the order missing columns are reported.
var requiredColumns = []columnField{
	{"Product Name", func(r *MappedRow, v string) { r.ProductName = v }},
	{"Region", func(r *MappedRow, v string) { r.Region = v }},
	{"Unit Price", func(r *MappedRow, v string) { r.UnitPrice = v }},
	{"Minimum Price", func(r *MappedRow, v string) { r.MinimumPrice = v }},
	{"Effective Date", func(r *MappedRow, v string) { r.EffectiveDate = v }},
	{"Expiration Date", func(r *MappedRow, v string) { r.ExpirationDate = v }},
	{"Status", func(r *MappedRow, v string) { r.Status = v }},
}

// optionalColumns are descriptive fields picked up when present.
var optionalColumns = []columnField{
	{"Quote Name", func(r *MappedRow, v string) { r.QuoteName = &v }},
	{"Project Name", func(r *MappedRow, v string) { r.ProjectName = &v }},
	{"UOM", func(r *MappedRow, v string) { r.UOM = &v }},
	{"Contract ID", func(r *MappedRow, v string) { r.ContractID = &v }},
	{"Generator ID", func(r *MappedRow, v string) { r.GeneratorID = &v }},
	{"Vendor ID", func(r *MappedRow, v string) { r.VendorID = &v }},
	{"Container Size", func(r *MappedRow, v string) { r.ContainerSize = &v }},
	{"Billing UOM", func(r *MappedRow, v string) { r.BillingUOM = &v }},
	{"Pricing Type", func(r *MappedRow, v string) { r.PricingType = &v }},
	{"Price Priority", func(r *MappedRow, v string) { r.PricePriority = &v }},
}

// RequiredColumnNames lists the required upload columns in reporting order.
func RequiredColumnNames() []string {
	names := make([]string, len(requiredColumns))
	for i, f := range requiredColumns {
		names[i] = f.name
	}
	return names
}

type boundColumn struct {
	index int
	field columnField
}

// MapColumns reads the first row of rows as the header and maps every
// following non-blank row. MappedRow.Line is the spreadsheet row number, so
// the first data row is line 2 and blank rows still count.
//
// Returns *SchemaError naming every required column the header lacks.
func MapColumns(rows [][]string) ([]MappedRow, error) {
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: RequiredColumnNames()}
	}

	bound, err := bindHeader(rows[0])
	if err != nil {
		return nil, err
	}

	mapped := make([]MappedRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}

		m := MappedRow{Line: i + 2}
		for _, b := range bound {
			v := ""
			if b.index < len(row) {
				v = row[b.index]
			}
			b.field.set(&m, v)
		}
		mapped = append(mapped, m)
	}

	return mapped, nil
}

func bindHeader(header []string) ([]boundColumn, error) {
	var (
		bound   []boundColumn
		missing []string
	)

	for _, f := range requiredColumns {
		idx := findContaining(header, f.name)
		if idx < 0 {
			missing = append(missing, f.name)
			continue
		}
		bound = append(bound, boundColumn{index: idx, field: f})
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	for _, f := range optionalColumns {
		if idx := findExact(header, f.name); idx >= 0 {
			bound = append(bound, boundColumn{index: idx, field: f})
		}
	}

	return bound, nil
}

// findContaining returns the first header cell containing name, ignoring case.
func findContaining(header []string, name string) int {
	want := strings.ToLower(name)
	for i, h := range header {
		if strings.Contains(strings.ToLower(strings.TrimSpace(h)), want) {
			return i
		}
	}
	return -1
}

func findExact(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
