package core

// positional.go reads bulk-add rows addressed by column position rather than
// by header. This path is looser than the header-driven upload:
// rows without a product name are skipped, prices may carry currency symbols
// and thousands separators, unreadable prices become 0, and
// unreadable dates are left zero. It does not run ValidateRow.

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Positional bulk-add columns.
const (
	PosProductName = iota
	PosRegion
	PosUnitPrice
	PosMinimumPrice
	PosDateRange
	PosStatus
	PosQuoteName
	PosProjectName
	PosUOM
	PosContractID
	PosGeneratorID
	PosVendorID
	PosContainerSize
)

// dateRangeSeparator splits "2024-01-01 - 2024-12-31".
const dateRangeSeparator = " - "

// ParsePositionalRows converts bulk-add rows into items. Rows whose first
// cell is blank are dropped.
func ParsePositionalRows(rows [][]string) []PricingItem {
	items := make([]PricingItem, 0, len(rows))
	for _, row := range rows {
		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		name := cell(PosProductName)
		if name == "" {
			continue
		}

		effective, expiration := ParseDateRange(cell(PosDateRange))
		status := strings.ToLower(cell(PosStatus))
		if status == "" {
			status = StatusActive
		}

		items = append(items, PricingItem{
			ProductName:    name,
			Region:         cell(PosRegion),
			UnitPrice:      lenientPrice(cell(PosUnitPrice)),
			MinimumPrice:   lenientPrice(cell(PosMinimumPrice)),
			EffectiveDate:  effective,
			ExpirationDate: expiration,
			Status:         status,
			QuoteName:      cell(PosQuoteName),
			ProjectName:    cell(PosProjectName),
			UOM:            cell(PosUOM),
			ContractID:     cell(PosContractID),
			GeneratorID:    cell(PosGeneratorID),
			VendorID:       cell(PosVendorID),
			ContainerSize:  cell(PosContainerSize),
		})
	}
	return items
}

// lenientPrice reads formatted amounts like "$1,200.00"; unreadable cells are 0.
func lenientPrice(s string) decimal.Decimal {
	d, _ := ParseDecimal(s)
	return d
}

// ParseDateRange splits a "YYYY-MM-DD - YYYY-MM-DD" cell. A side that is
// missing or unreadable comes back as the zero time.
func ParseDateRange(s string) (effective, expiration time.Time) {
	start, end, _ := strings.Cut(s, dateRangeSeparator)
	effective, _ = ParseDate(start)
	expiration, _ = ParseDate(end)
	return effective, expiration
}
