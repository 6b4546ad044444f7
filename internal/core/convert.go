package core

// convert.go turns raw spreadsheet cells into typed values.
//
// Cells arrive the way users type them: dates in US, EU, or ISO order,
// prices with currency symbols and thousands separators, accounting
// negatives, and Excel formula prefixes. Conversion never fails loudly;
// callers get a zero value plus ok=false and decide what that means.
// CoercePrice is the exception to the cleanup: validated uploads take plain
// decimals only.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// plainDecimalRegex is a bare decimal: optional sign, digits, optional fraction.
var plainDecimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are moved
// back a century.
var TwoDigitYearPivot = 20

// DateLayout is the canonical date format for output and the positional path.
const DateLayout = "2006-01-02"

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		DateLayout, "2006-1-2", "2006/01/02", "2006.01.02",
		"2006-01-02 15:04:05", time.RFC3339,
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// excelEpoch is day zero of the 1900 date system as Excel counts it.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Excel serials outside this range (1954-10-03 to 2119-01-10) are not read
// as dates.
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// ParseDate reads a calendar date in any of the accepted layouts.
// Unformatted Excel date serials between minExcelSerial and maxExcelSerial
// are accepted too.
// The result is truncated to midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return truncateDay(t), true
		}
	}

	if n, err := strconv.Atoi(s); err == nil && n >= minExcelSerial && n <= maxExcelSerial {
		return excelEpoch.AddDate(0, 0, n), true
	}

	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDecimal reads a money or quantity cell. Handles currency symbols,
// thousands separators, and accounting format (parentheses for negative).
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CoercePrice reads a price cell as a plain decimal number. Anything else,
// including currency symbols, thousands separators and formula prefixes, is 0.
// Callers reject non-positive prices, so a bad cell fails the same check as
// an explicit zero.
func CoercePrice(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if !plainDecimalRegex.MatchString(s) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CleanCell removes common spreadsheet export artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix (="..."), and wrapping quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
