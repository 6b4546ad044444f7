package core

import (
	"errors"
	"slices"
	"testing"
)

var fullHeader = []string{
	"Product Name", "Region", "Unit Price", "Minimum Price",
	"Effective Date", "Expiration Date", "Status",
}

func TestMapColumns_ReportsEveryMissingColumn(t *testing.T) {
	rows := [][]string{
		{"Product Name", "Region", "Minimum Price", "Effective Date", "Expiration Date"},
		{"Widget", "West", "5", "2024-01-01", "2024-12-31"},
	}

	_, err := MapColumns(rows)

	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	want := []string{"Unit Price", "Status"}
	if !slices.Equal(se.Missing, want) {
		t.Errorf("Missing = %v, want %v", se.Missing, want)
	}
}

func TestMapColumns_EmptyGrid(t *testing.T) {
	_, err := MapColumns(nil)

	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if !slices.Equal(se.Missing, RequiredColumnNames()) {
		t.Errorf("Missing = %v, want all required columns", se.Missing)
	}
}

func TestMapColumns_LooseRequiredMatch(t *testing.T) {
	rows := [][]string{
		{"status", "EXPIRATION DATE", "Effective Date (YYYY-MM-DD)", "Minimum Price $", "Unit Price (USD)", "Sales Region", "Product Name"},
		{"active", "2024-12-31", "2024-01-01", "5", "10", "West", "Widget"},
	}

	mapped, err := MapColumns(rows)
	if err != nil {
		t.Fatalf("MapColumns() error = %v", err)
	}
	if len(mapped) != 1 {
		t.Fatalf("expected 1 row, got %d", len(mapped))
	}

	m := mapped[0]
	if m.ProductName != "Widget" || m.Region != "West" || m.UnitPrice != "10" ||
		m.MinimumPrice != "5" || m.EffectiveDate != "2024-01-01" ||
		m.ExpirationDate != "2024-12-31" || m.Status != "active" {
		t.Errorf("unexpected mapping: %+v", m)
	}
}

func TestMapColumns_FirstMatchingHeaderWins(t *testing.T) {
	rows := [][]string{
		append([]string{"Region Code"}, fullHeader...),
		{"R-01", "Widget", "West", "10", "5", "2024-01-01", "2024-12-31", "active"},
	}

	mapped, err := MapColumns(rows)
	if err != nil {
		t.Fatalf("MapColumns() error = %v", err)
	}
	if mapped[0].Region != "R-01" {
		t.Errorf("Region = %q, want the first header containing \"region\"", mapped[0].Region)
	}
}

func TestMapColumns_OptionalColumns(t *testing.T) {
	rows := [][]string{
		append(append([]string{}, fullHeader...), "UOM", "quote name"),
		{"Widget", "West", "10", "5", "2024-01-01", "2024-12-31", "active", "EA", "Q-1"},
	}

	mapped, err := MapColumns(rows)
	if err != nil {
		t.Fatalf("MapColumns() error = %v", err)
	}

	m := mapped[0]
	if m.UOM == nil || *m.UOM != "EA" {
		t.Errorf("UOM = %v, want EA", m.UOM)
	}
	if m.QuoteName != nil {
		t.Errorf("QuoteName = %q, want nil for a header that is not an exact match", *m.QuoteName)
	}
	if m.ContractID != nil || m.PricePriority != nil {
		t.Error("absent optional columns should be nil")
	}
}

func TestMapColumns_SkipsBlankRowsKeepingLineNumbers(t *testing.T) {
	rows := [][]string{
		fullHeader,
		{"Widget", "West", "10", "5", "2024-01-01", "2024-12-31", "active"},
		{"", "", "", "", "", "", ""},
		{"  ", ""},
		{"Gadget", "East", "20", "8", "2024-01-01", "2024-12-31", "draft"},
	}

	mapped, err := MapColumns(rows)
	if err != nil {
		t.Fatalf("MapColumns() error = %v", err)
	}
	if len(mapped) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(mapped))
	}
	if mapped[0].Line != 2 {
		t.Errorf("first Line = %d, want 2", mapped[0].Line)
	}
	if mapped[1].Line != 5 {
		t.Errorf("second Line = %d, want 5", mapped[1].Line)
	}
}

func TestMapColumns_ShortRowsReadAsBlank(t *testing.T) {
	rows := [][]string{
		fullHeader,
		{"Widget", "West"},
	}

	mapped, err := MapColumns(rows)
	if err != nil {
		t.Fatalf("MapColumns() error = %v", err)
	}
	if mapped[0].Status != "" || mapped[0].UnitPrice != "" {
		t.Errorf("expected blanks for missing cells, got %+v", mapped[0])
	}
}

func TestMapColumns_HeaderOnly(t *testing.T) {
	mapped, err := MapColumns([][]string{fullHeader})
	if err != nil {
		t.Fatalf("MapColumns() error = %v", err)
	}
	if len(mapped) != 0 {
		t.Errorf("expected no rows, got %d", len(mapped))
	}
}
