package core

// validation.go checks mapped rows before anything is stored.
//
// Rules run in a fixed order and stop at the first failure, so each bad row
// yields exactly one message. Every row is still checked, and a batch with
// any failure is rejected whole.

import (
	"slices"
	"strings"
)

// Row validation messages.
const (
	MsgProductNameRequired    = "Product name is required"
	MsgRegionRequired         = "Region is required"
	MsgUnitPricePositive      = "Unit price must be greater than 0"
	MsgMinimumPricePositive   = "Minimum price must be greater than 0"
	MsgEffectiveDateRequired  = "Effective date is required"
	MsgExpirationDateRequired = "Expiration date is required"
	MsgStatusRequired         = "Status is required"
	MsgStatusInvalid          = "Status must be one of: active, inactive, pending, draft"
	MsgEffectiveDateInvalid   = "Invalid effective date format"
	MsgExpirationDateInvalid  = "Invalid expiration date format"
	MsgDateOrder              = "Expiration date must be after effective date"
)

// ValidateRow converts one mapped row into a PricingItem, or reports the
// first rule it breaks. Prices that are missing or unreadable count as 0.
func ValidateRow(m MappedRow) (PricingItem, *RowError) {
	fail := func(msg string) (PricingItem, *RowError) {
		return PricingItem{}, &RowError{Row: m.Line, Message: msg}
	}

	productName := strings.TrimSpace(m.ProductName)
	if productName == "" {
		return fail(MsgProductNameRequired)
	}
	region := strings.TrimSpace(m.Region)
	if region == "" {
		return fail(MsgRegionRequired)
	}

	unitPrice := CoercePrice(m.UnitPrice)
	if !unitPrice.IsPositive() {
		return fail(MsgUnitPricePositive)
	}
	minimumPrice := CoercePrice(m.MinimumPrice)
	if !minimumPrice.IsPositive() {
		return fail(MsgMinimumPricePositive)
	}

	if strings.TrimSpace(m.EffectiveDate) == "" {
		return fail(MsgEffectiveDateRequired)
	}
	if strings.TrimSpace(m.ExpirationDate) == "" {
		return fail(MsgExpirationDateRequired)
	}

	status := strings.ToLower(strings.TrimSpace(m.Status))
	if status == "" {
		return fail(MsgStatusRequired)
	}
	if !slices.Contains(ValidStatuses, status) {
		return fail(MsgStatusInvalid)
	}

	effective, ok := ParseDate(m.EffectiveDate)
	if !ok {
		return fail(MsgEffectiveDateInvalid)
	}
	expiration, ok := ParseDate(m.ExpirationDate)
	if !ok {
		return fail(MsgExpirationDateInvalid)
	}
	if !effective.Before(expiration) {
		return fail(MsgDateOrder)
	}

	return PricingItem{
		ProductName:    productName,
		Region:         region,
		UnitPrice:      unitPrice,
		MinimumPrice:   minimumPrice,
		EffectiveDate:  effective,
		ExpirationDate: expiration,
		Status:         status,
		QuoteName:      optional(m.QuoteName),
		ProjectName:    optional(m.ProjectName),
		UOM:            optional(m.UOM),
		ContractID:     optional(m.ContractID),
		GeneratorID:    optional(m.GeneratorID),
		VendorID:       optional(m.VendorID),
		ContainerSize:  optional(m.ContainerSize),
		BillingUOM:     optional(m.BillingUOM),
		PricingType:    optional(m.PricingType),
		PricePriority:  optional(m.PricePriority),
	}, nil
}

// ValidateBatch validates every row. If any row fails, no items are returned
// and the error is a ValidationErrors holding every failure in row order.
func ValidateBatch(rows []MappedRow) ([]PricingItem, error) {
	items := make([]PricingItem, 0, len(rows))
	var errs ValidationErrors

	for _, m := range rows {
		item, rowErr := ValidateRow(m)
		if rowErr != nil {
			errs = append(errs, *rowErr)
			continue
		}
		items = append(items, item)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return items, nil
}

func optional(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
