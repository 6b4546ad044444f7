package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupType tags how a submission relates to existing pricing.
type GroupType string

const (
	GroupTypeNew      GroupType = "new"
	GroupTypeAddendum GroupType = "addendum"
)

// ParseGroupType validates a submission type tag.
func ParseGroupType(s string) (GroupType, bool) {
	switch GroupType(s) {
	case GroupTypeNew, GroupTypeAddendum:
		return GroupType(s), true
	}
	return "", false
}

// Item and group statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
	StatusDraft    = "draft"
)

// ValidStatuses lists accepted statuses in display order.
var ValidStatuses = []string{StatusActive, StatusInactive, StatusPending, StatusDraft}

// Customer is the owner of pricing groups. Only searched here, never edited.
type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// PricingItem is one priced product/region/date-range line.
type PricingItem struct {
	ID             string          `json:"id"`
	GroupID        string          `json:"groupId"`
	ProductName    string          `json:"productName"`
	Region         string          `json:"region"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	MinimumPrice   decimal.Decimal `json:"minimumPrice"`
	EffectiveDate  time.Time       `json:"effectiveDate"`
	ExpirationDate time.Time       `json:"expirationDate"`
	Status         string          `json:"status"`

	QuoteName     string `json:"quoteName,omitempty"`
	ProjectName   string `json:"projectName,omitempty"`
	UOM           string `json:"uom,omitempty"`
	ContractID    string `json:"contractId,omitempty"`
	GeneratorID   string `json:"generatorId,omitempty"`
	VendorID      string `json:"vendorId,omitempty"`
	ContainerSize string `json:"containerSize,omitempty"`
	BillingUOM    string `json:"billingUom,omitempty"`
	PricingType   string `json:"pricingType,omitempty"`
	PricePriority string `json:"pricePriority,omitempty"`
}

// PricingGroup is a named, dated collection of items for one customer.
type PricingGroup struct {
	ID             string            `json:"id"`
	CustomerID     string            `json:"customerId"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Template       string            `json:"template,omitempty"`
	CustomFields   map[string]string `json:"customFields,omitempty"`
	EffectiveDate  time.Time         `json:"effectiveDate"`
	ExpirationDate time.Time         `json:"expirationDate"`
	Status         string            `json:"status"`
	Type           GroupType         `json:"type"`
	Items          []PricingItem     `json:"items"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// GroupSummary is a group without its items, used for listings.
type GroupSummary struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customerId"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	EffectiveDate  time.Time `json:"effectiveDate"`
	ExpirationDate time.Time `json:"expirationDate"`
	ItemCount      int       `json:"itemCount"`
}

// Summary drops the items from g.
func (g *PricingGroup) Summary() GroupSummary {
	return GroupSummary{
		ID:             g.ID,
		CustomerID:     g.CustomerID,
		Name:           g.Name,
		Status:         g.Status,
		EffectiveDate:  g.EffectiveDate,
		ExpirationDate: g.ExpirationDate,
		ItemCount:      len(g.Items),
	}
}

// MappedRow is one data row after column mapping. Line is the 1-based
// spreadsheet row number (header is line 1). Optional fields are nil when
// their column is absent from the file.
type MappedRow struct {
	Line int

	ProductName    string
	Region         string
	UnitPrice      string
	MinimumPrice   string
	EffectiveDate  string
	ExpirationDate string
	Status         string

	QuoteName     *string
	ProjectName   *string
	UOM           *string
	ContractID    *string
	GeneratorID   *string
	VendorID      *string
	ContainerSize *string
	BillingUOM    *string
	PricingType   *string
	PricePriority *string
}

// Upload is tabular input: either file bytes or text pasted from a spreadsheet.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	Pasted      string
}

// Submission is a request to create pricing from an upload.
type Submission struct {
	Type          GroupType
	CustomerID    string
	GroupName     string
	Description   string
	// Template names the spreadsheet template used. It is optional; blank is allowed.
	Template      string
	CustomFields  map[string]string
	TargetGroupID string
	Upload        Upload
}

// SubmissionResult is returned when every row passed validation.
type SubmissionResult struct {
	GroupID   string        `json:"groupId"`
	GroupName string        `json:"groupName"`
	ItemCount int           `json:"itemCount"`
	Items     []PricingItem `json:"items"`
}

// PreviewResult reports what a submission would create without storing it.
type PreviewResult struct {
	Valid     bool          `json:"valid"`
	Columns   []string      `json:"columns"`
	RowCount  int           `json:"rowCount"`
	ItemCount int           `json:"itemCount"`
	Items     []PricingItem `json:"items"`
	Errors    []string      `json:"errors"`
}
