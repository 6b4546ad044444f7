package store

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/pricing/internal/core"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seeder is the part of a store demo data is written through.
type Seeder interface {
	AddCustomers(ctx context.Context, customers ...core.Customer) error
	ListGroups(ctx context.Context, customerID string) ([]core.GroupSummary, error)
	CreateGroup(ctx context.Context, g *core.PricingGroup) error
}

// customerNamespace keeps demo customer IDs stable across restarts.
var customerNamespace = uuid.MustParse("5b0f6a4e-3f0c-4a6e-9d43-7c1e2f8a9b10")

func demoCustomerID(code string) string {
	return uuid.NewSHA1(customerNamespace, []byte(code)).String()
}

// DemoCustomers returns the customers seeded into a fresh store.
func DemoCustomers() []core.Customer {
	raw := []struct{ name, code string }{
		{"Acme Environmental Services", "ACME"},
		{"Globex Manufacturing", "GLBX"},
		{"Initech Facilities", "INIT"},
		{"Umbrella Chemical", "UMBR"},
		{"Stark Industrial Recycling", "STRK"},
	}

	out := make([]core.Customer, len(raw))
	for i, r := range raw {
		out[i] = core.Customer{ID: demoCustomerID(r.code), Name: r.name, Code: r.code}
	}
	return out
}

// demoGroups builds one small pricing group for each of the first two demo
// customers, dated to the calendar year of now.
func demoGroups(now time.Time) []*core.PricingGroup {
	year := now.UTC().Year()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	item := func(product, region string, unit, minimum int64) core.PricingItem {
		return core.PricingItem{
			ProductName:    product,
			Region:         region,
			UnitPrice:      decimal.NewFromInt(unit),
			MinimumPrice:   decimal.NewFromInt(minimum),
			EffectiveDate:  start,
			ExpirationDate: end,
			Status:         core.StatusActive,
			UOM:            "EA",
		}
	}

	customers := DemoCustomers()
	specs := []struct {
		id, customerID, name string
		items                []core.PricingItem
	}{
		{"PH-1001", customers[0].ID, fmt.Sprintf("Standard Pricing %d", year), []core.PricingItem{
			item("55 Gallon Drum Disposal", "Northeast", 185, 150),
			item("Lab Pack Service", "Northeast", 420, 300),
		}},
		{"PH-1002", customers[1].ID, fmt.Sprintf("Volume Pricing %d", year), []core.PricingItem{
			item("Roll-off Container 30 Yard", "Midwest", 650, 500),
		}},
	}

	groups := make([]*core.PricingGroup, len(specs))
	for i, s := range specs {
		groups[i] = &core.PricingGroup{
			ID:             s.id,
			CustomerID:     s.customerID,
			Name:           s.name,
			EffectiveDate:  start,
			ExpirationDate: end,
			Status:         core.StatusActive,
			Type:           core.GroupTypeNew,
			Items:          core.AssignItemIDs(s.id, 0, s.items),
			CreatedAt:      now.UTC(),
			UpdatedAt:      now.UTC(),
		}
	}
	return groups
}

// SeedDemo writes the demo customers, and a demo group for each customer
// that has none yet. Running it again is harmless.
func SeedDemo(ctx context.Context, s Seeder) error {
	if err := s.AddCustomers(ctx, DemoCustomers()...); err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}

	for _, g := range demoGroups(time.Now()) {
		existing, err := s.ListGroups(ctx, g.CustomerID)
		if err != nil {
			return fmt.Errorf("seed groups: %w", err)
		}
		if len(existing) > 0 {
			continue
		}
		if err := s.CreateGroup(ctx, g); err != nil {
			return fmt.Errorf("seed group %s: %w", g.ID, err)
		}
	}
	return nil
}
