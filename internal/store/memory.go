// Package store implements core.Store over process memory and PostgreSQL.
package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/pricing/internal/core"
)

var (
	_ core.Store    = (*Memory)(nil)
	_ core.AuditLog = (*Memory)(nil)
	_ Seeder        = (*Memory)(nil)
)

// Memory is a core.Store held in process memory. Data is lost on restart.
type Memory struct {
	mu        sync.RWMutex
	customers []core.Customer
	groups    map[string]*core.PricingGroup
	order     []string // group IDs in creation order
	audit     []core.AuditEntry
	now       func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		groups: make(map[string]*core.PricingGroup),
		now:    time.Now,
	}
}

// AddCustomers registers customers for search. Customers with an ID already
// present are replaced.
func (m *Memory) AddCustomers(_ context.Context, customers ...core.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range customers {
		if i := slices.IndexFunc(m.customers, func(x core.Customer) bool { return x.ID == c.ID }); i >= 0 {
			m.customers[i] = c
			continue
		}
		m.customers = append(m.customers, c)
	}
	return nil
}

// SearchCustomers matches query case-insensitively against name, ID, and code.
func (m *Memory) SearchCustomers(_ context.Context, query string) ([]core.Customer, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Customer, 0)
	for _, c := range m.customers {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.ID), q) ||
			strings.Contains(strings.ToLower(c.Code), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListGroups returns summaries of a customer's groups in creation order.
func (m *Memory) ListGroups(_ context.Context, customerID string) ([]core.GroupSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.GroupSummary, 0)
	for _, id := range m.order {
		if g := m.groups[id]; g.CustomerID == customerID {
			out = append(out, g.Summary())
		}
	}
	return out, nil
}

// GetGroup returns a copy of the group with its items.
func (m *Memory) GetGroup(_ context.Context, groupID string) (*core.PricingGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.groups[groupID]
	if !ok {
		return nil, &core.NotFoundError{Resource: "pricing group", ID: groupID}
	}
	return cloneGroup(g), nil
}

// CreateGroup stores g. A group with the same ID is a duplicate key error.
func (m *Memory) CreateGroup(ctx context.Context, g *core.PricingGroup) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.groups[g.ID]; exists {
		return fmt.Errorf("duplicate key: pricing group %s already exists", g.ID)
	}
	m.groups[g.ID] = cloneGroup(g)
	m.order = append(m.order, g.ID)
	return nil
}

// AppendItems numbers items after the group's current item count and
// appends them. Numbering and append happen under the write lock.
func (m *Memory) AppendItems(ctx context.Context, groupID string, items []core.PricingItem) (*core.PricingGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[groupID]
	if !ok {
		return nil, &core.NotFoundError{Resource: "pricing group", ID: groupID}
	}

	g.Items = append(g.Items, core.AssignItemIDs(groupID, len(g.Items), items)...)
	g.UpdatedAt = m.now().UTC()
	return cloneGroup(g), nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func cloneGroup(g *core.PricingGroup) *core.PricingGroup {
	cp := *g
	cp.Items = slices.Clone(g.Items)
	cp.CustomFields = maps.Clone(g.CustomFields)
	return &cp
}
