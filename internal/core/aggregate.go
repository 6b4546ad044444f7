package core

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// GroupIDSpace bounds the random part of generated group IDs.
const GroupIDSpace = 10000

// GroupMeta is the header-level information for a new pricing group.
type GroupMeta struct {
	CustomerID   string
	Name         string
	Description  string
	Template     string
	CustomFields map[string]string
}

// Builder assembles pricing groups from validated items.
type Builder struct {
	now  func() time.Time
	intn func(n int) int
}

// NewBuilder returns a Builder using the wall clock and math/rand/v2.
func NewBuilder() *Builder {
	return &Builder{now: time.Now, intn: rand.IntN}
}

// NewGroupID returns "PH-<n>" with n drawn from [0, GroupIDSpace).
// IDs are not checked for collisions; stores reject duplicates on insert.
func (b *Builder) NewGroupID() string {
	return fmt.Sprintf("PH-%d", b.intn(GroupIDSpace))
}

// NewGroup builds an active group covering the current calendar year and
// numbers its items from 1 in input order.
func (b *Builder) NewGroup(meta GroupMeta, items []PricingItem) *PricingGroup {
	now := b.now().UTC()
	id := b.NewGroupID()

	g := &PricingGroup{
		ID:             id,
		CustomerID:     strings.TrimSpace(meta.CustomerID),
		Name:           strings.TrimSpace(meta.Name),
		Description:    strings.TrimSpace(meta.Description),
		Template:       strings.TrimSpace(meta.Template),
		CustomFields:   meta.CustomFields,
		EffectiveDate:  time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		ExpirationDate: time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC),
		Status:         StatusActive,
		Type:           GroupTypeNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	g.Items = AssignItemIDs(id, 0, items)
	return g
}

// ItemID formats the identifier of the seq-th item of a group.
func ItemID(groupID string, seq int) string {
	return fmt.Sprintf("PI-%s-%d", groupID, seq)
}

// AssignItemIDs returns a copy of items owned by groupID, numbered after
// lastSeq. Stores call this while holding whatever lock protects the group's
// item sequence.
func AssignItemIDs(groupID string, lastSeq int, items []PricingItem) []PricingItem {
	out := make([]PricingItem, len(items))
	for i, item := range items {
		item.GroupID = groupID
		item.ID = ItemID(groupID, lastSeq+i+1)
		out[i] = item
	}
	return out
}
