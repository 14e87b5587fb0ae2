package cart

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the persisted form of a cart.
type Snapshot struct {
	Lines     []LineItem `json:"lines"`
	Promotion *Promotion `json:"promotion,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Snapshot captures the cart's current lines and promotion.
func (c *Cart) Snapshot(now time.Time) Snapshot {
	return Snapshot{
		Lines:     c.Lines(),
		Promotion: c.Promotion(),
		UpdatedAt: now.UTC(),
	}
}

// Restore rebuilds a cart from snap under the current policy. Lines that
// violate the quantity invariant are dropped, and a promotion whose code is no
// longer in the table is discarded.
func Restore(snap Snapshot, policy Policy, promos *PromotionTable) *Cart {
	c := New(policy, promos)
	for _, li := range snap.Lines {
		if li.Quantity < 1 || li.ProductID == "" || c.indexOf(li.ProductID) >= 0 {
			continue
		}
		c.lines = append(c.lines, li)
	}
	if snap.Promotion != nil {
		if promo, ok := c.promos.Lookup(snap.Promotion.Code); ok {
			c.promotion = &promo
		}
	}
	return c
}

func encodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding cart snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding cart snapshot: %w", err)
	}
	return snap, nil
}
