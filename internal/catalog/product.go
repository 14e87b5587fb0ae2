package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. Price is in store currency.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	ImageRef      string           `json:"image"`
	Rating        decimal.Decimal  `json:"rating"`
	Reviews       int              `json:"reviews"`
	Badge         string           `json:"badge,omitempty"`
	Colors        []string         `json:"colors"`
	Sizes         []string         `json:"sizes"`
	InStock       bool             `json:"in_stock"`
	// Position is the merchandising order used by the "featured" sort.
	Position int `json:"-"`
}

// DiscountPercent is the whole-number markdown from OriginalPrice, or zero.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice == nil || !p.OriginalPrice.GreaterThan(p.Price) {
		return 0
	}
	off := p.OriginalPrice.Sub(p.Price).Div(*p.OriginalPrice).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

// HasSize reports whether size is offered. Products without sizes accept none.
func (p Product) HasSize(size string) bool {
	return containsFold(p.Sizes, size)
}

// HasColor reports whether color is offered.
func (p Product) HasColor(color string) bool {
	return containsFold(p.Colors, color)
}

func (p Product) matches(term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

func containsFold(values []string, want string) bool {
	return slices.ContainsFunc(values, func(v string) bool {
		return strings.EqualFold(v, want)
	})
}
