package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/permanentprinting/storefront-backend/pkg/config"
)

// DefaultMaxQuantityPerLine caps a single line when no policy overrides it.
const DefaultMaxQuantityPerLine = 10000

// Policy holds the store-wide pricing parameters.
type Policy struct {
	Currency              string
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRatePercent        decimal.Decimal
	MaxQuantityPerLine    int
}

// DefaultPolicy ships free from 200, charges 15 otherwise and taxes 12.5%.
func DefaultPolicy() Policy {
	return Policy{
		Currency:              "GHS",
		FreeShippingThreshold: decimal.NewFromInt(200),
		FlatShippingFee:       decimal.NewFromInt(15),
		TaxRatePercent:        decimal.RequireFromString("12.5"),
		MaxQuantityPerLine:    DefaultMaxQuantityPerLine,
	}
}

// PolicyFromConfig builds the policy and promotion table from parsed config.
func PolicyFromConfig(pricing config.ParsedPricing, cartCfg config.CartConfig) (Policy, *PromotionTable, error) {
	table, err := NewPromotionTable(pricing.PromotionRates)
	if err != nil {
		return Policy{}, nil, err
	}
	policy := Policy{
		Currency:              pricing.Currency,
		FreeShippingThreshold: pricing.FreeShippingThreshold,
		FlatShippingFee:       pricing.FlatShippingFee,
		TaxRatePercent:        pricing.TaxRatePercent,
		MaxQuantityPerLine:    cartCfg.MaxQuantityPerLine,
	}
	if policy.MaxQuantityPerLine <= 0 {
		policy.MaxQuantityPerLine = DefaultMaxQuantityPerLine
	}
	return policy, table, nil
}

// PromotionTable maps case-insensitive codes to a percentage in [0, 100].
type PromotionTable struct {
	rates map[string]decimal.Decimal
}

func NewPromotionTable(rates map[string]decimal.Decimal) (*PromotionTable, error) {
	table := &PromotionTable{rates: make(map[string]decimal.Decimal, len(rates))}
	for code, rate := range rates {
		key := normalizeCode(code)
		if key == "" {
			return nil, fmt.Errorf("promotion code must not be blank")
		}
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return nil, fmt.Errorf("promotion %s: rate %s outside [0, 100]", key, rate)
		}
		if _, dup := table.rates[key]; dup {
			return nil, fmt.Errorf("promotion %s defined twice", key)
		}
		table.rates[key] = rate
	}
	return table, nil
}

// DefaultPromotionTable holds the storefront's launch codes.
func DefaultPromotionTable() *PromotionTable {
	table, err := NewPromotionTable(map[string]decimal.Decimal{
		"GHANA10":     decimal.NewFromInt(10),
		"NEWCUSTOMER": decimal.NewFromInt(15),
		"BULK20":      decimal.NewFromInt(20),
		"STUDENT5":    decimal.NewFromInt(5),
	})
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup resolves code ignoring case and surrounding whitespace.
func (t *PromotionTable) Lookup(code string) (Promotion, bool) {
	if t == nil {
		return Promotion{}, false
	}
	key := normalizeCode(code)
	rate, ok := t.rates[key]
	if !ok {
		return Promotion{}, false
	}
	return Promotion{Code: key, Rate: rate}, true
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Totals is derived from lines, the active rate and the policy; never stored.
type Totals struct {
	Currency       string          `json:"currency"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	PromotionCode  string          `json:"promotion_code,omitempty"`
}

// Rounded returns a copy with every amount at 2 places, half away from zero.
func (t Totals) Rounded() Totals {
	t.Subtotal = t.Subtotal.Round(2)
	t.DiscountAmount = t.DiscountAmount.Round(2)
	t.ShippingFee = t.ShippingFee.Round(2)
	t.TaxAmount = t.TaxAmount.Round(2)
	t.Total = t.Total.Round(2)
	return t
}

// FreeShipping reports whether the shipping fee was waived.
func (t Totals) FreeShipping() bool {
	return t.ShippingFee.IsZero() && t.Subtotal.IsPositive()
}

// ComputeTotals prices the cart. Tax is on the pre-discount subtotal and an
// empty cart is all zeros.
func (c *Cart) ComputeTotals() Totals {
	totals := Totals{
		Currency:       c.policy.Currency,
		Subtotal:       decimal.Zero,
		DiscountRate:   decimal.Zero,
		DiscountAmount: decimal.Zero,
		ShippingFee:    decimal.Zero,
		TaxAmount:      decimal.Zero,
		Total:          decimal.Zero,
	}
	if c.promotion != nil {
		totals.PromotionCode = c.promotion.Code
		totals.DiscountRate = c.promotion.Rate
	}
	if c.IsEmpty() {
		return totals
	}

	subtotal := c.Subtotal()
	totals.Subtotal = subtotal

	discount := subtotal.Mul(totals.DiscountRate).Div(hundred)
	totals.DiscountAmount = clamp(discount, decimal.Zero, subtotal)

	if subtotal.LessThan(c.policy.FreeShippingThreshold) {
		totals.ShippingFee = c.policy.FlatShippingFee
	}

	totals.TaxAmount = subtotal.Mul(c.policy.TaxRatePercent).Div(hundred)

	total := subtotal.Sub(totals.DiscountAmount).Add(totals.ShippingFee).Add(totals.TaxAmount)
	totals.Total = decimal.Max(total, decimal.Zero)
	return totals
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}
