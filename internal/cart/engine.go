package cart

import (
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be a positive whole number within the per-line limit")
	ErrItemNotFound         = errors.New("item not in cart")
	ErrUnknownPromotionCode = errors.New("unknown promotion code")
	ErrInvalidProduct       = errors.New("product is missing an id or has a negative price")
)

var hundred = decimal.NewFromInt(100)

// Variant is descriptive only; it never affects pricing.
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// ProductRef is the catalog data captured when a product is added.
type ProductRef struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	ImageRef  string
}

// LineItem is one product in the cart. Quantity is always >= 1.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Quantity  int             `json:"quantity"`
	Variant   Variant         `json:"variant"`
}

// LineTotal is UnitPrice × Quantity, unrounded.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Promotion is the single active discount code.
type Promotion struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

// Cart holds lines in insertion order plus at most one active promotion.
// It is not safe for concurrent use.
type Cart struct {
	lines     []LineItem
	promotion *Promotion
	policy    Policy
	promos    *PromotionTable
}

// New returns an empty cart priced under policy. A nil promos table knows no codes.
func New(policy Policy, promos *PromotionTable) *Cart {
	if promos == nil {
		promos = &PromotionTable{}
	}
	return &Cart{policy: policy, promos: promos}
}

// AddItem appends a line or, when the product is already present, adds
// quantity to it. The existing line keeps its captured price and variant.
func (c *Cart) AddItem(product ProductRef, quantity int, variant Variant) error {
	if quantity < 1 || c.exceedsLimit(quantity) {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(product.ID) == "" || product.UnitPrice.IsNegative() {
		return ErrInvalidProduct
	}

	if idx := c.indexOf(product.ID); idx >= 0 {
		existing := c.lines[idx].Quantity
		if quantity > math.MaxInt-existing {
			return ErrInvalidQuantity
		}
		merged := existing + quantity
		if c.exceedsLimit(merged) {
			return ErrInvalidQuantity
		}
		c.lines[idx].Quantity = merged
		return nil
	}

	c.lines = append(c.lines, LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		ImageRef:  product.ImageRef,
		Quantity:  quantity,
		Variant:   variant,
	})
	return nil
}

// UpdateQuantity sets a line's quantity exactly. Anything below 1 removes the line.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if quantity < 1 {
		c.RemoveItem(productID)
		return nil
	}
	if c.exceedsLimit(quantity) {
		return ErrInvalidQuantity
	}
	c.lines[idx].Quantity = quantity
	return nil
}

// RemoveItem deletes the line if present.
func (c *Cart) RemoveItem(productID string) {
	if idx := c.indexOf(productID); idx >= 0 {
		c.lines = slices.Delete(c.lines, idx, idx+1)
	}
}

// Clear empties the cart and drops the active promotion.
func (c *Cart) Clear() {
	c.lines = nil
	c.promotion = nil
}

// ApplyPromotion activates code, replacing any previous one, and returns the
// discount it yields on the current subtotal. Unknown codes leave state untouched.
func (c *Cart) ApplyPromotion(code string) (decimal.Decimal, error) {
	promo, ok := c.promos.Lookup(code)
	if !ok {
		return decimal.Zero, ErrUnknownPromotionCode
	}
	c.promotion = &promo
	return c.ComputeTotals().DiscountAmount, nil
}

// RemovePromotion drops the active code, if any.
func (c *Cart) RemovePromotion() {
	c.promotion = nil
}

// Promotion returns a copy of the active promotion or nil.
func (c *Cart) Promotion() *Promotion {
	if c.promotion == nil {
		return nil
	}
	p := *c.promotion
	return &p
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []LineItem {
	return slices.Clone(c.lines)
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (LineItem, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.lines[idx], true
	}
	return LineItem{}, false
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount is the sum of quantities across lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, li := range c.lines {
		n += li.Quantity
	}
	return n
}

// Subtotal is Σ UnitPrice × Quantity, recomputed on every call.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.lines {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}

// Policy returns the pricing policy the cart was built with.
func (c *Cart) Policy() Policy {
	return c.policy
}

func (c *Cart) indexOf(productID string) int {
	return slices.IndexFunc(c.lines, func(li LineItem) bool { return li.ProductID == productID })
}

func (c *Cart) exceedsLimit(quantity int) bool {
	return c.policy.MaxQuantityPerLine > 0 && quantity > c.policy.MaxQuantityPerLine
}
