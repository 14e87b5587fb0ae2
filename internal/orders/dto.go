package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/permanentprinting/storefront-backend/pkg/checkout"
	"github.com/permanentprinting/storefront-backend/pkg/db/models"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
)

// PlaceOrderInput is a checkout submission for the cart bound to CartSessionID.
type PlaceOrderInput struct {
	UserID         uuid.UUID
	CartSessionID  string
	Shipping       checkout.Address
	Billing        *checkout.Address
	SameAsShipping bool
	Payment        checkout.PaymentSelection
}

// LineItemDTO is an order line as returned to clients.
type LineItemDTO struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	ImageRef  string  `json:"image,omitempty"`
	Size      *string `json:"size,omitempty"`
	Color     *string `json:"color,omitempty"`
	UnitPrice string  `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	LineTotal string  `json:"line_total"`
}

// TotalsDTO carries money as fixed two-place strings.
type TotalsDTO struct {
	Currency       string  `json:"currency"`
	Subtotal       string  `json:"subtotal"`
	DiscountAmount string  `json:"discount_amount"`
	PromotionCode  *string `json:"promotion_code,omitempty"`
	ShippingFee    string  `json:"shipping_fee"`
	TaxAmount      string  `json:"tax_amount"`
	Total          string  `json:"total"`
}

// PaymentDTO describes how the order was paid, without card data.
type PaymentDTO struct {
	Method    enums.PaymentMethod `json:"method"`
	Provider  *string             `json:"provider,omitempty"`
	Reference string              `json:"reference"`
}

// OrderDTO is the order as returned to clients.
type OrderDTO struct {
	ID        uuid.UUID         `json:"id"`
	Number    string            `json:"number"`
	Status    enums.OrderStatus `json:"status"`
	Items     []LineItemDTO     `json:"items"`
	Totals    TotalsDTO         `json:"totals"`
	Shipping  checkout.Address  `json:"shipping"`
	Billing   checkout.Address  `json:"billing"`
	Payment   PaymentDTO        `json:"payment"`
	CreatedAt time.Time         `json:"created_at"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FromModel maps a persisted order to its transport shape.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]LineItemDTO, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, LineItemDTO{
			ProductID: li.ProductID,
			Name:      li.Name,
			ImageRef:  li.ImageRef,
			Size:      li.Size,
			Color:     li.Color,
			UnitPrice: money(li.UnitPrice),
			Quantity:  li.Quantity,
			LineTotal: money(li.LineTotal),
		})
	}
	return &OrderDTO{
		ID:     o.ID,
		Number: o.Number,
		Status: o.Status,
		Items:  items,
		Totals: TotalsDTO{
			Currency:       o.Currency,
			Subtotal:       money(o.Subtotal),
			DiscountAmount: money(o.DiscountAmount),
			PromotionCode:  o.PromotionCode,
			ShippingFee:    money(o.ShippingFee),
			TaxAmount:      money(o.TaxAmount),
			Total:          money(o.Total),
		},
		Shipping:  addressFromModel(o.Shipping),
		Billing:   addressFromModel(o.Billing),
		Payment:   PaymentDTO{Method: o.PaymentMethod, Provider: o.PaymentProvider, Reference: o.PaymentReference},
		CreatedAt: o.CreatedAt,
	}
}

func addressFromModel(a models.OrderAddress) checkout.Address {
	return checkout.Address{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Phone:      a.Phone,
		Address:    a.Address,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
	}
}

func addressToModel(a checkout.Address) models.OrderAddress {
	return models.OrderAddress{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Phone:      a.Phone,
		Address:    a.Address,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
	}
}
