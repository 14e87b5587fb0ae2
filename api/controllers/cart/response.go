package cart

import (
	"time"

	cartsvc "github.com/permanentprinting/storefront-backend/internal/cart"
)

type lineItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice string          `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal string          `json:"line_total"`
	Variant   cartsvc.Variant `json:"variant"`
}

type promotionResponse struct {
	Code string `json:"code"`
	Rate string `json:"rate"`
}

type totalsResponse struct {
	Currency       string `json:"currency"`
	Subtotal       string `json:"subtotal"`
	DiscountRate   string `json:"discount_rate"`
	DiscountAmount string `json:"discount_amount"`
	ShippingFee    string `json:"shipping_fee"`
	FreeShipping   bool   `json:"free_shipping"`
	TaxAmount      string `json:"tax_amount"`
	Total          string `json:"total"`
	PromotionCode  string `json:"promotion_code,omitempty"`
}

type cartResponse struct {
	SessionID string             `json:"session_id"`
	Items     []lineItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Promotion *promotionResponse `json:"promotion,omitempty"`
	Totals    totalsResponse     `json:"totals"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

// newTotalsResponse renders totals at two places. Rounding happens here and nowhere earlier.
func newTotalsResponse(t cartsvc.Totals) totalsResponse {
	rounded := t.Rounded()
	return totalsResponse{
		Currency:       rounded.Currency,
		Subtotal:       rounded.Subtotal.StringFixed(2),
		DiscountRate:   rounded.DiscountRate.String(),
		DiscountAmount: rounded.DiscountAmount.StringFixed(2),
		ShippingFee:    rounded.ShippingFee.StringFixed(2),
		FreeShipping:   t.FreeShipping(),
		TaxAmount:      rounded.TaxAmount.StringFixed(2),
		Total:          rounded.Total.StringFixed(2),
		PromotionCode:  rounded.PromotionCode,
	}
}

func newCartResponse(view *cartsvc.View) cartResponse {
	resp := cartResponse{
		SessionID: view.SessionID,
		Items:     make([]lineItemResponse, 0, len(view.Items)),
		ItemCount: view.ItemCount,
		Totals:    newTotalsResponse(view.Totals),
	}
	for _, li := range view.Items {
		resp.Items = append(resp.Items, lineItemResponse{
			ProductID: li.ProductID,
			Name:      li.Name,
			Image:     li.ImageRef,
			UnitPrice: li.UnitPrice.StringFixed(2),
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal().StringFixed(2),
			Variant:   li.Variant,
		})
	}
	if view.Promotion != nil {
		resp.Promotion = &promotionResponse{Code: view.Promotion.Code, Rate: view.Promotion.Rate.String()}
	}
	if !view.UpdatedAt.IsZero() {
		updated := view.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
