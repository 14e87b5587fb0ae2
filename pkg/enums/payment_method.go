package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is the shopper's choice on the checkout payment step.
type PaymentMethod string

const (
	PaymentMethodMobileMoney PaymentMethod = "momo"
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodCash        PaymentMethod = "cash"
)

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentMethodMobileMoney: "Mobile Money",
	PaymentMethodCard:        "Credit/Debit Card",
	PaymentMethodCash:        "Cash on Delivery",
}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool {
	_, ok := paymentMethodLabels[p]
	return ok
}

// Label is the display name shown on receipts.
func (p PaymentMethod) Label() string {
	return paymentMethodLabels[p]
}

// CollectedOnDelivery reports whether nothing is charged when the order is placed.
func (p PaymentMethod) CollectedOnDelivery() bool {
	return p == PaymentMethodCash
}

// ParsePaymentMethod accepts the wire value in any case.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	p := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", value)
	}
	return p, nil
}
