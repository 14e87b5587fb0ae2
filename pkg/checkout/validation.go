package checkout

import (
	"fmt"
	"strings"

	"github.com/permanentprinting/storefront-backend/pkg/enums"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
)

// Address is the contact and delivery block collected at checkout.
type Address struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	Region     string  `json:"region"`
	PostalCode *string `json:"postal_code,omitempty"`
}

// PaymentSelection is the payment method chosen by the shopper plus the
// fields that method needs.
type PaymentSelection struct {
	Method       enums.PaymentMethod       `json:"method"`
	MomoNumber   string                    `json:"momo_number,omitempty"`
	MomoProvider enums.MobileMoneyProvider `json:"momo_provider,omitempty"`
	CardNumber   string                    `json:"card_number,omitempty"`
	ExpiryDate   string                    `json:"expiry_date,omitempty"`
	CVV          string                    `json:"cvv,omitempty"`
	CardName     string                    `json:"card_name,omitempty"`
}

// CardLast4 returns the trailing digits of the card number, if any.
func (p PaymentSelection) CardLast4() string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, p.CardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// FieldViolation names a missing or invalid checkout field.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidateAddress reports every missing required field. prefix is prepended
// to field names ("shipping", "billing").
func ValidateAddress(prefix string, addr Address) []FieldViolation {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", addr.FirstName},
		{"last_name", addr.LastName},
		{"email", addr.Email},
		{"phone", addr.Phone},
		{"address", addr.Address},
		{"city", addr.City},
		{"region", addr.Region},
	}
	var violations []FieldViolation
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			violations = append(violations, FieldViolation{Field: qualify(prefix, f.name), Reason: "required"})
		}
	}
	return violations
}

// ValidatePayment checks that the selected method carries the fields it needs.
func ValidatePayment(p PaymentSelection) []FieldViolation {
	missing := func(field, value string) []FieldViolation {
		if strings.TrimSpace(value) == "" {
			return []FieldViolation{{Field: qualify("payment", field), Reason: "required"}}
		}
		return nil
	}

	switch p.Method {
	case enums.PaymentMethodMobileMoney:
		var v []FieldViolation
		v = append(v, missing("momo_number", p.MomoNumber)...)
		switch {
		case p.MomoProvider == "":
			v = append(v, FieldViolation{Field: "payment.momo_provider", Reason: "required"})
		case !p.MomoProvider.IsValid():
			v = append(v, FieldViolation{Field: "payment.momo_provider", Reason: "unsupported provider"})
		}
		return v
	case enums.PaymentMethodCard:
		var v []FieldViolation
		v = append(v, missing("card_number", p.CardNumber)...)
		v = append(v, missing("expiry_date", p.ExpiryDate)...)
		v = append(v, missing("cvv", p.CVV)...)
		return v
	case enums.PaymentMethodCash:
		return nil
	case "":
		return []FieldViolation{{Field: "payment.method", Reason: "required"}}
	default:
		return []FieldViolation{{Field: "payment.method", Reason: "unsupported payment method"}}
	}
}

// ViolationsError converts violations into a validation error, or nil.
func ViolationsError(violations []FieldViolation) error {
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d checkout field(s) invalid", len(violations))).
		WithDetails(map[string]any{"violations": violations})
}

func qualify(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}
