package enums

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BulkOrderUrgency selects the production lead time of a bulk request.
type BulkOrderUrgency string

const (
	BulkOrderUrgencyStandard BulkOrderUrgency = "standard"
	BulkOrderUrgencyRush     BulkOrderUrgency = "rush"
	BulkOrderUrgencyExpress  BulkOrderUrgency = "express"
)

var urgencyFees = map[BulkOrderUrgency]decimal.Decimal{
	BulkOrderUrgencyStandard: decimal.Zero,
	BulkOrderUrgencyRush:     decimal.NewFromInt(15),
	BulkOrderUrgencyExpress:  decimal.NewFromInt(25),
}

var urgencyLabels = map[BulkOrderUrgency]string{
	BulkOrderUrgencyStandard: "Standard (7-10 days)",
	BulkOrderUrgencyRush:     "Rush (3-5 days)",
	BulkOrderUrgencyExpress:  "Express (1-2 days)",
}

func (u BulkOrderUrgency) String() string {
	return string(u)
}

func (u BulkOrderUrgency) IsValid() bool {
	_, ok := urgencyFees[u]
	return ok
}

// Fee is the surcharge added for the urgency level. Unknown levels cost nothing.
func (u BulkOrderUrgency) Fee() decimal.Decimal {
	if fee, ok := urgencyFees[u]; ok {
		return fee
	}
	return decimal.Zero
}

func (u BulkOrderUrgency) Label() string {
	return urgencyLabels[u]
}

func ParseBulkOrderUrgency(value string) (BulkOrderUrgency, error) {
	if value == "" {
		return BulkOrderUrgencyStandard, nil
	}
	u := BulkOrderUrgency(value)
	if !u.IsValid() {
		return "", fmt.Errorf("invalid bulk order urgency %q", value)
	}
	return u, nil
}

// BulkOrderStatus tracks the sales follow-up of a bulk request.
type BulkOrderStatus string

const (
	BulkOrderStatusReceived  BulkOrderStatus = "received"
	BulkOrderStatusQuoted    BulkOrderStatus = "quoted"
	BulkOrderStatusConfirmed BulkOrderStatus = "confirmed"
	BulkOrderStatusDeclined  BulkOrderStatus = "declined"
)

var validBulkOrderStatuses = []BulkOrderStatus{
	BulkOrderStatusReceived,
	BulkOrderStatusQuoted,
	BulkOrderStatusConfirmed,
	BulkOrderStatusDeclined,
}

func (s BulkOrderStatus) String() string {
	return string(s)
}

func (s BulkOrderStatus) IsValid() bool {
	for _, candidate := range validBulkOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseBulkOrderStatus(value string) (BulkOrderStatus, error) {
	for _, candidate := range validBulkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk order status %q", value)
}
