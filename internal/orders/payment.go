package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/permanentprinting/storefront-backend/pkg/checkout"
	"github.com/permanentprinting/storefront-backend/pkg/config"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
)

// ErrPaymentDeclined is returned when the gateway refuses the charge.
var ErrPaymentDeclined = errors.New("payment declined")

// ChargeRequest is what the gateway needs to collect an order total.
type ChargeRequest struct {
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
	Payment     checkout.PaymentSelection
}

// ChargeResult identifies a successful charge.
type ChargeResult struct {
	Reference string
	Provider  string
	Captured  bool
}

// PaymentGateway collects money for an order. Void releases a captured charge
// whose order could not be recorded.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Void(ctx context.Context, reference string) error
}

// MockGateway approves every charge unless configured otherwise. Cash orders
// are never captured up front.
type MockGateway struct {
	declineAll  bool
	unavailable bool
	latency     time.Duration
}

func NewMockGateway(cfg config.PaymentConfig) *MockGateway {
	return &MockGateway{
		declineAll:  cfg.MockDeclineAll,
		unavailable: cfg.MockUnavailable,
		latency:     cfg.MockLatency,
	}
}

// NewGateway picks the gateway named by cfg.Provider.
func NewGateway(cfg config.PaymentConfig) (PaymentGateway, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "mock":
		return NewMockGateway(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}

func (g *MockGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ChargeResult{}, ctx.Err()
		case <-timer.C:
		}
	}
	if g.unavailable {
		return ChargeResult{}, fmt.Errorf("mock gateway: connection refused")
	}
	if req.Amount.IsNegative() {
		return ChargeResult{}, fmt.Errorf("mock gateway: negative amount %s", req.Amount)
	}

	result := ChargeResult{Reference: "mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")}
	if req.Payment.Method.CollectedOnDelivery() {
		result.Provider = "cash_on_delivery"
		return result, nil
	}
	switch req.Payment.Method {
	case enums.PaymentMethodMobileMoney:
		result.Provider = string(req.Payment.MomoProvider)
	case enums.PaymentMethodCard:
		result.Provider = "card"
		if last4 := req.Payment.CardLast4(); last4 != "" {
			result.Provider = "card_" + last4
		}
	}
	result.Captured = true
	if g.declineAll {
		return ChargeResult{}, ErrPaymentDeclined
	}
	return result, nil
}

func (g *MockGateway) Void(ctx context.Context, reference string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.unavailable {
		return fmt.Errorf("mock gateway: connection refused")
	}
	if !strings.HasPrefix(reference, "mock_") {
		return fmt.Errorf("mock gateway: unknown charge %q", reference)
	}
	return nil
}
