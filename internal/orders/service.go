package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/permanentprinting/storefront-backend/internal/cart"
	"github.com/permanentprinting/storefront-backend/pkg/checkout"
	"github.com/permanentprinting/storefront-backend/pkg/db"
	"github.com/permanentprinting/storefront-backend/pkg/db/models"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
	"github.com/permanentprinting/storefront-backend/pkg/metrics"
	"github.com/permanentprinting/storefront-backend/pkg/pagination"
	"github.com/permanentprinting/storefront-backend/pkg/refcode"
)

const (
	orderNumberPrefix = "PP"
	voidTimeout       = 10 * time.Second
)

// Service places and reads orders.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
}

type cartReader interface {
	Get(ctx context.Context, sessionID string) (*cart.View, error)
	Clear(ctx context.Context, sessionID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	tx      txRunner
	carts   cartReader
	gateway PaymentGateway
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams groups the collaborators of NewService.
type ServiceParams struct {
	Repo    Repository
	DB      txRunner
	Carts   cartReader
	Gateway PaymentGateway
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if p.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	return &service{
		repo:    p.Repo,
		tx:      p.DB,
		carts:   p.Carts,
		gateway: p.Gateway,
		metrics: p.Metrics,
		logg:    p.Logger,
		now:     time.Now,
	}, nil
}

// PlaceOrder prices the current cart, charges it and persists the order. The
// cart is cleared only once the order row is committed.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	method := string(input.Payment.Method)
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	view, err := s.carts.Get(ctx, input.CartSessionID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		s.metrics.IncOrder(method, metrics.OutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	billing := input.Shipping
	violations := checkout.ValidateAddress("shipping", input.Shipping)
	if !input.SameAsShipping {
		if input.Billing == nil {
			violations = append(violations, checkout.FieldViolation{Field: "billing", Reason: "required unless same_as_shipping"})
		} else {
			billing = *input.Billing
			violations = append(violations, checkout.ValidateAddress("billing", billing)...)
		}
	}
	violations = append(violations, checkout.ValidatePayment(input.Payment)...)
	if err := checkout.ViolationsError(violations); err != nil {
		s.metrics.IncOrder(method, metrics.OutcomeRejected)
		return nil, err
	}

	totals := view.Totals.Rounded()

	number, err := refcode.New(orderNumberPrefix, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	start := time.Now()
	charge, err := s.gateway.Charge(ctx, ChargeRequest{
		OrderNumber: number,
		Amount:      totals.Total,
		Currency:    totals.Currency,
		Payment:     input.Payment,
	})
	s.metrics.ObservePayment(method, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrPaymentDeclined) {
			s.metrics.IncOrder(method, metrics.OutcomeRejected)
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "payment declined")
		}
		s.metrics.IncOrder(method, metrics.OutcomeFailure)
		s.logg.Error(ctx, "payment gateway failed", err)
		return nil, pkgerrors.Unavailable(err, "payment gateway unavailable")
	}

	order := buildOrder(input, billing, view, totals, number, charge)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).CreateOrder(ctx, order)
		return err
	})
	if err != nil {
		s.metrics.IncOrder(method, metrics.OutcomeFailure)
		s.voidCharge(ctx, number, charge)
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision, retry")
		}
		return nil, pkgerrors.Unavailable(err, "order placement failed")
	}

	if err := s.carts.Clear(ctx, input.CartSessionID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_number", number), "cart not cleared after order", err)
	}

	s.metrics.IncOrder(method, metrics.OutcomeSuccess)
	s.metrics.ObserveOrderValue(order.Currency, order.Total)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_number": number,
		"total":        order.Total.StringFixed(2),
		"items":        len(order.LineItems),
	}), "order placed")
	return FromModel(order), nil
}

// voidCharge releases a captured charge after the order failed to persist, so a
// retried checkout does not collect twice. Failures are logged for manual follow-up.
func (s *service) voidCharge(ctx context.Context, number string, charge ChargeResult) {
	if !charge.Captured {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), voidTimeout)
	defer cancel()
	logCtx := s.logg.WithFields(ctx, map[string]any{"order_number": number, "payment_reference": charge.Reference})
	if err := s.gateway.Void(ctx, charge.Reference); err != nil {
		s.logg.Error(logCtx, "charge not voided after failed order", err)
		return
	}
	s.logg.Warn(logCtx, "charge voided after failed order")
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindUserOrder(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	rows, err := s.repo.ListUserOrders(ctx, userID, params)
	if err != nil {
		if _, perr := pagination.ParseCursor(params.Cursor); perr != nil {
			return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid cursor")
		}
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return pagination.Build(dtos, params, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func buildOrder(input PlaceOrderInput, billing checkout.Address, view *cart.View, totals cart.Totals, number string, charge ChargeResult) *models.Order {
	status := enums.OrderStatusPlaced
	if charge.Captured {
		status = enums.OrderStatusPaid
	}
	order := &models.Order{
		Number:           number,
		UserID:           input.UserID,
		Status:           status,
		Currency:         totals.Currency,
		Subtotal:         totals.Subtotal,
		DiscountAmount:   totals.DiscountAmount,
		ShippingFee:      totals.ShippingFee,
		TaxAmount:        totals.TaxAmount,
		Total:            totals.Total,
		Shipping:         addressToModel(input.Shipping),
		Billing:          addressToModel(billing),
		PaymentMethod:    input.Payment.Method,
		PaymentProvider:  models.OptionalString(charge.Provider),
		PaymentReference: charge.Reference,
		LineItems:        make([]models.OrderLineItem, 0, len(view.Items)),
	}
	if totals.PromotionCode != "" {
		code := totals.PromotionCode
		order.PromotionCode = &code
	}
	for i, li := range view.Items {
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			Position:  i,
			ProductID: li.ProductID,
			Name:      li.Name,
			ImageRef:  li.ImageRef,
			Size:      models.OptionalString(li.Variant.Size),
			Color:     models.OptionalString(li.Variant.Color),
			UnitPrice: li.UnitPrice.Round(2),
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal().Round(2),
		})
	}
	return order
}
