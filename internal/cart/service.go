package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/permanentprinting/storefront-backend/internal/catalog"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
	"github.com/permanentprinting/storefront-backend/pkg/metrics"
)

const userSessionPrefix = "user:"

// UserSessionID is the cart session owned by an authenticated user.
func UserSessionID(userID uuid.UUID) string {
	return userSessionPrefix + userID.String()
}

// NewGuestSessionID mints an opaque cart session for anonymous shoppers.
func NewGuestSessionID() string {
	return uuid.NewString()
}

type productSource interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// Service binds carts to session ids: load, mutate, persist, return a view.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*View, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*View, error)
	Clear(ctx context.Context, sessionID string) error
	ApplyPromotion(ctx context.Context, sessionID, code string) (*View, error)
	RemovePromotion(ctx context.Context, sessionID string) (*View, error)
	Totals(ctx context.Context, sessionID string) (Totals, error)
	Merge(ctx context.Context, fromSessionID, toSessionID string) (*View, error)
}

// AddItemInput is a request to add quantity units of a catalog product.
type AddItemInput struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// View is the read model returned after every cart operation. Totals are unrounded.
type View struct {
	SessionID string
	Items     []LineItem
	ItemCount int
	Promotion *Promotion
	Totals    Totals
	UpdatedAt time.Time
}

type service struct {
	store    Store
	products productSource
	policy   Policy
	promos   *PromotionTable
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams groups the collaborators of NewService.
type ServiceParams struct {
	Store      Store
	Products   productSource
	Policy     Policy
	Promotions *PromotionTable
	Metrics    *metrics.CartMetrics
	Logger     *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if p.Products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if p.Promotions == nil {
		p.Promotions = DefaultPromotionTable()
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	return &service{
		store:    p.Store,
		products: p.Products,
		policy:   p.Policy,
		promos:   p.Promotions,
		metrics:  p.Metrics,
		logg:     p.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	c, updatedAt, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sessionID, c, updatedAt), nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error) {
	const op = "add_item"
	if input.Quantity < 1 {
		s.metrics.IncMutation(op, metrics.OutcomeRejected)
		return nil, s.quantityError()
	}

	c, _, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		s.metrics.IncMutation(op, metrics.OutcomeFailure)
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Unavailable(err, "catalog unavailable")
	}
	if !product.InStock {
		s.metrics.IncMutation(op, metrics.OutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}

	variant, err := resolveVariant(product, input.Size, input.Color)
	if err != nil {
		s.metrics.IncMutation(op, metrics.OutcomeRejected)
		return nil, err
	}

	ref := ProductRef{ID: product.ID, Name: product.Name, UnitPrice: product.Price, ImageRef: product.ImageRef}
	if err := c.AddItem(ref, input.Quantity, variant); err != nil {
		s.metrics.IncMutation(op, metrics.OutcomeRejected)
		return nil, s.engineError(err)
	}

	view, err := s.save(ctx, sessionID, c)
	if err != nil {
		s.metrics.IncMutation(op, metrics.OutcomeFailure)
		return nil, err
	}
	s.metrics.IncMutation(op, metrics.OutcomeSuccess)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": product.ID,
		"quantity":   input.Quantity,
	}), "cart item added")
	return view, nil
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*View, error) {
	return s.mutate(ctx, "update_quantity", sessionID, func(c *Cart) error {
		return c.UpdateQuantity(productID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, productID string) (*View, error) {
	return s.mutate(ctx, "remove_item", sessionID, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.metrics.IncMutation("clear", metrics.OutcomeFailure)
		return pkgerrors.Unavailable(err, "cart storage unavailable")
	}
	s.metrics.IncMutation("clear", metrics.OutcomeSuccess)
	return nil
}

func (s *service) ApplyPromotion(ctx context.Context, sessionID, code string) (*View, error) {
	view, err := s.mutate(ctx, "apply_promotion", sessionID, func(c *Cart) error {
		_, err := c.ApplyPromotion(code)
		return err
	})
	switch {
	case err == nil:
		s.metrics.IncPromotion(metrics.OutcomeSuccess)
	case errors.Is(err, ErrUnknownPromotionCode):
		s.metrics.IncPromotion(metrics.OutcomeRejected)
	}
	return view, err
}

func (s *service) RemovePromotion(ctx context.Context, sessionID string) (*View, error) {
	return s.mutate(ctx, "remove_promotion", sessionID, func(c *Cart) error {
		c.RemovePromotion()
		return nil
	})
}

func (s *service) Totals(ctx context.Context, sessionID string) (Totals, error) {
	c, _, err := s.load(ctx, sessionID)
	if err != nil {
		return Totals{}, err
	}
	return c.ComputeTotals(), nil
}

// Merge folds the guest cart at fromSessionID into toSessionID, typically on
// login. Quantities are summed and capped at the per-line limit; the target
// keeps its own promotion when it has one. The source cart is deleted.
func (s *service) Merge(ctx context.Context, fromSessionID, toSessionID string) (*View, error) {
	if fromSessionID == toSessionID {
		return s.Get(ctx, toSessionID)
	}
	from, _, err := s.load(ctx, fromSessionID)
	if err != nil {
		return nil, err
	}
	to, _, err := s.load(ctx, toSessionID)
	if err != nil {
		return nil, err
	}
	if from.IsEmpty() && from.Promotion() == nil {
		return s.view(toSessionID, to, s.now()), nil
	}

	for _, li := range from.Lines() {
		qty := li.Quantity
		if existing, ok := to.Line(li.ProductID); ok && s.policy.MaxQuantityPerLine > 0 {
			qty = min(qty, s.policy.MaxQuantityPerLine-existing.Quantity)
		}
		if qty < 1 {
			continue
		}
		ref := ProductRef{ID: li.ProductID, Name: li.Name, UnitPrice: li.UnitPrice, ImageRef: li.ImageRef}
		if err := to.AddItem(ref, qty, li.Variant); err != nil {
			return nil, s.engineError(err)
		}
	}
	if to.Promotion() == nil {
		if promo := from.Promotion(); promo != nil {
			_, _ = to.ApplyPromotion(promo.Code)
		}
	}

	view, err := s.save(ctx, toSessionID, to)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, fromSessionID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "from_session", fromSessionID), "guest cart not deleted after merge")
	}
	s.metrics.IncMutation("merge", metrics.OutcomeSuccess)
	return view, nil
}

func (s *service) mutate(ctx context.Context, op, sessionID string, fn func(c *Cart) error) (*View, error) {
	c, _, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		s.metrics.IncMutation(op, metrics.OutcomeRejected)
		return nil, s.engineError(err)
	}
	view, err := s.save(ctx, sessionID, c)
	if err != nil {
		s.metrics.IncMutation(op, metrics.OutcomeFailure)
		return nil, err
	}
	s.metrics.IncMutation(op, metrics.OutcomeSuccess)
	return view, nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Cart, time.Time, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, time.Time{}, err
	}
	snap, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, time.Time{}, pkgerrors.Unavailable(err, "cart storage unavailable")
	}
	if !ok {
		return New(s.policy, s.promos), time.Time{}, nil
	}
	return Restore(snap, s.policy, s.promos), snap.UpdatedAt, nil
}

func (s *service) save(ctx context.Context, sessionID string, c *Cart) (*View, error) {
	now := s.now()
	if err := s.store.Save(ctx, sessionID, c.Snapshot(now)); err != nil {
		return nil, pkgerrors.Unavailable(err, "cart storage unavailable")
	}
	return s.view(sessionID, c, now.UTC()), nil
}

func (s *service) view(sessionID string, c *Cart, updatedAt time.Time) *View {
	return &View{
		SessionID: sessionID,
		Items:     c.Lines(),
		ItemCount: c.ItemCount(),
		Promotion: c.Promotion(),
		Totals:    c.ComputeTotals(),
		UpdatedAt: updatedAt,
	}
}

func (s *service) engineError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return s.quantityError()
	case errors.Is(err, ErrItemNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not in cart")
	case errors.Is(err, ErrUnknownPromotionCode):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "promotion code not recognized").
			WithDetails(map[string]any{"field": "code"})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart update failed")
	}
}

func (s *service) quantityError() error {
	msg := "quantity must be at least 1"
	if s.policy.MaxQuantityPerLine > 0 {
		msg = fmt.Sprintf("quantity must be between 1 and %d", s.policy.MaxQuantityPerLine)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidQuantity, msg).
		WithDetails(map[string]any{"field": "quantity"})
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return nil
}

func resolveVariant(p *catalog.Product, size, color string) (Variant, error) {
	size, color = strings.TrimSpace(size), strings.TrimSpace(color)
	if size != "" && !p.HasSize(size) {
		return Variant{}, pkgerrors.New(pkgerrors.CodeValidation, "size not available for this product").
			WithDetails(map[string]any{"field": "size", "allowed": p.Sizes})
	}
	if color != "" && !p.HasColor(color) {
		return Variant{}, pkgerrors.New(pkgerrors.CodeValidation, "color not available for this product").
			WithDetails(map[string]any{"field": "color", "allowed": p.Colors})
	}
	return Variant{Size: size, Color: color}, nil
}
