package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permanentprinting/storefront-backend/internal/cart"
	"github.com/permanentprinting/storefront-backend/internal/catalog"
	"github.com/permanentprinting/storefront-backend/internal/users"
	"github.com/permanentprinting/storefront-backend/pkg/checkout"
	"github.com/permanentprinting/storefront-backend/pkg/config"
	"github.com/permanentprinting/storefront-backend/pkg/db"
	"github.com/permanentprinting/storefront-backend/pkg/db/dbtest"
	"github.com/permanentprinting/storefront-backend/pkg/db/models"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/metrics"
	"github.com/permanentprinting/storefront-backend/pkg/pagination"
	redisclient "github.com/permanentprinting/storefront-backend/pkg/redis"
)

type fixture struct {
	svc     Service
	carts   cart.Service
	db      *db.Client
	userID  uuid.UUID
	session string
	reg     *prometheus.Registry
}

type gatewayFunc func(ctx context.Context, req ChargeRequest) (ChargeResult, error)

func (f gatewayFunc) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	return f(ctx, req)
}

func (gatewayFunc) Void(context.Context, string) error { return nil }

// recordingGateway captures every charge and records voids by reference.
type recordingGateway struct {
	charges []ChargeRequest
	voided  []string
	voidErr error
}

func (g *recordingGateway) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	g.charges = append(g.charges, req)
	return ChargeResult{Reference: fmt.Sprintf("ref-%d", len(g.charges)), Captured: req.Payment.Method != enums.PaymentMethodCash}, nil
}

func (g *recordingGateway) Void(_ context.Context, reference string) error {
	if g.voidErr != nil {
		return g.voidErr
	}
	g.voided = append(g.voided, reference)
	return nil
}

func newFixture(t *testing.T, gateway PaymentGateway) *fixture {
	t.Helper()
	client := dbtest.NewClient(t)

	user, err := users.NewRepository(client.DB()).Create(context.Background(), users.CreateUserDTO{
		Name: "Ama Owusu", Email: "ama@example.com", PasswordHash: "x",
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rc := redisclient.NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })
	store, err := cart.NewRedisStore(rc, time.Hour)
	require.NoError(t, err)
	carts, err := cart.NewService(cart.ServiceParams{
		Store:    store,
		Products: catalog.NewDefaultSource(),
		Policy:   cart.DefaultPolicy(),
	})
	require.NoError(t, err)

	if gateway == nil {
		gateway = NewMockGateway(config.PaymentConfig{})
	}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(client.DB()),
		DB:      client,
		Carts:   carts,
		Gateway: gateway,
		Metrics: metrics.NewCheckoutMetrics(reg),
	})
	require.NoError(t, err)

	return &fixture{svc: svc, carts: carts, db: client, userID: user.ID, session: cart.UserSessionID(user.ID), reg: reg}
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, f.session, cart.AddItemInput{ProductID: "1", Quantity: 2, Size: "L", Color: "#000000"})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, f.session, cart.AddItemInput{ProductID: "2", Quantity: 3})
	require.NoError(t, err)
}

func shippingAddress() checkout.Address {
	return checkout.Address{
		FirstName: "Ama", LastName: "Owusu", Email: "ama@example.com", Phone: "0241234567",
		Address: "12 Oxford St", City: "Accra", Region: "Greater Accra",
	}
}

func (f *fixture) input(payment checkout.PaymentSelection) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:         f.userID,
		CartSessionID:  f.session,
		Shipping:       shippingAddress(),
		SameAsShipping: true,
		Payment:        payment,
	}
}

var momo = checkout.PaymentSelection{
	Method:       enums.PaymentMethodMobileMoney,
	MomoNumber:   "0241234567",
	MomoProvider: enums.MobileMoneyMTN,
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(m *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestPlaceOrder_PersistsRoundedTotalsAndClearsCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t)
	_, err := f.carts.ApplyPromotion(ctx, f.session, "ghana10")
	require.NoError(t, err)

	order, err := f.svc.PlaceOrder(ctx, f.input(momo))
	require.NoError(t, err)

	assert.Regexp(t, `^PP-\d{8}-[A-Z2-9]{6}$`, order.Number)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Equal(t, "65.00", order.Totals.Subtotal)
	assert.Equal(t, "6.50", order.Totals.DiscountAmount)
	assert.Equal(t, "15.00", order.Totals.ShippingFee)
	assert.Equal(t, "8.13", order.Totals.TaxAmount)
	assert.Equal(t, "81.63", order.Totals.Total)
	require.NotNil(t, order.Totals.PromotionCode)
	assert.Equal(t, "GHANA10", *order.Totals.PromotionCode)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "50.00", order.Items[0].LineTotal)
	assert.Equal(t, "L", *order.Items[0].Size)
	assert.Equal(t, "Accra", order.Billing.City)
	require.NotNil(t, order.Payment.Provider)
	assert.Equal(t, "mtn", *order.Payment.Provider)

	view, err := f.carts.Get(ctx, f.session)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	stored, err := f.svc.Get(ctx, f.userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Number, stored.Number)
	assert.Equal(t, "81.63", stored.Totals.Total)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "1", stored.Items[0].ProductID)

	assert.Equal(t, float64(1), counterValue(t, f.reg, "storefront_orders_total", map[string]string{"payment_method": "momo", "outcome": "success"}))
}

func TestPlaceOrder_CashStaysPlaced(t *testing.T) {
	f := newFixture(t, NewMockGateway(config.PaymentConfig{MockDeclineAll: true}))
	f.fillCart(t)

	order, err := f.svc.PlaceOrder(context.Background(), f.input(checkout.PaymentSelection{Method: enums.PaymentMethodCash}))
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPlaced, order.Status)
	assert.Equal(t, "88.13", order.Totals.Total)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.PlaceOrder(context.Background(), f.input(momo))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestPlaceOrder_ValidationLeavesCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t)

	in := f.input(checkout.PaymentSelection{Method: enums.PaymentMethodCard, CardNumber: "4111111111111111"})
	in.Shipping.Region = ""
	in.SameAsShipping = false

	_, err := f.svc.PlaceOrder(ctx, in)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	violations := details["violations"].([]checkout.FieldViolation)
	fields := make([]string, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"shipping.region", "billing", "payment.expiry_date", "payment.cvv"}, fields)

	view, err := f.carts.Get(ctx, f.session)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestPlaceOrder_GatewayUnavailableKeepsCart(t *testing.T) {
	f := newFixture(t, NewMockGateway(config.PaymentConfig{MockUnavailable: true}))
	ctx := context.Background()
	f.fillCart(t)

	_, err := f.svc.PlaceOrder(ctx, f.input(momo))
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))

	view, err := f.carts.Get(ctx, f.session)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	page, err := f.svc.List(ctx, f.userID, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestPlaceOrder_Declined(t *testing.T) {
	f := newFixture(t, NewMockGateway(config.PaymentConfig{MockDeclineAll: true}))
	f.fillCart(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.input(momo))
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestPlaceOrder_ChargesRoundedTotal(t *testing.T) {
	var charged ChargeRequest
	f := newFixture(t, gatewayFunc(func(_ context.Context, req ChargeRequest) (ChargeResult, error) {
		charged = req
		return ChargeResult{Reference: "ref-1", Captured: true}, nil
	}))
	f.fillCart(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.input(momo))
	require.NoError(t, err)
	assert.Equal(t, "88.13", charged.Amount.StringFixed(2))
	assert.Equal(t, "GHS", charged.Currency)
}

func TestPlaceOrder_PersistFailureKeepsCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.fillCart(t)

	sqlDB, err := f.db.SQL()
	require.NoError(t, err)
	_, err = sqlDB.Exec("DROP TABLE order_line_items")
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, f.input(momo))
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)

	view, err := f.carts.Get(ctx, f.session)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestPlaceOrder_PersistFailureVoidsCapturedCharge(t *testing.T) {
	gw := &recordingGateway{}
	f := newFixture(t, gw)
	ctx := context.Background()
	f.fillCart(t)

	sqlDB, err := f.db.SQL()
	require.NoError(t, err)
	_, err = sqlDB.Exec("DROP TABLE order_line_items")
	require.NoError(t, err)

	for attempt := 1; attempt <= 2; attempt++ {
		_, err = f.svc.PlaceOrder(ctx, f.input(momo))
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency), "attempt %d: %v", attempt, err)
	}

	require.Len(t, gw.charges, 2)
	assert.Equal(t, []string{"ref-1", "ref-2"}, gw.voided, "every captured charge is released")
	assert.Regexp(t, `^PP-\d{8}-[A-Z2-9]{6}$`, gw.charges[0].OrderNumber)

	var orders int64
	require.NoError(t, f.db.DB().Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestPlaceOrder_PersistFailureSkipsVoidForCash(t *testing.T) {
	gw := &recordingGateway{}
	f := newFixture(t, gw)
	f.fillCart(t)

	sqlDB, err := f.db.SQL()
	require.NoError(t, err)
	_, err = sqlDB.Exec("DROP TABLE order_line_items")
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(context.Background(), f.input(checkout.PaymentSelection{Method: enums.PaymentMethodCash}))
	require.Error(t, err)
	assert.Len(t, gw.charges, 1)
	assert.Empty(t, gw.voided, "nothing was captured for cash")
}

func TestPlaceOrder_VoidFailureKeepsOriginalError(t *testing.T) {
	gw := &recordingGateway{voidErr: errors.New("gateway timeout")}
	f := newFixture(t, gw)
	f.fillCart(t)

	sqlDB, err := f.db.SQL()
	require.NoError(t, err)
	_, err = sqlDB.Exec("DROP TABLE order_line_items")
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(context.Background(), f.input(momo))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
}

func TestMockGatewayVoid(t *testing.T) {
	ctx := context.Background()
	gw := NewMockGateway(config.PaymentConfig{})
	charge, err := gw.Charge(ctx, ChargeRequest{Amount: decimal.NewFromInt(10), Payment: momo})
	require.NoError(t, err)
	require.NoError(t, gw.Void(ctx, charge.Reference))
	assert.Error(t, gw.Void(ctx, "ref-unknown"))

	down := NewMockGateway(config.PaymentConfig{MockUnavailable: true})
	assert.Error(t, down.Void(ctx, charge.Reference))
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var numbers []string
	for i := 0; i < 3; i++ {
		f.fillCart(t)
		order, err := f.svc.PlaceOrder(ctx, f.input(momo))
		require.NoError(t, err)
		numbers = append(numbers, order.Number)
		time.Sleep(5 * time.Millisecond)
	}

	page, err := f.svc.List(ctx, f.userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, numbers[2], page.Items[0].Number)
	require.NotEmpty(t, page.NextCursor)

	next, err := f.svc.List(ctx, f.userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, numbers[0], next.Items[0].Number)
	assert.Empty(t, next.NextCursor)

	_, err = f.svc.Get(ctx, uuid.New(), page.Items[0].ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "orders are scoped to their owner")

	_, err = f.svc.List(ctx, f.userID, pagination.Params{Cursor: "@@"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestMockGatewayHonoursContext(t *testing.T) {
	gw := NewMockGateway(config.PaymentConfig{MockLatency: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.Charge(ctx, ChargeRequest{Payment: momo})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewGateway(t *testing.T) {
	gw, err := NewGateway(config.PaymentConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.NotNil(t, gw)
	_, err = NewGateway(config.PaymentConfig{Provider: "paystack"})
	assert.Error(t, err)
}

