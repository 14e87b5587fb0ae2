package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permanentprinting/storefront-backend/api/middleware"
	"github.com/permanentprinting/storefront-backend/internal/auth"
	"github.com/permanentprinting/storefront-backend/internal/bulkorders"
	"github.com/permanentprinting/storefront-backend/internal/cart"
	"github.com/permanentprinting/storefront-backend/internal/catalog"
	"github.com/permanentprinting/storefront-backend/internal/orders"
	"github.com/permanentprinting/storefront-backend/internal/users"
	"github.com/permanentprinting/storefront-backend/pkg/config"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/metrics"
	"github.com/permanentprinting/storefront-backend/pkg/pagination"
	"github.com/permanentprinting/storefront-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

var (
	customerID = uuid.New()
	adminID    = uuid.New()
)

// stubAuthService accepts the literal tokens "customer" and "admin".
type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.AuthResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.AuthResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAuthService) Verify(context.Context, string) (*users.UserDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
}

func (stubAuthService) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	switch strings.TrimPrefix(token, "Bearer ") {
	case "customer":
		return &auth.Identity{UserID: customerID, Role: enums.UserRoleCustomer, AccessID: "c"}, nil
	case "admin":
		return &auth.Identity{UserID: adminID, Role: enums.UserRoleAdmin, AccessID: "a"}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
}

func (stubAuthService) Refresh(context.Context, auth.RefreshRequest) (*auth.AuthResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
}

func (stubAuthService) Logout(context.Context, string) error {
	return nil
}

type stubOrders struct {
	placed []orders.PlaceOrderInput
}

func (s *stubOrders) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	s.placed = append(s.placed, input)
	return &orders.OrderDTO{ID: uuid.New(), Number: "PP-20260101-ABC123"}, nil
}

func (s *stubOrders) Get(_ context.Context, _, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID}, nil
}

func (s *stubOrders) List(context.Context, uuid.UUID, pagination.Params) (pagination.Page[orders.OrderDTO], error) {
	return pagination.Page[orders.OrderDTO]{Items: []orders.OrderDTO{}}, nil
}

type stubBulkOrders struct{}

func (stubBulkOrders) Submit(context.Context, *uuid.UUID, bulkorders.SubmitRequest) (*bulkorders.RequestDTO, error) {
	return &bulkorders.RequestDTO{ID: uuid.New()}, nil
}

func (stubBulkOrders) Get(_ context.Context, id uuid.UUID) (*bulkorders.RequestDTO, error) {
	return &bulkorders.RequestDTO{ID: id}, nil
}

func (stubBulkOrders) List(context.Context, string, pagination.Params) (pagination.Page[bulkorders.RequestDTO], error) {
	return pagination.Page[bulkorders.RequestDTO]{Items: []bulkorders.RequestDTO{}}, nil
}

type testServer struct {
	handler http.Handler
	orders  *stubOrders
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = redisClient.Close() })

	store, err := cart.NewRedisStore(redisClient, time.Hour)
	require.NoError(t, err)
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    store,
		Products: catalog.NewDefaultSource(),
		Policy:   cart.DefaultPolicy(),
	})
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", AllowedOrigins: []string{"http://localhost:3000"}},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    2,
			LoginEmailLimit: 2,
		},
	}
	reg := prometheus.NewRegistry()
	ordersStub := &stubOrders{}

	handler := NewRouter(
		cfg,
		nil,
		stubPinger{},
		redisClient,
		reg,
		metrics.NewHTTPMetrics(reg),
		stubAuthService{},
		catalog.NewDefaultSource(),
		cartService,
		ordersStub,
		stubBulkOrders{},
	)
	return &testServer{handler: handler, orders: ordersStub}
}

func (s *testServer) do(method, path, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/health/live", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/health/ready", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/api/v1/products", "", "", nil).Code)

	rec := srv.do(http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestGuestCartSessionRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/v1/cart/items", "", `{"product_id":"3","quantity":1}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := rec.Header().Get(middleware.CartSessionHeader)
	require.NotEmpty(t, session)

	rec = srv.do(http.MethodGet, "/api/v1/cart/totals", "", "", map[string]string{middleware.CartSessionHeader: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subtotal":"55.00"`)
}

func TestCartRejectsInvalidToken(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodGet, "/api/v1/cart", "forged", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutRequiresAuthAndIdempotencyKey(t *testing.T) {
	srv := newTestServer(t)
	body := `{"same_as_shipping":true,"payment":{"method":"cash"}}`

	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodPost, "/api/v1/checkout", "", body, nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodPost, "/api/v1/checkout", "customer", body, nil).Code)

	headers := map[string]string{"Idempotency-Key": "order-1"}
	first := srv.do(http.MethodPost, "/api/v1/checkout", "customer", body, headers)
	require.Equal(t, http.StatusCreated, first.Code)
	replay := srv.do(http.MethodPost, "/api/v1/checkout", "customer", body, headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, first.Body.String(), replay.Body.String())

	require.Len(t, srv.orders.placed, 1)
	assert.Equal(t, cart.UserSessionID(customerID), srv.orders.placed[0].CartSessionID)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodGet, "/api/v1/admin/bulk-orders", "", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(http.MethodGet, "/api/v1/admin/bulk-orders", "customer", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/api/v1/admin/bulk-orders", "admin", "", nil).Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t)
	body := `{"email":"kwame@example.com","password":"wrong-password"}`

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodPost, "/api/v1/auth/login", "", body, nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, srv.do(http.MethodPost, "/api/v1/auth/login", "", body, nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodOptions, "/api/v1/cart", "", "", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": middleware.CartSessionHeader,
	})
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
