package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permanentprinting/storefront-backend/internal/catalog"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/metrics"
	redisclient "github.com/permanentprinting/storefront-backend/pkg/redis"
)

type testEnv struct {
	svc   Service
	store *RedisStore
	mr    *miniredis.Miniredis
	redis *redisclient.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, time.Hour)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Store:    store,
		Products: catalog.NewDefaultSource(),
		Policy:   DefaultPolicy(),
		Metrics:  metrics.NewCartMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return &testEnv{svc: svc, store: store, mr: mr, redis: client}
}

type failingStore struct {
	Store
	failSave bool
	failLoad bool
}

func (f *failingStore) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	if f.failLoad {
		return Snapshot{}, false, errors.New("connection refused")
	}
	return f.Store.Load(ctx, sessionID)
}

func (f *failingStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	if f.failSave {
		return errors.New("connection refused")
	}
	return f.Store.Save(ctx, sessionID, snap)
}

type failingCatalog struct{}

func (failingCatalog) GetProduct(context.Context, string) (*catalog.Product, error) {
	return nil, errors.New("upstream timeout")
}

func TestService_AddItemPersistsAndPrices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewGuestSessionID()

	_, err := env.svc.AddItem(ctx, session, AddItemInput{ProductID: "1", Quantity: 2, Size: "M"})
	require.NoError(t, err)
	view, err := env.svc.AddItem(ctx, session, AddItemInput{ProductID: "2", Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, view.ItemCount)
	assert.Equal(t, "88.13", view.Totals.Rounded().Total.StringFixed(2))

	reread, err := env.svc.Get(ctx, session)
	require.NoError(t, err)
	require.Len(t, reread.Items, 2)
	assert.Equal(t, "Premium Cotton T-Shirt", reread.Items[0].Name)
	assert.Equal(t, "M", reread.Items[0].Variant.Size)
	assert.Equal(t, time.Hour, env.mr.TTL(env.redis.CartKey(session)))
}

func TestService_ApplyPromotion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewGuestSessionID()

	_, err := env.svc.AddItem(ctx, session, AddItemInput{ProductID: "1", Quantity: 2})
	require.NoError(t, err)
	_, err = env.svc.AddItem(ctx, session, AddItemInput{ProductID: "2", Quantity: 3})
	require.NoError(t, err)

	view, err := env.svc.ApplyPromotion(ctx, session, "ghana10")
	require.NoError(t, err)
	assert.Equal(t, "6.50", view.Totals.Rounded().DiscountAmount.StringFixed(2))
	assert.Equal(t, "81.63", view.Totals.Rounded().Total.StringFixed(2))

	_, err = env.svc.ApplyPromotion(ctx, session, "bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPromotionCode)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	totals, err := env.svc.Totals(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "GHANA10", totals.PromotionCode, "unknown code keeps the prior promotion")

	view, err = env.svc.RemovePromotion(ctx, session)
	require.NoError(t, err)
	assert.Nil(t, view.Promotion)
	assert.True(t, view.Totals.DiscountAmount.IsZero())
}

func TestService_UpdateAndRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewGuestSessionID()

	_, err := env.svc.AddItem(ctx, session, AddItemInput{ProductID: "3", Quantity: 1})
	require.NoError(t, err)

	view, err := env.svc.UpdateQuantity(ctx, session, "3", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.True(t, view.Totals.ShippingFee.IsZero(), "55 x 4 = 220 ships free")

	_, err = env.svc.UpdateQuantity(ctx, session, "9", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	view, err = env.svc.UpdateQuantity(ctx, session, "3", 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Totals.Total.IsZero())

	_, err = env.svc.AddItem(ctx, session, AddItemInput{ProductID: "5", Quantity: 1})
	require.NoError(t, err)
	view, err = env.svc.RemoveItem(ctx, session, "5")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestService_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewGuestSessionID()

	_, err := env.svc.AddItem(ctx, session, AddItemInput{ProductID: "1", Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.AddItem(ctx, session, AddItemInput{ProductID: "1", Quantity: 1, Size: "XXXL"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.AddItem(ctx, session, AddItemInput{ProductID: "404", Quantity: 1})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = env.svc.Get(ctx, "  ")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	view, err := env.svc.Get(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, view.Items, "rejected operations must not create a cart")
}

func TestService_Clear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewGuestSessionID()

	_, err := env.svc.AddItem(ctx, session, AddItemInput{ProductID: "1", Quantity: 1})
	require.NoError(t, err)
	_, err = env.svc.ApplyPromotion(ctx, session, "BULK20")
	require.NoError(t, err)

	require.NoError(t, env.svc.Clear(ctx, session))
	assert.False(t, env.mr.Exists(env.redis.CartKey(session)))

	view, err := env.svc.Get(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.Promotion)
}

func TestService_StoreFailureLeavesCartUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := NewGuestSessionID()

	_, err := env.svc.AddItem(ctx, session, AddItemInput{ProductID: "1", Quantity: 1})
	require.NoError(t, err)

	flaky := &failingStore{Store: env.store, failSave: true}
	svc, err := NewService(ServiceParams{Store: flaky, Products: catalog.NewDefaultSource(), Policy: DefaultPolicy()})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, session, AddItemInput{ProductID: "1", Quantity: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))

	view, err := env.svc.Get(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Items[0].Quantity)

	flaky.failSave, flaky.failLoad = false, true
	_, err = svc.Get(ctx, session)
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
}

func TestService_CatalogFailureIsDependencyError(t *testing.T) {
	env := newTestEnv(t)
	svc, err := NewService(ServiceParams{Store: env.store, Products: failingCatalog{}, Policy: DefaultPolicy()})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), "s1", AddItemInput{ProductID: "1", Quantity: 1})
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
	assert.False(t, env.mr.Exists(env.redis.CartKey("s1")))
}

func TestService_MergeGuestIntoUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	guest := NewGuestSessionID()
	user := UserSessionID(uuid.New())

	_, err := env.svc.AddItem(ctx, guest, AddItemInput{ProductID: "1", Quantity: 2})
	require.NoError(t, err)
	_, err = env.svc.AddItem(ctx, guest, AddItemInput{ProductID: "2", Quantity: 1})
	require.NoError(t, err)
	_, err = env.svc.ApplyPromotion(ctx, guest, "STUDENT5")
	require.NoError(t, err)

	_, err = env.svc.AddItem(ctx, user, AddItemInput{ProductID: "1", Quantity: 1})
	require.NoError(t, err)

	view, err := env.svc.Merge(ctx, guest, user)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.Items[0].Quantity)
	require.NotNil(t, view.Promotion)
	assert.Equal(t, "STUDENT5", view.Promotion.Code)
	assert.False(t, env.mr.Exists(env.redis.CartKey(guest)))
}

func TestService_MergeCapsAtLineLimit(t *testing.T) {
	env := newTestEnv(t)
	policy := DefaultPolicy()
	policy.MaxQuantityPerLine = 5
	svc, err := NewService(ServiceParams{Store: env.store, Products: catalog.NewDefaultSource(), Policy: policy})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.AddItem(ctx, "guest", AddItemInput{ProductID: "1", Quantity: 4})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user:1", AddItemInput{ProductID: "1", Quantity: 3})
	require.NoError(t, err)

	view, err := svc.Merge(ctx, "guest", "user:1")
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceParams{Products: catalog.NewDefaultSource()})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Store: &failingStore{}})
	assert.Error(t, err)
}

func TestRedisStoreSlidesTTL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Save(ctx, "s", Snapshot{Lines: []LineItem{{ProductID: "1", Quantity: 1}}}))
	env.mr.FastForward(50 * time.Minute)

	_, ok, err := env.store.Load(ctx, "s")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Hour, env.mr.TTL(env.redis.CartKey("s")))

	require.NoError(t, env.mr.Set(env.redis.CartKey("bad"), "{not json"))
	_, _, err = env.store.Load(ctx, "bad")
	assert.Error(t, err)

	_, ok, err = env.store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
