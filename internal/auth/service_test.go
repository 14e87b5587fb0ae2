package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permanentprinting/storefront-backend/internal/users"
	pkgAuth "github.com/permanentprinting/storefront-backend/pkg/auth"
	"github.com/permanentprinting/storefront-backend/pkg/auth/session"
	"github.com/permanentprinting/storefront-backend/pkg/config"
	"github.com/permanentprinting/storefront-backend/pkg/db/dbtest"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	redisclient "github.com/permanentprinting/storefront-backend/pkg/redis"
	"github.com/permanentprinting/storefront-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "permanent-printing-press",
	ExpirationMinutes:      60,
	RefreshTokenTTLMinutes: 120,
}

type fixture struct {
	svc      *service
	users    *users.Repository
	sessions *session.Manager
	mr       *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.NewClient(t)
	repo := users.NewRepository(client.DB())

	mr := miniredis.RunT(t)
	rc := redisclient.NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })
	sessions, err := session.NewManager(rc, testJWT)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		Hasher: security.NewHasher(config.PasswordConfig{
			ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		}),
		JWTConfig: testJWT,
	})
	require.NoError(t, err)
	return &fixture{svc: svc.(*service), users: repo, sessions: sessions, mr: mr}
}

func registerRequest(email string) RegisterRequest {
	return RegisterRequest{
		Name:     " Ama Owusu ",
		Email:    email,
		Password: "correct-horse",
		Phone:    "+233241234567",
		Region:   "Greater Accra",
		City:     "Accra",
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, registerRequest("Ama@Example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "ama@example.com", resp.User.Email)
	assert.Equal(t, "Ama Owusu", resp.User.Name)
	assert.Equal(t, enums.UserRoleCustomer, resp.User.Role)
	require.NotNil(t, resp.User.Location)
	assert.Equal(t, "Accra", resp.User.Location.City)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	ok, err := f.sessions.HasSession(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.Register(ctx, registerRequest("AMA@example.com"))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newFixture(t)
	req := registerRequest("short@example.com")
	req.Password = "abc"

	_, err := f.svc.Register(context.Background(), req)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.ErrorIs(t, err, security.ErrPasswordTooShort)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registerRequest("kofi@example.com"))
	require.NoError(t, err)

	resp, err := f.svc.Login(ctx, LoginRequest{Email: " KOFI@example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLoginAt)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "kofi@example.com", Password: "wrong-horse"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestVerifyAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp, err := f.svc.Register(ctx, registerRequest("efua@example.com"))
	require.NoError(t, err)

	profile, err := f.svc.Verify(ctx, "Bearer "+resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, profile.ID)

	identity, err := f.svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "efua@example.com", identity.Email)

	require.NoError(t, f.svc.Logout(ctx, identity.AccessID))
	_, err = f.svc.Verify(ctx, resp.AccessToken)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.Verify(ctx, "not-a-jwt")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.svc.Verify(ctx, "")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestVerifySessionStoreDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp, err := f.svc.Register(ctx, registerRequest("yaw@example.com"))
	require.NoError(t, err)

	f.mr.Close()
	_, err = f.svc.Verify(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkUnavailable)
}

func TestRefreshRotatesExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	resp, err := f.svc.Register(ctx, registerRequest("abena@example.com"))
	require.NoError(t, err)
	f.svc.now = time.Now

	_, err = f.svc.Verify(ctx, resp.AccessToken)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized), "token minted two hours ago is expired")

	refreshed, err := f.svc.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	profile, err := f.svc.Verify(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "abena@example.com", profile.Email)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized), "refresh tokens are single use")
}

func TestRefreshUnknownUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	accessID := session.NewAccessID()
	userID := uuid.New()
	refresh, err := f.sessions.Generate(ctx, accessID, userID)
	require.NoError(t, err)
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID, Email: "ghost@example.com", Role: enums.UserRoleCustomer, JTI: accessID,
	})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: token, RefreshToken: refresh})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
