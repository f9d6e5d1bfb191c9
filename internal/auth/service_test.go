package auth

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/saree-storefront/internal/users"
	pkgAuth "github.com/angelmondragon/saree-storefront/pkg/auth"
	"github.com/angelmondragon/saree-storefront/pkg/auth/session"
	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/db"
	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/security"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "saree-storefront",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 600,
}

type harness struct {
	client   *db.Client
	users    *users.Repository
	sessions *session.Manager
	hasher   *security.Hasher
}

func newHarness(t *testing.T) harness {
	t.Helper()
	client, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&models.User{}))

	sessions, err := session.NewManager(session.NewMemoryStore(), testJWT)
	require.NoError(t, err)
	return harness{
		client:   client,
		users:    users.NewRepository(client.DB()),
		sessions: sessions,
		hasher:   security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1}),
	}
}

func (h harness) service(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       h.users,
		SessionManager: h.sessions,
		PasswordHasher: h.hasher,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	return svc
}

func (h harness) seedUser(t *testing.T, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := h.hasher.Hash(password)
	require.NoError(t, err)
	user, err := h.users.Create(context.Background(), users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         "Meera",
		IsActive:     &active,
	})
	require.NoError(t, err)
	return user
}

func TestLoginIssuesTokensWithEmailClaim(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "meera@example.com", "s3cret-pass", true)

	resp, err := h.service(t).Login(context.Background(), types.LoginRequest{Email: " MEERA@example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, user.ID.String(), resp.User.ID)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "meera@example.com", claims.Email)
	assert.Equal(t, user.ID, claims.UserID)

	ok, err := h.sessions.HasSession(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := h.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "meera@example.com", "s3cret-pass", true)
	h.seedUser(t, "inactive@example.com", "s3cret-pass", false)
	svc := h.service(t)

	cases := []types.LoginRequest{
		{Email: "meera@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "s3cret-pass"},
		{Email: "inactive@example.com", Password: "s3cret-pass"},
		{Email: "   ", Password: "s3cret-pass"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "email %q", req.Email)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "meera@example.com", "s3cret-pass", true)
	svc := h.service(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, types.LoginRequest{Email: "meera@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.AccessToken, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	oldClaims, err := pkgAuth.ParseAccessToken(testJWT, first.AccessToken)
	require.NoError(t, err)
	newClaims, err := pkgAuth.ParseAccessToken(testJWT, second.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.ID, newClaims.ID)

	_, err = svc.Refresh(ctx, first.AccessToken, first.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "meera@example.com", "s3cret-pass", true)
	svc := h.service(t)
	ctx := context.Background()

	accessID := session.NewAccessID()
	refresh, err := h.sessions.Generate(ctx, accessID)
	require.NoError(t, err)
	expired, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID, Email: user.Email, JTI: accessID,
	})
	require.NoError(t, err)

	resp, err := svc.Refresh(ctx, expired, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRefreshRejectsForeignSignature(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "meera@example.com", "s3cret-pass", true)

	other := testJWT
	other.Secret = "other"
	forged, err := pkgAuth.MintAccessToken(other, time.Now(), pkgAuth.AccessTokenPayload{UserID: user.ID, Email: user.Email})
	require.NoError(t, err)

	_, err = h.service(t).Refresh(context.Background(), forged, "anything")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "meera@example.com", "s3cret-pass", true)
	svc := h.service(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, types.LoginRequest{Email: "meera@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.ID))
	ok, err := h.sessions.HasSession(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Refresh(ctx, resp.AccessToken, resp.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	assert.True(t, pkgerrors.IsCode(svc.Logout(ctx, ""), pkgerrors.CodeUnauthorized))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
