package auth

import (
	"context"
	"testing"

	pkgAuth "github.com/angelmondragon/saree-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h harness) registerService(t *testing.T) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             h.client,
		SessionManager: h.sessions,
		PasswordHasher: h.hasher,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterCreatesUserAndSignsIn(t *testing.T) {
	h := newHarness(t)
	phone := "+91 98765 43210"

	resp, err := h.registerService(t).Register(context.Background(), types.RegisterRequest{
		Name:     "  Anjali  ",
		Email:    "Anjali@Example.com",
		Password: "handloom-2024",
		Phone:    &phone,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "anjali@example.com", resp.User.Email)
	assert.Equal(t, "Anjali", resp.User.Name)
	require.NotNil(t, resp.User.Phone)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "anjali@example.com", claims.Email)

	stored, err := h.users.FindByEmail(context.Background(), "anjali@example.com")
	require.NoError(t, err)
	ok, err := h.hasher.Verify("handloom-2024", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, stored.IsActive)

	login, err := h.service(t).Login(context.Background(), types.LoginRequest{Email: "anjali@example.com", Password: "handloom-2024"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	h := newHarness(t)
	svc := h.registerService(t)
	req := types.RegisterRequest{Name: "Anjali", Email: "anjali@example.com", Password: "handloom-2024"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	req.Email = " ANJALI@example.com"
	_, err = svc.Register(context.Background(), req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRegisterValidatesInput(t *testing.T) {
	h := newHarness(t)
	svc := h.registerService(t)

	_, err := svc.Register(context.Background(), types.RegisterRequest{Name: "A", Email: " ", Password: "handloom-2024"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(context.Background(), types.RegisterRequest{Name: " ", Email: "a@b.co", Password: "handloom-2024"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(context.Background(), types.RegisterRequest{Name: "A", Email: "a@b.co", Password: ""})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
