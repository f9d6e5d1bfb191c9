package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/saree-storefront/api/middleware"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

type stubAuthService struct {
	resp        *types.AuthSession
	err         error
	lastAccess  string
	lastRefresh string
	loggedOut   string
}

func (s *stubAuthService) Login(ctx context.Context, req types.LoginRequest) (*types.AuthSession, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*types.AuthSession, error) {
	s.lastAccess, s.lastRefresh = accessToken, refreshToken
	return s.resp, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

type stubRegisterService struct {
	resp *types.AuthSession
	err  error
	last types.RegisterRequest
}

func (s *stubRegisterService) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthSession, error) {
	s.last = req
	return s.resp, s.err
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) types.AuthSession {
	t.Helper()
	var envelope struct {
		Data types.AuthSession `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{resp: &types.AuthSession{AccessToken: "access-token", RefreshToken: "refresh-token"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"meera@example.com","password":"secret"}`))
	rec := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get(TokenHeader); got != "access-token" {
		t.Fatalf("expected token header, got %q", got)
	}
	if got := decodeSession(t, rec); got.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestAuthLoginValidation(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"not-an-email","password":""}`))
	rec := httptest.NewRecorder()
	AuthLogin(&stubAuthService{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthLoginUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"meera@example.com","password":"nope"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubRegisterService{resp: &types.AuthSession{AccessToken: "a", RefreshToken: "r", User: &types.AuthUser{Email: "new@example.com"}}}
	body := `{"name":"Anjali","email":"new@example.com","password":"handloom-2024"}`
	rec := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.last.Name != "Anjali" {
		t.Fatalf("unexpected request %+v", svc.last)
	}
	if got := decodeSession(t, rec); got.User == nil || got.User.Email != "new@example.com" {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestAuthRegisterConflict(t *testing.T) {
	svc := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	body := `{"name":"Anjali","email":"new@example.com","password":"handloom-2024"}`
	rec := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestAuthRefreshPassesBearerAndBody(t *testing.T) {
	svc := &stubAuthService{resp: &types.AuthSession{AccessToken: "next", RefreshToken: "r2"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"r1"}`))
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	AuthRefresh(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastAccess != "expired-token" || svc.lastRefresh != "r1" {
		t.Fatalf("unexpected refresh args %q %q", svc.lastAccess, svc.lastRefresh)
	}
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"r1"}`))
	rec := httptest.NewRecorder()
	AuthRefresh(&stubAuthService{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthLogoutRevokesAccessID(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "jti-1"))
	rec := httptest.NewRecorder()

	AuthLogout(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.loggedOut != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %q", svc.loggedOut)
	}
}
