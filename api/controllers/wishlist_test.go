package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/saree-storefront/api/middleware"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

type stubWishlistService struct {
	added   []string
	removed []string
	cleared bool
}

func (s *stubWishlistService) List(ctx context.Context, owner uuid.UUID) ([]types.Product, error) {
	return []types.Product{{ID: "c"}}, nil
}

func (s *stubWishlistService) Add(ctx context.Context, owner uuid.UUID, productID string) error {
	s.added = append(s.added, productID)
	return nil
}

func (s *stubWishlistService) Remove(ctx context.Context, owner uuid.UUID, productID string) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	s.removed = append(s.removed, productID)
	return nil
}

func (s *stubWishlistService) Clear(ctx context.Context, owner uuid.UUID) error {
	s.cleared = true
	return nil
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func TestWishlistAddAndList(t *testing.T) {
	svc := &stubWishlistService{}

	rec := httptest.NewRecorder()
	WishlistAddItem(svc, nil).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodPost, "/api/wishlist", strings.NewReader(`{"productId":"c"}`))))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"c"}, svc.added)

	rec = httptest.NewRecorder()
	WishlistList(svc, nil).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/wishlist", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"c"`)
}

func TestWishlistDeleteModes(t *testing.T) {
	svc := &stubWishlistService{}

	rec := httptest.NewRecorder()
	WishlistDelete(svc, nil).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodDelete, "/api/wishlist?productId=c", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"c"}, svc.removed)

	rec = httptest.NewRecorder()
	WishlistDelete(svc, nil).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodDelete, "/api/wishlist", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	WishlistDelete(svc, nil).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodDelete, "/api/wishlist?all=1", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.cleared)
}

func TestWishlistRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	WishlistList(&stubWishlistService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wishlist", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
