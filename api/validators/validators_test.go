package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONBodyValidatesTags(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"productId":"","quantity":0}`))
	var body types.CartItemRequest
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["productId"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/wishlist", strings.NewReader(`{"productId":"a","extra":1}`))
	var body types.WishlistItemRequest
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/cart?all=1&category=%20Silk%20", nil)
	assert.True(t, QueryFlag(req, "all"))
	assert.False(t, QueryFlag(req, "missing"))
	assert.Equal(t, "Silk", QueryString(req, "category", 64))
	assert.Equal(t, "Si", QueryString(req, "category", 2))

	_, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=x", nil), "limit", 10, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	n, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestSanitizeStringDropsControlCharsAndKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "Banarasi Silk", SanitizeString(" Banarasi\x00 Silk\n", 64))
	// "ê" is two bytes; a cap landing inside it backs off to the previous rune.
	assert.Equal(t, "Crêp", SanitizeString("Crêpe", 5))
	assert.Equal(t, "Cr", SanitizeString("Crêpe", 3))
	assert.Equal(t, "Organza", SanitizeString("Organza", 0))
}
