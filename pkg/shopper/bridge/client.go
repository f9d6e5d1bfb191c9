// Package bridge talks to the storefront REST mirror. Every call returns a
// typed *errors.Error so callers can tell transport failures from rejected
// requests.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

const maxErrorBody = 64 << 10

// TokenSource supplies the bearer credential.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New builds a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid api base url %q", baseURL))
	}
	if tokens == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token source is required")
	}
	c := &Client{base: base, http: &http.Client{Timeout: 30 * time.Second}, tokens: tokens}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) FetchCart(ctx context.Context) ([]types.CartItem, error) {
	var items []types.CartItem
	if err := c.getList(ctx, "/api/cart", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddCartItem sets the server-side quantity (and colour, when chosen) of a
// line (POST upsert).
func (c *Client) AddCartItem(ctx context.Context, req types.CartItemRequest) error {
	return c.send(ctx, http.MethodPost, "/api/cart", nil, req, nil, true)
}

func (c *Client) UpdateCartItem(ctx context.Context, req types.CartItemRequest) error {
	return c.send(ctx, http.MethodPut, "/api/cart", nil, req, nil, true)
}

func (c *Client) RemoveCartItem(ctx context.Context, productID string) error {
	return c.send(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(productID), nil, nil, nil, true)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/api/cart", url.Values{"all": {"1"}}, nil, nil, true)
}

func (c *Client) FetchWishlist(ctx context.Context) ([]types.Product, error) {
	var items []types.Product
	if err := c.getList(ctx, "/api/wishlist", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddWishlistItem(ctx context.Context, productID string) error {
	return c.send(ctx, http.MethodPost, "/api/wishlist", nil, types.WishlistItemRequest{ProductID: productID}, nil, true)
}

func (c *Client) RemoveWishlistItem(ctx context.Context, productID string) error {
	return c.send(ctx, http.MethodDelete, "/api/wishlist", url.Values{"productId": {productID}}, nil, nil, true)
}

func (c *Client) ClearWishlist(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/api/wishlist", url.Values{"all": {"1"}}, nil, nil, true)
}

// getList decodes either a bare JSON array or a {"data": [...]} envelope.
func (c *Client) getList(ctx context.Context, path string, out any) error {
	var raw json.RawMessage
	if err := c.send(ctx, http.MethodGet, path, nil, nil, &raw, true); err != nil {
		return err
	}
	return decodeList(raw, out)
}

func decodeList(raw json.RawMessage, out any) error {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return json.Unmarshal([]byte("[]"), out)
	}
	if body[0] == '{' {
		var env types.RawEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding response envelope")
		}
		return decodeList(env.Data, out)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding response list")
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, out *json.RawMessage, authed bool) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if authed {
		token, ok := identity.PinnedToken(ctx)
		if !ok {
			token, ok = c.tokens.Token(ctx)
		}
		if !ok {
			return identity.ErrLoginRequired
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading response body")
	}
	*out = payload
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.base.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func decodeError(method, path string, resp *http.Response) error {
	code := pkgerrors.FromHTTPStatus(resp.StatusCode)
	message := fmt.Sprintf("%s %s: %s", method, path, resp.Status)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env types.ErrorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		message = env.Error.Message
		if env.Error.Code != "" {
			code = pkgerrors.Code(env.Error.Code)
		}
		return pkgerrors.New(code, message).WithDetails(env.Error.Details)
	}
	return pkgerrors.New(code, message)
}
