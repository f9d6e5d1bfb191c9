package bridge

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

func (c *Client) Login(ctx context.Context, email, password string) (*types.AuthSession, error) {
	return c.authCall(ctx, "/api/auth/login", types.LoginRequest{Email: email, Password: password}, false)
}

func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthSession, error) {
	return c.authCall(ctx, "/api/auth/register", req, false)
}

// Refresh rotates the refresh token; the current (possibly expired) access
// token is sent as the bearer.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*types.AuthSession, error) {
	return c.authCall(ctx, "/api/auth/refresh", types.RefreshRequest{RefreshToken: refreshToken}, true)
}

// Logout revokes the server session. Missing credentials are not an error.
func (c *Client) Logout(ctx context.Context) error {
	if _, ok := c.tokens.Token(ctx); !ok {
		return nil
	}
	return c.send(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil, true)
}

func (c *Client) authCall(ctx context.Context, path string, body any, authed bool) (*types.AuthSession, error) {
	var raw json.RawMessage
	if err := c.send(ctx, http.MethodPost, path, nil, body, &raw, authed); err != nil {
		return nil, err
	}
	var env struct {
		Data types.AuthSession `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding auth response")
	}
	if env.Data.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth response carried no access token")
	}
	return &env.Data, nil
}
