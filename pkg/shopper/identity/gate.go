package identity

import (
	"context"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
)

// ErrLoginRequired is returned by Gate.Require when no credential is present.
var ErrLoginRequired = pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")

// Navigator sends the user to the login flow.
type Navigator interface {
	RedirectToLogin(ctx context.Context)
}

type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context) {
	f(ctx)
}

// Gate guards mutations that need a credential. Presence of a token is what
// counts: an undecodable token still passes and maps to the guest partition.
type Gate struct {
	provider Provider
	nav      Navigator
}

func NewGate(provider Provider, nav Navigator) *Gate {
	return &Gate{provider: provider, nav: nav}
}

// Require returns the active identity, or redirects and fails with
// ErrLoginRequired.
func (g *Gate) Require(ctx context.Context) (Identity, error) {
	if _, ok := g.provider.Token(ctx); !ok {
		if g.nav != nil {
			g.nav.RedirectToLogin(ctx)
		}
		return Guest(), ErrLoginRequired
	}
	return g.provider.Current(ctx), nil
}

// Authenticated reports credential presence without side effects.
func (g *Gate) Authenticated(ctx context.Context) bool {
	_, ok := g.provider.Token(ctx)
	return ok
}

// Bind pins the current credential to ctx so work scheduled now still speaks
// for this identity after a later login or logout. A context that already
// carries a pinned token is returned as is.
func (g *Gate) Bind(ctx context.Context) context.Context {
	if _, ok := PinnedToken(ctx); ok {
		return ctx
	}
	if token, ok := g.provider.Token(ctx); ok {
		return WithToken(ctx, token)
	}
	return ctx
}

func (g *Gate) Provider() Provider {
	return g.provider
}
