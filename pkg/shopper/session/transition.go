// Package session moves a shopper between the guest and signed-in
// partitions when the credential changes.
package session

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/partition"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"go.uber.org/multierr"
)

// Replayer receives the guest items on the server once the shopper is known.
type Replayer interface {
	AddCartItem(ctx context.Context, req types.CartItemRequest) error
	AddWishlistItem(ctx context.Context, productID string) error
}

// Revoker ends the server session; failures are ignored on logout.
type Revoker interface {
	Logout(ctx context.Context) error
}

// Syncer pulls one namespace for the active identity.
type Syncer interface {
	SyncFromServer(ctx context.Context) error
}

type CredentialStore interface {
	Store(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Report describes what a transition did. Err aggregates every failure; the
// sign-in itself has already succeeded regardless.
type Report struct {
	Identity         identity.Identity
	CartReplayed     int
	WishlistReplayed int
	Err              error
}

type Params struct {
	Credentials  CredentialStore
	Cart         *partition.Store[types.CartItem]
	Wishlist     *partition.Store[types.Product]
	Replayer     Replayer
	Revoker      Revoker
	CartSync     Syncer
	WishlistSync Syncer
	Bus          *partition.Bus
	Logger       *logger.Logger
}

type Transition struct {
	p    Params
	logg *logger.Logger
}

func NewTransition(p Params) (*Transition, error) {
	switch {
	case p.Credentials == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credential store is required")
	case p.Cart == nil || p.Wishlist == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart and wishlist stores are required")
	case p.Replayer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "replayer is required")
	case p.CartSync == nil || p.WishlistSync == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart and wishlist syncers are required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Transition{p: p, logg: logg}, nil
}

// OnAuthenticated persists token, replays the guest cart and wishlist to the
// server one call at a time, drops the guest and stale user partitions, then
// pulls both namespaces. Only a failure to persist the token aborts; every
// later failure is collected in the report and the steps carry on.
func (t *Transition) OnAuthenticated(ctx context.Context, token string) Report {
	if err := t.p.Credentials.Store(ctx, token); err != nil {
		return Report{Identity: identity.Guest(), Err: pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist credential")}
	}
	id := identity.Resolve(token)
	ctx = t.logg.WithEmail(ctx, id.Key())
	report := Report{Identity: id}
	guest := identity.Guest()

	var errs error
	for _, item := range t.p.Cart.Read(ctx, guest) {
		if err := t.p.Replayer.AddCartItem(ctx, item.Request()); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("replay cart item %s: %w", item.Product.ID, err))
			continue
		}
		report.CartReplayed++
	}
	for _, product := range t.p.Wishlist.Read(ctx, guest) {
		if err := t.p.Replayer.AddWishlistItem(ctx, product.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("replay wishlist item %s: %w", product.ID, err))
			continue
		}
		report.WishlistReplayed++
	}

	errs = multierr.Append(errs, t.p.Cart.Remove(ctx, guest))
	errs = multierr.Append(errs, t.p.Wishlist.Remove(ctx, guest))
	if !id.IsGuest() {
		errs = multierr.Append(errs, t.p.Cart.Remove(ctx, id))
		errs = multierr.Append(errs, t.p.Wishlist.Remove(ctx, id))
	}

	errs = multierr.Append(errs, t.p.CartSync.SyncFromServer(ctx))
	errs = multierr.Append(errs, t.p.WishlistSync.SyncFromServer(ctx))

	if errs != nil {
		t.logg.Warn(t.logg.WithField(ctx, "failures", len(multierr.Errors(errs))), "guest reconciliation incomplete")
	} else {
		t.logg.Debug(ctx, "guest reconciliation complete")
	}
	report.Err = errs
	return report
}

// Logout revokes the server session when possible and drops the credential,
// which makes the guest partition active again.
func (t *Transition) Logout(ctx context.Context) error {
	if t.p.Revoker != nil {
		if err := t.p.Revoker.Logout(ctx); err != nil {
			t.logg.Warn(t.logg.WithField(ctx, "error", err.Error()), "server logout failed")
		}
	}
	if err := t.p.Credentials.Clear(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear credential")
	}
	t.p.Bus.Publish(partition.Cart.Event)
	t.p.Bus.Publish(partition.Wishlist.Event)
	return nil
}
