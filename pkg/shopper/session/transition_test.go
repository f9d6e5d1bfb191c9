package session

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/partition"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type replayCall struct {
	kind      string
	productID string
	quantity  int
}

type fakeServer struct {
	calls    []replayCall
	failCart map[string]bool
	logouts  int
}

func (f *fakeServer) AddCartItem(_ context.Context, req types.CartItemRequest) error {
	f.calls = append(f.calls, replayCall{kind: "cart", productID: req.ProductID, quantity: req.Quantity})
	if f.failCart[req.ProductID] {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeServer) AddWishlistItem(_ context.Context, id string) error {
	f.calls = append(f.calls, replayCall{kind: "wishlist", productID: id})
	return nil
}

func (f *fakeServer) Logout(context.Context) error {
	f.logouts++
	return errors.New("already expired")
}

type syncFunc func(ctx context.Context) error

func (f syncFunc) SyncFromServer(ctx context.Context) error { return f(ctx) }

type harness struct {
	transition *Transition
	backend    *partition.Memory
	creds      *identity.Credentials
	server     *fakeServer
	cart       *partition.Store[types.CartItem]
	wishlist   *partition.Store[types.Product]
	pulled     []string
	events     []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: partition.NewMemory(), server: &fakeServer{}}
	bus := partition.NewBus()
	bus.Subscribe(partition.Cart.Event, func() { h.events = append(h.events, partition.Cart.Event) })
	bus.Subscribe(partition.Wishlist.Event, func() { h.events = append(h.events, partition.Wishlist.Event) })
	h.creds = identity.NewCredentials(h.backend)
	h.cart = partition.NewStore[types.CartItem](h.backend, partition.Cart, bus)
	h.wishlist = partition.NewStore[types.Product](h.backend, partition.Wishlist, bus)

	pull := func(name string) Syncer {
		return syncFunc(func(ctx context.Context) error {
			h.pulled = append(h.pulled, name+":"+h.creds.Current(ctx).Key())
			return nil
		})
	}
	tr, err := NewTransition(Params{
		Credentials:  h.creds,
		Cart:         h.cart,
		Wishlist:     h.wishlist,
		Replayer:     h.server,
		Revoker:      h.server,
		CartSync:     pull("cart"),
		WishlistSync: pull("wishlist"),
		Bus:          bus,
	})
	require.NoError(t, err)
	h.transition = tr
	return h
}

func jwtFor(email string) string {
	return "h." + base64.RawURLEncoding.EncodeToString([]byte(`{"email":"`+email+`"}`)) + ".s"
}

func TestGuestItemsMigrateOnLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.backend.Set(ctx, "cart_items_guest", `[{"product":{"id":"A","stock":5},"quantity":2},{"product":{"id":"B","stock":5},"quantity":1}]`))
	require.NoError(t, h.backend.Set(ctx, "wishlist_items_guest", `[{"id":"C"}]`))
	require.NoError(t, h.backend.Set(ctx, "cart_items_user@x.com", `[{"product":{"id":"stale"},"quantity":9}]`))

	report := h.transition.OnAuthenticated(ctx, jwtFor("user@x.com"))
	require.NoError(t, report.Err)
	assert.Equal(t, "user@x.com", report.Identity.Key())
	assert.Equal(t, 2, report.CartReplayed)
	assert.Equal(t, 1, report.WishlistReplayed)

	assert.Equal(t, []replayCall{
		{kind: "cart", productID: "A", quantity: 2},
		{kind: "cart", productID: "B", quantity: 1},
		{kind: "wishlist", productID: "C"},
	}, h.server.calls)

	assert.Empty(t, h.cart.Read(ctx, identity.Guest()))
	assert.Empty(t, h.wishlist.Read(ctx, identity.Guest()))
	_, ok, _ := h.backend.Get(ctx, "cart_items_user@x.com")
	assert.False(t, ok, "stale user partition dropped before the pull")

	assert.Equal(t, []string{"cart:user@x.com", "wishlist:user@x.com"}, h.pulled)
	token, ok := h.creds.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, jwtFor("user@x.com"), token)
}

func TestPartialReplayIsReportedNotFatal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.server.failCart = map[string]bool{"A": true}
	require.NoError(t, h.backend.Set(ctx, "cart_items_guest", `[{"product":{"id":"A"},"quantity":2},{"product":{"id":"B"},"quantity":1}]`))

	report := h.transition.OnAuthenticated(ctx, jwtFor("user@x.com"))
	require.Error(t, report.Err)
	assert.Len(t, multierr.Errors(report.Err), 1)
	assert.Equal(t, 1, report.CartReplayed)
	assert.Len(t, h.server.calls, 2, "replay continues past a failure")
	assert.Empty(t, h.cart.Read(ctx, identity.Guest()), "no rollback of the guest removal")
	assert.Len(t, h.pulled, 2)
}

func TestMalformedTokenStaysGuest(t *testing.T) {
	h := newHarness(t)
	report := h.transition.OnAuthenticated(context.Background(), "not.a.jwt")
	require.NoError(t, report.Err)
	assert.True(t, report.Identity.IsGuest())
	assert.Equal(t, []string{"cart:guest", "wishlist:guest"}, h.pulled)
}

func TestLogoutClearsCredentialDespiteRevokeFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.creds.Store(ctx, jwtFor("user@x.com")))

	require.NoError(t, h.transition.Logout(ctx))
	assert.Equal(t, 1, h.server.logouts)
	_, ok := h.creds.Token(ctx)
	assert.False(t, ok)
	assert.True(t, h.creds.Current(ctx).IsGuest())
	assert.Equal(t, []string{"cart:update", "wishlist:update"}, h.events)
}

func TestNewTransitionValidates(t *testing.T) {
	_, err := NewTransition(Params{})
	require.Error(t, err)
}
