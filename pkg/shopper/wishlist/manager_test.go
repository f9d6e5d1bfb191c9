package wishlist

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/partition"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	mu     sync.Mutex
	calls  []string
	server []types.Product
	fail   error
}

func (f *fakeMirror) record(c string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.fail
}

func (f *fakeMirror) FetchWishlist(context.Context) ([]types.Product, error) {
	if err := f.record("fetch"); err != nil {
		return nil, err
	}
	return append([]types.Product(nil), f.server...), nil
}

func (f *fakeMirror) AddWishlistItem(_ context.Context, id string) error {
	return f.record("post " + id)
}

func (f *fakeMirror) RemoveWishlistItem(_ context.Context, id string) error {
	return f.record("delete " + id)
}

func (f *fakeMirror) ClearWishlist(context.Context) error {
	return f.record("clear")
}

type manualQueue struct {
	tasks []func(context.Context) error
}

func (q *manualQueue) Enqueue(_ context.Context, _, _ string, run func(context.Context) error) {
	q.tasks = append(q.tasks, run)
}

func (q *manualQueue) drain() {
	for len(q.tasks) > 0 {
		next := q.tasks[0]
		q.tasks = q.tasks[1:]
		_ = next(context.Background())
	}
}

type harness struct {
	manager   *Manager
	mirror    *fakeMirror
	queue     *manualQueue
	backend   *partition.Memory
	events    int
	redirects int
}

func token(email string) string {
	return "h." + base64.RawURLEncoding.EncodeToString([]byte(`{"email":"`+email+`"}`)) + ".s"
}

func newHarness(t *testing.T, tok string) *harness {
	t.Helper()
	h := &harness{mirror: &fakeMirror{}, queue: &manualQueue{}, backend: partition.NewMemory()}
	bus := partition.NewBus()
	bus.Subscribe(partition.Wishlist.Event, func() { h.events++ })
	gate := identity.NewGate(identity.NewStatic(tok), identity.NavigatorFunc(func(context.Context) { h.redirects++ }))
	m, err := NewManager(Params{
		Gate:   gate,
		Store:  partition.NewStore[types.Product](h.backend, partition.Wishlist, bus),
		Mirror: h.mirror,
		Queue:  h.queue,
	})
	require.NoError(t, err)
	h.manager = m
	return h
}

func TestNewManagerValidates(t *testing.T) {
	_, err := NewManager(Params{Gate: identity.NewGate(identity.NewStatic(""), nil)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestToggleAddsThenRemoves(t *testing.T) {
	h := newHarness(t, token("a@b.co"))
	ctx := context.Background()
	p := types.Product{ID: "C", Stock: 1}

	added, err := h.manager.ToggleWishlist(ctx, p)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, h.manager.IsWishlisted(ctx, "C"))

	added, err = h.manager.ToggleWishlist(ctx, p)
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, h.manager.IsWishlisted(ctx, "C"))
	assert.Equal(t, 2, h.events)

	h.queue.drain()
	assert.Equal(t, []string{"post C", "delete C", "fetch", "fetch"}, h.mirror.calls)
}

func TestToggleWithoutCredentialRedirects(t *testing.T) {
	h := newHarness(t, "")
	_, err := h.manager.ToggleWishlist(context.Background(), types.Product{ID: "C"})
	require.ErrorIs(t, err, identity.ErrLoginRequired)
	assert.Equal(t, 1, h.redirects)
	assert.Zero(t, h.events)
	assert.Empty(t, h.queue.tasks)
}

func TestToggleKeepsOrder(t *testing.T) {
	h := newHarness(t, token("a@b.co"))
	ctx := context.Background()
	for _, id := range []string{"A", "B", "C"} {
		_, err := h.manager.ToggleWishlist(ctx, types.Product{ID: id})
		require.NoError(t, err)
	}
	_, err := h.manager.ToggleWishlist(ctx, types.Product{ID: "B"})
	require.NoError(t, err)

	ids := []string{}
	for _, p := range h.manager.GetWishlist(ctx) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"A", "C"}, ids)
}

func TestRemoveAndClear(t *testing.T) {
	h := newHarness(t, token("a@b.co"))
	ctx := context.Background()
	require.NoError(t, h.backend.Set(ctx, "wishlist_items_a@b.co", `[{"id":"A"},{"id":"B"}]`))

	require.NoError(t, h.manager.RemoveFromWishlist(ctx, "A"))
	require.NoError(t, h.manager.RemoveFromWishlist(ctx, "A"))
	assert.Len(t, h.manager.GetWishlist(ctx), 1)

	require.NoError(t, h.manager.ClearWishlist(ctx))
	assert.Empty(t, h.manager.GetWishlist(ctx))

	h.queue.drain()
	assert.Equal(t, []string{"delete A", "delete A", "clear", "fetch"}, h.mirror.calls)
}

func TestSyncFailurePreservesLocal(t *testing.T) {
	h := newHarness(t, token("a@b.co"))
	ctx := context.Background()
	require.NoError(t, h.backend.Set(ctx, "wishlist_items_a@b.co", `[{"id":"A"}]`))

	h.mirror.fail = errors.New("down")
	require.Error(t, h.manager.SyncFromServer(ctx))
	assert.True(t, h.manager.IsWishlisted(ctx, "A"))

	h.mirror.fail = nil
	h.mirror.server = []types.Product{{ID: "Z"}}
	require.NoError(t, h.manager.SyncFromServer(ctx))
	assert.False(t, h.manager.IsWishlisted(ctx, "A"))
	assert.True(t, h.manager.IsWishlisted(ctx, "Z"))
}

func TestFailedMirrorSkipsPull(t *testing.T) {
	h := newHarness(t, token("a@b.co"))
	h.mirror.fail = errors.New("offline")
	_, err := h.manager.ToggleWishlist(context.Background(), types.Product{ID: "C"})
	require.NoError(t, err)

	h.queue.drain()
	assert.Equal(t, []string{"post C"}, h.mirror.calls)
	assert.True(t, h.manager.IsWishlisted(context.Background(), "C"))
}

func TestSyncWithoutCredentialIsNoop(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.manager.SyncFromServer(context.Background()))
	assert.Empty(t, h.mirror.calls)
	assert.Zero(t, h.redirects)
}
