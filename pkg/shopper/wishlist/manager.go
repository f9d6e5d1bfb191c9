// Package wishlist keeps the active partition's saved products and mirrors
// toggles to the server.
package wishlist

import (
	"context"
	"sync"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/partition"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

const (
	opAdd    = "wishlist.add"
	opRemove = "wishlist.remove"
	opClear  = "wishlist.clear"
	opPull   = "wishlist.pull"
)

// Mirror is the server side of the wishlist.
type Mirror interface {
	FetchWishlist(ctx context.Context) ([]types.Product, error)
	AddWishlistItem(ctx context.Context, productID string) error
	RemoveWishlistItem(ctx context.Context, productID string) error
	ClearWishlist(ctx context.Context) error
}

// Scheduler runs background work serially per key.
type Scheduler interface {
	Enqueue(ctx context.Context, key, op string, run func(context.Context) error)
}

type Manager struct {
	gate   *identity.Gate
	store  *partition.Store[types.Product]
	mirror Mirror
	queue  Scheduler
	logg   *logger.Logger

	mu sync.Mutex
}

type Params struct {
	Gate   *identity.Gate
	Store  *partition.Store[types.Product]
	Mirror Mirror
	Queue  Scheduler
	Logger *logger.Logger
}

func NewManager(p Params) (*Manager, error) {
	switch {
	case p.Gate == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity gate is required")
	case p.Store == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist store is required")
	case p.Mirror == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist mirror is required")
	case p.Queue == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sync queue is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{gate: p.Gate, store: p.Store, mirror: p.Mirror, queue: p.Queue, logg: logg}, nil
}

func (m *Manager) active(ctx context.Context) identity.Identity {
	return m.gate.Provider().Current(ctx)
}

func (m *Manager) GetWishlist(ctx context.Context) []types.Product {
	return m.store.Read(ctx, m.active(ctx))
}

// IsWishlisted is a local lookup only.
func (m *Manager) IsWishlisted(ctx context.Context, productID string) bool {
	for _, p := range m.GetWishlist(ctx) {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// ToggleWishlist removes product when saved and appends it otherwise. It
// reports whether the product is saved afterwards.
func (m *Manager) ToggleWishlist(ctx context.Context, product types.Product) (bool, error) {
	id, err := m.gate.Require(ctx)
	if err != nil {
		return false, err
	}
	if product.ID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	m.mu.Lock()
	items := m.store.Read(ctx, id)
	next := make([]types.Product, 0, len(items)+1)
	added := true
	for _, p := range items {
		if p.ID == product.ID {
			added = false
			continue
		}
		next = append(next, p)
	}
	if added {
		next = append(next, product)
	}
	err = m.store.Write(ctx, id, next)
	m.mu.Unlock()
	if err != nil {
		return !added, err
	}

	op, call := opRemove, m.mirror.RemoveWishlistItem
	if added {
		op, call = opAdd, m.mirror.AddWishlistItem
	}
	m.enqueue(ctx, id, op, func(ctx context.Context) error {
		if err := call(ctx, product.ID); err != nil {
			return err
		}
		m.enqueuePull(ctx, id)
		return nil
	})
	return added, nil
}

// RemoveFromWishlist drops productID locally and on the server.
func (m *Manager) RemoveFromWishlist(ctx context.Context, productID string) error {
	id, err := m.gate.Require(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	items := m.store.Read(ctx, id)
	kept := make([]types.Product, 0, len(items))
	for _, p := range items {
		if p.ID != productID {
			kept = append(kept, p)
		}
	}
	err = m.store.Write(ctx, id, kept)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.enqueue(ctx, id, opRemove, func(ctx context.Context) error {
		return m.mirror.RemoveWishlistItem(ctx, productID)
	})
	return nil
}

func (m *Manager) ClearWishlist(ctx context.Context) error {
	id, err := m.gate.Require(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	err = m.store.Write(ctx, id, nil)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.enqueue(ctx, id, opClear, func(ctx context.Context) error {
		if err := m.mirror.ClearWishlist(ctx); err != nil {
			return err
		}
		m.enqueuePull(ctx, id)
		return nil
	})
	return nil
}

// SyncFromServer overwrites the active partition with the server wishlist.
// Without a credential it does nothing.
func (m *Manager) SyncFromServer(ctx context.Context) error {
	if !m.gate.Authenticated(ctx) {
		return nil
	}
	return m.pull(ctx, m.active(ctx))
}

// pull is dropped when the active identity is no longer id.
func (m *Manager) pull(ctx context.Context, id identity.Identity) error {
	items, err := m.mirror.FetchWishlist(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active(ctx) != id {
		m.logg.Debug(ctx, "identity changed, dropping stale wishlist pull")
		return nil
	}
	return m.store.Write(ctx, id, items)
}

func (m *Manager) enqueue(ctx context.Context, id identity.Identity, op string, run func(context.Context) error) {
	key := m.store.Namespace().Key(id)
	m.queue.Enqueue(m.gate.Bind(m.logg.WithPartition(ctx, key)), key, op, run)
}

func (m *Manager) enqueuePull(ctx context.Context, id identity.Identity) {
	m.enqueue(ctx, id, opPull, func(ctx context.Context) error {
		return m.pull(ctx, id)
	})
}
