// Package cart keeps the active partition's cart and mirrors each change to
// the server in the background.
package cart

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/partition"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

const (
	opAdd    = "cart.add"
	opUpdate = "cart.update"
	opRemove = "cart.remove"
	opClear  = "cart.clear"
	opPull   = "cart.pull"
)

// Mirror is the server side of the cart.
type Mirror interface {
	FetchCart(ctx context.Context) ([]types.CartItem, error)
	AddCartItem(ctx context.Context, req types.CartItemRequest) error
	UpdateCartItem(ctx context.Context, req types.CartItemRequest) error
	RemoveCartItem(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
}

// Scheduler runs background work serially per key.
type Scheduler interface {
	Enqueue(ctx context.Context, key, op string, run func(context.Context) error)
}

type Manager struct {
	gate   *identity.Gate
	store  *partition.Store[types.CartItem]
	mirror Mirror
	queue  Scheduler
	logg   *logger.Logger

	mu sync.Mutex
}

type Params struct {
	Gate   *identity.Gate
	Store  *partition.Store[types.CartItem]
	Mirror Mirror
	Queue  Scheduler
	Logger *logger.Logger
}

func NewManager(p Params) (*Manager, error) {
	if p.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity gate is required")
	}
	if p.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart store is required")
	}
	if p.Mirror == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart mirror is required")
	}
	if p.Queue == nil {
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

// GetCart returns the active partition's items; storage problems read as empty.
func (m *Manager) GetCart(ctx context.Context) []types.CartItem {
	return m.store.Read(ctx, m.active(ctx))
}

// GetCount is the sum of quantities.
func (m *Manager) GetCount(ctx context.Context) int {
	total := 0
	for _, item := range m.GetCart(ctx) {
		total += item.Quantity
	}
	return total
}

type AddOption func(*types.CartItem)

// WithColor records the shopper's colour choice on the line.
func WithColor(color string) AddOption {
	return func(item *types.CartItem) {
		if color != "" {
			item.SelectedColor = &color
		}
	}
}

// AddToCart adds quantity units of product (1 when quantity < 1), merging
// with an existing line and clamping to stock. Without a credential the
// shopper is redirected and nothing changes.
func (m *Manager) AddToCart(ctx context.Context, product types.Product, quantity int, opts ...AddOption) error {
	id, err := m.gate.Require(ctx)
	if err != nil {
		return err
	}
	if product.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if product.Stock < 1 {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, fmt.Sprintf("%s is out of stock", displayName(product))).
			WithDetails(map[string]any{"productId": product.ID, "stock": product.Stock})
	}
	if quantity < 1 {
		quantity = 1
	}

	m.mu.Lock()
	items := m.store.Read(ctx, id)
	var line types.CartItem
	found := false
	for i := range items {
		if items[i].Product.ID != product.ID {
			continue
		}
		items[i].Product = product
		items[i].Quantity = clamp(items[i].Quantity+quantity, product.Stock)
		for _, opt := range opts {
			opt(&items[i])
		}
		line = items[i]
		found = true
		break
	}
	if !found {
		line = types.CartItem{Product: product, Quantity: clamp(quantity, product.Stock)}
		for _, opt := range opts {
			opt(&line)
		}
		items = append(items, line)
	}
	err = m.store.Write(ctx, id, items)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.enqueue(ctx, id, opAdd, func(ctx context.Context) error {
		if err := m.mirror.AddCartItem(ctx, line.Request()); err != nil {
			return err
		}
		m.enqueuePull(ctx, id)
		return nil
	})
	return nil
}

// UpdateQuantity sets an existing line's quantity. Constraint violations are
// reported in the result, never as an error; the error is reserved for a
// missing credential or a failed local write.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int) (UpdateResult, error) {
	id, err := m.gate.Require(ctx)
	if err != nil {
		return UpdateResult{Success: false, Message: err.Error(), Kind: KindUnauthenticated}, err
	}

	m.mu.Lock()
	items := m.store.Read(ctx, id)
	idx := indexOf(items, productID)
	if idx < 0 {
		m.mu.Unlock()
		return notFound(productID), nil
	}
	stock := items[idx].Product.Stock
	if quantity > stock {
		m.mu.Unlock()
		return outOfStock(stock), nil
	}
	items[idx].Quantity = clamp(quantity, stock)
	next := items[idx].Request()
	err = m.store.Write(ctx, id, items)
	m.mu.Unlock()
	if err != nil {
		return UpdateResult{Success: false, Message: "could not save cart", Kind: KindStorage}, err
	}

	m.enqueue(ctx, id, opUpdate, func(ctx context.Context) error {
		return m.mirror.UpdateCartItem(ctx, next)
	})
	return UpdateResult{Success: true}, nil
}

// RemoveFromCart drops the line for productID. Removing an absent line is a
// no-op locally but is still mirrored.
func (m *Manager) RemoveFromCart(ctx context.Context, productID string) error {
	id, err := m.gate.Require(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	items := m.store.Read(ctx, id)
	kept := items[:0]
	for _, item := range items {
		if item.Product.ID != productID {
			kept = append(kept, item)
		}
	}
	err = m.store.Write(ctx, id, kept)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.enqueue(ctx, id, opRemove, func(ctx context.Context) error {
		return m.mirror.RemoveCartItem(ctx, productID)
	})
	return nil
}

// ClearCart empties the partition, then asks the server to do the same and
// pulls once it has.
func (m *Manager) ClearCart(ctx context.Context) error {
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
		if err := m.mirror.ClearCart(ctx); err != nil {
			return err
		}
		m.enqueuePull(ctx, id)
		return nil
	})
	return nil
}

// SyncFromServer overwrites the active partition with the server cart. It
// is a no-op without a credential, and a failed fetch leaves local state
// untouched.
func (m *Manager) SyncFromServer(ctx context.Context) error {
	if !m.gate.Authenticated(ctx) {
		return nil
	}
	return m.pull(ctx, m.active(ctx))
}

// pull writes the server cart into id's partition, unless the shopper has
// switched identity since id was captured.
func (m *Manager) pull(ctx context.Context, id identity.Identity) error {
	items, err := m.mirror.FetchCart(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active(ctx) != id {
		m.logg.Debug(ctx, "identity changed, dropping stale cart pull")
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

func indexOf(items []types.CartItem, productID string) int {
	for i := range items {
		if items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func clamp(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

func displayName(p types.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return "product " + p.ID
}
