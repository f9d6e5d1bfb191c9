package docstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/saree-storefront/internal/cart"
)

// MemoryCarts is the process-local fallback; contents vanish on restart.
type MemoryCarts struct {
	mu    sync.Mutex
	carts map[uuid.UUID][]cart.Line
}

func NewMemoryCarts() *MemoryCarts {
	return &MemoryCarts{carts: make(map[uuid.UUID][]cart.Line)}
}

func (m *MemoryCarts) List(_ context.Context, owner uuid.UUID) ([]cart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.carts[owner]), nil
}

func (m *MemoryCarts) Get(_ context.Context, owner uuid.UUID, productID string) (*cart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return findLine(m.carts[owner], productID), nil
}

func (m *MemoryCarts) Upsert(_ context.Context, owner uuid.UUID, line cart.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[owner] = upsertLine(m.carts[owner], line, time.Now())
	return nil
}

func (m *MemoryCarts) Remove(_ context.Context, owner uuid.UUID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[owner] = removeLine(m.carts[owner], productID)
	return nil
}

func (m *MemoryCarts) Clear(_ context.Context, owner uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, owner)
	return nil
}

type MemoryWishlists struct {
	mu    sync.Mutex
	lists map[uuid.UUID][]string
}

func NewMemoryWishlists() *MemoryWishlists {
	return &MemoryWishlists{lists: make(map[uuid.UUID][]string)}
}

func (m *MemoryWishlists) List(_ context.Context, owner uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.lists[owner])
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (m *MemoryWishlists) Add(_ context.Context, owner uuid.UUID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.lists[owner], productID) {
		m.lists[owner] = append(m.lists[owner], productID)
	}
	return nil
}

func (m *MemoryWishlists) Remove(_ context.Context, owner uuid.UUID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[owner] = slices.DeleteFunc(m.lists[owner], func(id string) bool { return id == productID })
	return nil
}

func (m *MemoryWishlists) Clear(_ context.Context, owner uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, owner)
	return nil
}
