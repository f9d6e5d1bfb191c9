package partition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
)

// ErrCorrupt marks a stored value that no longer deserializes.
var ErrCorrupt = errors.New("partition value is corrupt")

// Namespace pairs a key prefix with the event fired on every write.
type Namespace struct {
	Prefix string
	Event  string
}

var (
	Cart     = Namespace{Prefix: "cart_items", Event: "cart:update"}
	Wishlist = Namespace{Prefix: "wishlist_items", Event: "wishlist:update"}
)

// Key returns "<prefix>_<guest|email>".
func (n Namespace) Key(id identity.Identity) string {
	return n.Prefix + "_" + id.Key()
}

// Store is a typed view over one namespace of a Backend.
type Store[T any] struct {
	backend Backend
	ns      Namespace
	bus     *Bus
}

func NewStore[T any](backend Backend, ns Namespace, bus *Bus) *Store[T] {
	return &Store[T]{backend: backend, ns: ns, bus: bus}
}

func (s *Store[T]) Namespace() Namespace {
	return s.ns
}

// Load returns the partition's items. Absence yields an empty slice; corrupt
// data yields ErrCorrupt.
func (s *Store[T]) Load(ctx context.Context, id identity.Identity) ([]T, error) {
	key := s.ns.Key(id)
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return []T{}, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []T{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Read is Load with every failure folded into an empty slice.
func (s *Store[T]) Read(ctx context.Context, id identity.Identity) []T {
	items, _ := s.Load(ctx, id)
	return items
}

// Write serializes and persists items, then publishes the namespace event.
// Nothing is persisted when serialization fails.
func (s *Store[T]) Write(ctx context.Context, id identity.Identity, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.ns.Key(id), err)
	}
	if err := s.backend.Set(ctx, s.ns.Key(id), string(raw)); err != nil {
		return fmt.Errorf("writing %s: %w", s.ns.Key(id), err)
	}
	s.bus.Publish(s.ns.Event)
	return nil
}

// Remove deletes the partition entirely.
func (s *Store[T]) Remove(ctx context.Context, id identity.Identity) error {
	if err := s.backend.Delete(ctx, s.ns.Key(id)); err != nil {
		return fmt.Errorf("removing %s: %w", s.ns.Key(id), err)
	}
	s.bus.Publish(s.ns.Event)
	return nil
}
