package docstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/saree-storefront/internal/cart"
	"github.com/angelmondragon/saree-storefront/internal/wishlist"
	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
)

// Stores is the cart and wishlist backend picked at startup.
type Stores struct {
	Carts     cart.Repository
	Wishlists wishlist.Repository
	Driver    string
	close     func() error
}

func (s *Stores) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

func memoryStores() *Stores {
	return &Stores{
		Carts:     NewMemoryCarts(),
		Wishlists: NewMemoryWishlists(),
		Driver:    config.MirrorDriverMemory,
	}
}

// Open selects the backend named by cfg.Driver. When the backend cannot be
// reached and cfg.FallbackToMemory is set, the in-memory stores are returned
// instead of an error.
func Open(ctx context.Context, cfg config.MirrorConfig, gcp config.GCPConfig, conn *gorm.DB, logg *logger.Logger) (*Stores, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	fallback := func(cause error) (*Stores, error) {
		if !cfg.FallbackToMemory {
			return nil, cause
		}
		logg.Warn(logg.WithField(ctx, "cause", cause.Error()), "cart and wishlist stores falling back to memory")
		return memoryStores(), nil
	}

	switch {
	case cfg.UsesMemory():
		logg.Warn(ctx, "cart and wishlist stores are process-local")
		return memoryStores(), nil
	case cfg.UsesFirestore():
		client, err := NewFirestore(ctx, gcp, logg)
		if err != nil {
			return fallback(err)
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return fallback(err)
		}
		return &Stores{
			Carts:     NewFirestoreCarts(client),
			Wishlists: NewFirestoreWishlists(client),
			Driver:    config.MirrorDriverFirestore,
			close:     client.Close,
		}, nil
	default:
		if conn == nil {
			return fallback(fmt.Errorf("database handle is required for the %s driver", config.MirrorDriverSQL))
		}
		return &Stores{
			Carts:     cart.NewGormRepository(conn),
			Wishlists: wishlist.NewGormRepository(conn),
			Driver:    config.MirrorDriverSQL,
		}, nil
	}
}
