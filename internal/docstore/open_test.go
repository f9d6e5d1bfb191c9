package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/saree-storefront/internal/cart"
	"github.com/angelmondragon/saree-storefront/internal/wishlist"
	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/db"
)

func TestOpenMemoryDriver(t *testing.T) {
	stores, err := Open(context.Background(), config.MirrorConfig{Driver: "memory"}, config.GCPConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, config.MirrorDriverMemory, stores.Driver)
	assert.IsType(t, &MemoryCarts{}, stores.Carts)
	assert.NoError(t, stores.Close())
}

func TestOpenSQLWithoutDatabase(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, config.MirrorConfig{Driver: "sql"}, config.GCPConfig{}, nil, nil)
	require.Error(t, err)

	stores, err := Open(ctx, config.MirrorConfig{Driver: "sql", FallbackToMemory: true}, config.GCPConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, config.MirrorDriverMemory, stores.Driver)
}

func TestOpenSQLUsesGormRepositories(t *testing.T) {
	client, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	stores, err := Open(context.Background(), config.MirrorConfig{Driver: "SQL"}, config.GCPConfig{}, client.DB(), nil)
	require.NoError(t, err)
	assert.Equal(t, config.MirrorDriverSQL, stores.Driver)
	assert.IsType(t, &cart.GormRepository{}, stores.Carts)
	assert.IsType(t, &wishlist.GormRepository{}, stores.Wishlists)
}

func TestOpenFirestoreWithoutProjectFallsBack(t *testing.T) {
	stores, err := Open(context.Background(), config.MirrorConfig{Driver: "firestore", FallbackToMemory: true}, config.GCPConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, config.MirrorDriverMemory, stores.Driver)
}
