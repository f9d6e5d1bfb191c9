package cart

import (
	"context"
	"testing"

	product "github.com/angelmondragon/saree-storefront/internal/products"
	"github.com/angelmondragon/saree-storefront/pkg/db"
	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      Service
	repo     *GormRepository
	products product.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&models.Product{}, &models.CartItem{}))

	products := product.NewRepository(client.DB())
	require.NoError(t, products.Upsert(context.Background(), []models.Product{
		{ID: "1", Name: "Kanjivaram", Price: decimal.NewFromInt(120), Stock: 5, Category: "silk", IsActive: true},
		{ID: "2", Name: "Chanderi", Price: decimal.NewFromInt(40), Stock: 2, Category: "cotton", IsActive: true},
		{ID: "3", Name: "Georgette", Price: decimal.NewFromInt(60), Stock: 0, Category: "georgette", IsActive: true},
	}))
	repo := NewGormRepository(client.DB())
	svc, err := NewService(ServiceParams{CartRepo: repo, ProductRepo: products})
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, products: products}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpsertSetsQuantityClampedToStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 2}))
	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "2", Quantity: 9}))
	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 4}))

	items, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].Product.ID)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, "2", items[1].Product.ID)
	assert.Equal(t, 2, items[1].Quantity)
}

func TestUpsertRejectsOutOfStockAndUnknownProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	err := f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "3", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))

	err = f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "missing", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	items, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateQuantityRejectsMoreThanStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	red := "red"
	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 3, SelectedColor: &red}))

	err := f.svc.UpdateQuantity(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 10})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))
	assert.Equal(t, "Only 5 items available in stock. Cannot exceed available quantity.", pkgerrors.As(err).Message())

	require.NoError(t, f.svc.UpdateQuantity(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 5}))
	line, err := f.repo.Get(ctx, owner, "1")
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, 5, line.Quantity)
	require.NotNil(t, line.SelectedColor)
	assert.Equal(t, "red", *line.SelectedColor)
}

func TestUpdateQuantityRequiresExistingLine(t *testing.T) {
	f := newFixture(t)
	err := f.svc.UpdateQuantity(context.Background(), uuid.New(), types.CartItemRequest{ProductID: "1", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 1}))
	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "2", Quantity: 1}))
	require.NoError(t, f.svc.Upsert(ctx, other, types.CartItemRequest{ProductID: "2", Quantity: 1}))

	require.NoError(t, f.svc.Remove(ctx, owner, "1"))
	require.NoError(t, f.svc.Remove(ctx, owner, "1"))
	items, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].Product.ID)

	require.NoError(t, f.svc.Clear(ctx, owner))
	items, err = f.svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = f.svc.List(ctx, other)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestListSkipsRetiredProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "2", Quantity: 1}))
	require.NoError(t, f.products.Upsert(ctx, []models.Product{
		{ID: "2", Name: "Chanderi", Price: decimal.NewFromInt(40), Stock: 2, Category: "cotton", IsActive: false},
	}))

	items, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpsertKeepsSelectedColorWhenOmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	gold := "gold"

	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 1, SelectedColor: &gold}))
	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 2}))

	items, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	require.NotNil(t, items[0].SelectedColor)
	assert.Equal(t, "gold", *items[0].SelectedColor)

	maroon := "maroon"
	require.NoError(t, f.svc.Upsert(ctx, owner, types.CartItemRequest{ProductID: "1", Quantity: 2, SelectedColor: &maroon}))
	line, err := f.repo.Get(ctx, owner, "1")
	require.NoError(t, err)
	assert.Equal(t, "maroon", *line.SelectedColor)
}
