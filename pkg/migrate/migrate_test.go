package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/db"
	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	"github.com/angelmondragon/saree-storefront/pkg/migrate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBundledMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))

	files, err := migrate.EmbeddedFiles()
	require.NoError(t, err)
	require.Len(t, files, 4)
}

func TestMigrationsApplyOnSQLite(t *testing.T) {
	client, err := db.OpenSQLite("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)

	src := migrate.SourceFor(config.DBConfig{Driver: config.DBDriverSQLite})
	require.Equal(t, "sqlite3", src.Dialect)
	require.NoError(t, migrate.Run(context.Background(), sqlDB, src, "up"))

	product := models.Product{ID: "saree-1", Name: "Kanjivaram Silk", Price: decimal.RequireFromString("129.50"), Stock: 4, Colors: []string{"red"}}
	require.NoError(t, client.DB().Create(&product).Error)

	user := models.User{Email: "a@b.co", PasswordHash: "x"}
	require.NoError(t, client.DB().Create(&user).Error)

	item := models.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, client.DB().Create(&item).Error)

	dup := models.CartItem{OwnerID: user.ID, ProductID: product.ID, Quantity: 1}
	require.True(t, db.IsUniqueViolation(client.DB().Create(&dup).Error, ""))

	var loaded models.CartItem
	require.NoError(t, client.DB().Preload("Product").First(&loaded, "owner_id = ?", user.ID).Error)
	require.Equal(t, 2, loaded.Quantity)
	require.True(t, loaded.Product.Price.Equal(decimal.RequireFromString("129.5")))
	require.Equal(t, []string{"red"}, loaded.Product.Colors)
}

func TestValidateDirRejectsNonPortableSQL(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nCREATE TABLE t (id UUID DEFAULT gen_random_uuid());\n-- +goose Down\nDROP TABLE t;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_t.sql"), []byte(body), 0o644))

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-portable")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Saree Fabric!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_saree_fabric.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "  !!  ")
	require.Error(t, err)
}
