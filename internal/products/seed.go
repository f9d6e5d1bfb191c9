package product

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
)

//go:embed seed/catalog.json
var seedCatalog []byte

// SeedCatalog loads the bundled catalog into repo. Existing rows with the
// same id are overwritten, so the seed doubles as a stock reset in dev.
func SeedCatalog(ctx context.Context, repo Repository, logg *logger.Logger) (int, error) {
	var entries []SeedProduct
	if err := json.Unmarshal(seedCatalog, &entries); err != nil {
		return 0, fmt.Errorf("decode seed catalog: %w", err)
	}
	rows := make([]models.Product, 0, len(entries))
	for _, entry := range entries {
		row, err := entry.ToModel()
		if err != nil {
			return 0, fmt.Errorf("seed product %s: %w", entry.ID, err)
		}
		rows = append(rows, *row)
	}
	if err := repo.Upsert(ctx, rows); err != nil {
		return 0, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "products", len(rows)), "catalog seeded")
	}
	return len(rows), nil
}
