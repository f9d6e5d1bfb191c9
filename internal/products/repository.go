package product

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines catalog persistence.
type Repository interface {
	List(ctx context.Context, category string) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.Product, error)
	Upsert(ctx context.Context, products []models.Product) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the catalog repository to a GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// List returns active products, optionally filtered by category, by name.
func (r *repository) List(ctx context.Context, category string) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if c := strings.ToLower(strings.TrimSpace(category)); c != "" {
		query = query.Where("category = ?", c)
	}
	var rows []models.Product
	if err := query.Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (r *repository) Get(ctx context.Context, id string) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"productId": id})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &row, nil
}

// GetMany loads active products keyed by id; unknown ids are simply absent.
func (r *repository) GetMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ? AND is_active = ?", ids, true).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// Upsert inserts products or refreshes every catalog column on id conflict.
func (r *repository) Upsert(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "stock", "images", "colors", "category", "description", "is_active", "updated_at"}),
	}).Create(&products).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert products")
	}
	return nil
}
