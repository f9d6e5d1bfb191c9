package wishlist

import (
	"context"

	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists liked product ids per owner, oldest first.
type Repository interface {
	List(ctx context.Context, owner uuid.UUID) ([]string, error)
	Add(ctx context.Context, owner uuid.UUID, productID string) error
	Remove(ctx context.Context, owner uuid.UUID, productID string) error
	Clear(ctx context.Context, owner uuid.UUID) error
}

// GormRepository stores likes in the wishlist_items table.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context, owner uuid.UUID) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("owner_id = ?", owner).
		Order("created_at ASC").
		Order("id ASC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Add inserts the like and ignores duplicates.
func (r *GormRepository) Add(ctx context.Context, owner uuid.UUID, productID string) error {
	row := models.WishlistItem{OwnerID: owner, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

func (r *GormRepository) Remove(ctx context.Context, owner uuid.UUID, productID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", owner, productID).
		Delete(&models.WishlistItem{}).Error
}

func (r *GormRepository) Clear(ctx context.Context, owner uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Delete(&models.WishlistItem{}).Error
}
