package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Line is one stored cart row, independent of the backing store.
type Line struct {
	ProductID     string
	Quantity      int
	SelectedColor *string
	AddedAt       time.Time
}

// Repository persists cart lines per owner. Implementations keep lines in
// the order they were first added.
type Repository interface {
	List(ctx context.Context, owner uuid.UUID) ([]Line, error)
	Get(ctx context.Context, owner uuid.UUID, productID string) (*Line, error)
	Upsert(ctx context.Context, owner uuid.UUID, line Line) error
	Remove(ctx context.Context, owner uuid.UUID, productID string) error
	Clear(ctx context.Context, owner uuid.UUID) error
}

// GormRepository stores lines in the cart_items table.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context, owner uuid.UUID) ([]Line, error) {
	var rows []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Line, 0, len(rows))
	for _, row := range rows {
		out = append(out, lineFromModel(row))
	}
	return out, nil
}

// Get returns nil without error when the owner has no line for productID.
func (r *GormRepository) Get(ctx context.Context, owner uuid.UUID, productID string) (*Line, error) {
	var rows []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", owner, productID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	line := lineFromModel(rows[0])
	return &line, nil
}

func (r *GormRepository) Upsert(ctx context.Context, owner uuid.UUID, line Line) error {
	row := models.CartItem{
		OwnerID:       owner,
		ProductID:     line.ProductID,
		Quantity:      line.Quantity,
		SelectedColor: line.SelectedColor,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "selected_color", "updated_at"}),
	}).Create(&row).Error
}

func (r *GormRepository) Remove(ctx context.Context, owner uuid.UUID, productID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", owner, productID).
		Delete(&models.CartItem{}).Error
}

func (r *GormRepository) Clear(ctx context.Context, owner uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Delete(&models.CartItem{}).Error
}

func lineFromModel(row models.CartItem) Line {
	return Line{
		ProductID:     row.ProductID,
		Quantity:      row.Quantity,
		SelectedColor: row.SelectedColor,
		AddedAt:       row.CreatedAt,
	}
}
