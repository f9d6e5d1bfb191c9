package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing. IDs are opaque strings so catalog imports can
// keep their upstream identifiers.
type Product struct {
	ID          string          `gorm:"column:id;type:text;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	Images      []string        `gorm:"column:images;type:jsonb;serializer:json"`
	Colors      []string        `gorm:"column:colors;type:jsonb;serializer:json"`
	Category    string          `gorm:"column:category;not null;default:'';index:products_category_idx"`
	Description string          `gorm:"column:description;not null;default:''"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
