package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one product line in a user's server-side cart.
type CartItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID       uuid.UUID `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:cart_items_owner_product_key"`
	ProductID     string    `gorm:"column:product_id;type:text;not null;uniqueIndex:cart_items_owner_product_key"`
	Quantity      int       `gorm:"column:quantity;not null"`
	SelectedColor *string   `gorm:"column:selected_color"`
	Product       *Product  `gorm:"foreignKey:ProductID;references:ID"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
