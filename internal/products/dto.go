package product

import (
	"strings"

	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	"github.com/angelmondragon/saree-storefront/pkg/enums"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// FromModel maps a catalog row to its wire shape.
func FromModel(m *models.Product) types.Product {
	if m == nil {
		return types.Product{}
	}
	return types.Product{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Stock:       m.Stock,
		Images:      append([]string(nil), m.Images...),
		Colors:      append([]string(nil), m.Colors...),
		Category:    m.Category,
		Description: m.Description,
	}
}

// SeedProduct is one entry of the bundled starter catalog.
type SeedProduct struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
	Colors      []string `json:"colors"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
}

func (s SeedProduct) ToModel() (*models.Product, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s.Price))
	if err != nil {
		return nil, err
	}
	category, err := enums.ParseProductCategory(s.Category)
	if err != nil {
		return nil, err
	}
	return &models.Product{
		ID:          strings.TrimSpace(s.ID),
		Name:        strings.TrimSpace(s.Name),
		Price:       price.Round(2),
		Stock:       s.Stock,
		Images:      s.Images,
		Colors:      s.Colors,
		Category:    category.String(),
		Description: s.Description,
		IsActive:    true,
	}, nil
}
