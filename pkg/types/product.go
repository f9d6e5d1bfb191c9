package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is the catalog entity as seen by shoppers. Only ID and Stock carry
// meaning for cart and wishlist bookkeeping.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

// UnmarshalJSON also accepts the document-store style "_id" key.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		LegacyID string `json:"_id"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.LegacyID
	}
	return nil
}
