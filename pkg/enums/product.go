package enums

import (
	"fmt"
	"strings"
)

// ProductCategory is the fabric a saree is catalogued under.
type ProductCategory string

const (
	ProductCategorySilk      ProductCategory = "silk"
	ProductCategoryCotton    ProductCategory = "cotton"
	ProductCategoryLinen     ProductCategory = "linen"
	ProductCategoryGeorgette ProductCategory = "georgette"
	ProductCategoryChiffon   ProductCategory = "chiffon"
	ProductCategoryOrganza   ProductCategory = "organza"
	ProductCategoryCrepe     ProductCategory = "crepe"
)

var validProductCategories = []ProductCategory{
	ProductCategorySilk,
	ProductCategoryCotton,
	ProductCategoryLinen,
	ProductCategoryGeorgette,
	ProductCategoryChiffon,
	ProductCategoryOrganza,
	ProductCategoryCrepe,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory. Case and
// surrounding space are ignored.
func ParseProductCategory(value string) (ProductCategory, error) {
	normalized := ProductCategory(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
