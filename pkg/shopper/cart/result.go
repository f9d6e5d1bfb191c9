package cart

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
)

// Kind classifies a rejected quantity update.
type Kind string

const (
	KindNone            Kind = ""
	KindNotFound        Kind = "not_found"
	KindOutOfStock      Kind = "out_of_stock"
	KindUnauthenticated Kind = "unauthenticated"
	KindStorage         Kind = "storage"
)

// UpdateResult is the outcome of UpdateQuantity. Message is user-facing.
type UpdateResult struct {
	Success bool
	Message string
	Kind    Kind
}

// Err converts a failed result into a typed error, nil on success.
func (r UpdateResult) Err() error {
	if r.Success {
		return nil
	}
	switch r.Kind {
	case KindNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, r.Message)
	case KindOutOfStock:
		return pkgerrors.New(pkgerrors.CodeOutOfStock, r.Message)
	case KindUnauthenticated:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, r.Message)
	}
	return pkgerrors.New(pkgerrors.CodeInternal, r.Message)
}

func outOfStock(stock int) UpdateResult {
	return UpdateResult{
		Message: fmt.Sprintf("Only %d items available in stock. Cannot exceed available quantity.", stock),
		Kind:    KindOutOfStock,
	}
}

func notFound(productID string) UpdateResult {
	return UpdateResult{
		Message: fmt.Sprintf("Item %s is not in your cart.", productID),
		Kind:    KindNotFound,
	}
}
