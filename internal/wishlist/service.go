package wishlist

import (
	"context"
	"strings"

	product "github.com/angelmondragon/saree-storefront/internal/products"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/google/uuid"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo Repository
	ProductRepo  product.Repository
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, owner uuid.UUID) ([]types.Product, error)
	Add(ctx context.Context, owner uuid.UUID, productID string) error
	Remove(ctx context.Context, owner uuid.UUID, productID string) error
	Clear(ctx context.Context, owner uuid.UUID) error
}

type service struct {
	wishlists Repository
	products  product.Repository
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{wishlists: params.WishlistRepo, products: params.ProductRepo}, nil
}

// List returns the liked products in the order they were added, skipping
// products no longer in the catalog.
func (s *service) List(ctx context.Context, owner uuid.UUID) ([]types.Product, error) {
	ids, err := s.wishlists.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	catalog, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.Product, 0, len(ids))
	for _, id := range ids {
		if row, ok := catalog[id]; ok {
			out = append(out, product.FromModel(&row))
		}
	}
	return out, nil
}

// Add likes productID; liking twice is a no-op.
func (s *service) Add(ctx context.Context, owner uuid.UUID, productID string) error {
	productID = strings.TrimSpace(productID)
	if _, err := s.products.Get(ctx, productID); err != nil {
		return err
	}
	if err := s.wishlists.Add(ctx, owner, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, owner uuid.UUID, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if err := s.wishlists.Remove(ctx, owner, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, owner uuid.UUID) error {
	if err := s.wishlists.Clear(ctx, owner); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
	}
	return nil
}
