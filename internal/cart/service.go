package cart

import (
	"context"
	"fmt"
	"strings"

	product "github.com/angelmondragon/saree-storefront/internal/products"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/google/uuid"
)

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo    Repository
	ProductRepo product.Repository
}

// Service is the authoritative server cart.
type Service interface {
	List(ctx context.Context, owner uuid.UUID) ([]types.CartItem, error)
	Upsert(ctx context.Context, owner uuid.UUID, req types.CartItemRequest) error
	UpdateQuantity(ctx context.Context, owner uuid.UUID, req types.CartItemRequest) error
	Remove(ctx context.Context, owner uuid.UUID, productID string) error
	Clear(ctx context.Context, owner uuid.UUID) error
}

type service struct {
	carts    Repository
	products product.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{carts: params.CartRepo, products: params.ProductRepo}, nil
}

// List joins the owner's lines with the live catalog. Lines whose product
// was retired are left out.
func (s *service) List(ctx context.Context, owner uuid.UUID) ([]types.CartItem, error) {
	lines, err := s.carts.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	catalog, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.CartItem, 0, len(lines))
	for _, line := range lines {
		row, ok := catalog[line.ProductID]
		if !ok {
			continue
		}
		out = append(out, types.CartItem{
			Product:       product.FromModel(&row),
			Quantity:      line.Quantity,
			SelectedColor: line.SelectedColor,
		})
	}
	return out, nil
}

// Upsert sets the line to the requested quantity, clamped to stock.
func (s *service) Upsert(ctx context.Context, owner uuid.UUID, req types.CartItemRequest) error {
	productID := strings.TrimSpace(req.ProductID)
	row, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if row.Stock < 1 {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, fmt.Sprintf("%s is out of stock", row.Name)).
			WithDetails(map[string]any{"productId": productID, "stock": row.Stock})
	}
	line := Line{ProductID: productID, Quantity: clamp(req.Quantity, row.Stock), SelectedColor: req.SelectedColor}
	if line.SelectedColor == nil {
		// a POST without a colour keeps the one already chosen
		existing, err := s.carts.Get(ctx, owner, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if existing != nil {
			line.SelectedColor = existing.SelectedColor
		}
	}
	if err := s.carts.Upsert(ctx, owner, line); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return nil
}

// UpdateQuantity changes an existing line. Asking for more than the stock is
// rejected rather than clamped.
func (s *service) UpdateQuantity(ctx context.Context, owner uuid.UUID, req types.CartItemRequest) error {
	productID := strings.TrimSpace(req.ProductID)
	line, err := s.carts.Get(ctx, owner, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if line == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart").WithDetails(map[string]any{"productId": productID})
	}
	row, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if req.Quantity > row.Stock {
		return pkgerrors.New(pkgerrors.CodeOutOfStock,
			fmt.Sprintf("Only %d items available in stock. Cannot exceed available quantity.", row.Stock)).
			WithDetails(map[string]any{"productId": productID, "stock": row.Stock})
	}
	line.Quantity = clamp(req.Quantity, row.Stock)
	if req.SelectedColor != nil {
		line.SelectedColor = req.SelectedColor
	}
	if err := s.carts.Upsert(ctx, owner, *line); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, owner uuid.UUID, productID string) error {
	if err := s.carts.Remove(ctx, owner, strings.TrimSpace(productID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, owner uuid.UUID) error {
	if err := s.carts.Clear(ctx, owner); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func clamp(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}
