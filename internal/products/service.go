package product

import (
	"context"
	"strings"

	"github.com/angelmondragon/saree-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

// Service exposes the public catalog.
type Service interface {
	ListProducts(ctx context.Context, category string) ([]types.Product, error)
	GetProduct(ctx context.Context, id string) (*types.Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product repository required")
	}
	return &service{repo: repo}, nil
}

// ListProducts returns the active catalog. An unknown category is rejected
// rather than answered with an empty list.
func (s *service) ListProducts(ctx context.Context, category string) ([]types.Product, error) {
	if strings.TrimSpace(category) != "" {
		parsed, err := enums.ParseProductCategory(category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown category")
		}
		category = parsed.String()
	}
	rows, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]types.Product, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := FromModel(row)
	return &p, nil
}
