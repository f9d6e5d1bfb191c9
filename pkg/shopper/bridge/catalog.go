package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

// ListProducts is public; no credential is sent.
func (c *Client) ListProducts(ctx context.Context, category string) ([]types.Product, error) {
	var query url.Values
	if category != "" {
		query = url.Values{"category": {category}}
	}
	var raw json.RawMessage
	if err := c.send(ctx, http.MethodGet, "/api/products", query, nil, &raw, false); err != nil {
		return nil, err
	}
	var products []types.Product
	if err := decodeList(raw, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	var raw json.RawMessage
	if err := c.send(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, nil, &raw, false); err != nil {
		return nil, err
	}
	var env struct {
		Data *types.Product `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding product")
	}
	if env.Data == nil {
		var bare types.Product
		if err := json.Unmarshal(raw, &bare); err != nil || bare.ID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return &bare, nil
	}
	return env.Data, nil
}
