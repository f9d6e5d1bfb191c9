package types

// CartItem is one product line. Quantity stays within [1, Product.Stock] for
// every local mutation.
type CartItem struct {
	Product       Product `json:"product"`
	Quantity      int     `json:"quantity"`
	SelectedColor *string `json:"selectedColor,omitempty"`
}

// CartItemRequest is the body of POST and PUT /api/cart.
type CartItemRequest struct {
	ProductID     string  `json:"productId" validate:"required,max=128"`
	Quantity      int     `json:"quantity" validate:"required,min=1,max=999"`
	SelectedColor *string `json:"selectedColor,omitempty" validate:"omitempty,max=64"`
}

// Request is the mirror body that reproduces this line on the server.
func (c CartItem) Request() CartItemRequest {
	return CartItemRequest{ProductID: c.Product.ID, Quantity: c.Quantity, SelectedColor: c.SelectedColor}
}

// WishlistItemRequest is the body of POST /api/wishlist.
type WishlistItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=128"`
}
