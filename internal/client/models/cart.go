package models

// CartItem is one line of the cart, unique by ProductID.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// Cart is the server-authoritative cart snapshot.
type Cart struct {
	ID     string     `json:"id,omitempty"`
	UserID string     `json:"user_id,omitempty"`
	Items  []CartItem `json:"items"`
}

// CartItemRequest is the body of /cart/add and /cart/update.
type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Clone returns a deep copy of c.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return &out
}

// Item looks up the line for productID.
func (c *Cart) Item(productID string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// DisplayTotal sums price*quantity for rendering. Orders are priced by the
// server.
func (c *Cart) DisplayTotal() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}
