package models

// OrderStatus mirrors the API's order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// DefaultCountry is used when an address omits the country.
const DefaultCountry = "Argentina"

// Address is the shipping address attached to an order.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// OrderRequest is the /orders/ payload.
type OrderRequest struct {
	Items           []CartItem `json:"items"`
	ShippingAddress Address    `json:"shipping_address"`
}

// OrderItem is a priced order line.
type OrderItem struct {
	ProductID       string  `json:"product_id"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

// Order is returned by order creation and history endpoints.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id,omitempty"`
	Items           []OrderItem `json:"items"`
	TotalAmount     float64     `json:"total_amount"`
	Status          OrderStatus `json:"status"`
	ShippingAddress Address     `json:"shipping_address"`
	CreatedAt       *Timestamp  `json:"created_at,omitempty"`
}

// PaymentPreference carries the external redirect target of the payment
// processor.
type PaymentPreference struct {
	PreferenceID string `json:"preference_id,omitempty"`
	InitPoint    string `json:"init_point"`
}
