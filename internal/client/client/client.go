package client

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// Client is the storefront REST API. Every authenticated call takes the
// bearer token explicitly; implementations hold no session state.
//
// Cart mutations return (nil, nil) when the server answers with an empty
// body.
type Client interface {
	Ping(ctx context.Context) error

	Login(ctx context.Context, username, password string) (*models.TokenResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Me(ctx context.Context, token string) (*models.User, error)
	VerifyAge(ctx context.Context, token string) (*models.AgeVerification, error)
	MinimumAge(ctx context.Context, token string) (int, error)

	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)

	GetCart(ctx context.Context, token string) (*models.Cart, error)
	AddToCart(ctx context.Context, token string, item models.CartItemRequest) (*models.Cart, error)
	UpdateCartItem(ctx context.Context, token string, item models.CartItemRequest) (*models.Cart, error)
	RemoveFromCart(ctx context.Context, token string, productID string) (*models.Cart, error)
	ClearCart(ctx context.Context, token string) (*models.Cart, error)

	CreateOrder(ctx context.Context, token string, req models.OrderRequest) (*models.Order, error)
	ListOrders(ctx context.Context, token string) ([]models.Order, error)
	GetOrder(ctx context.Context, token string, id string) (*models.Order, error)
	CreatePaymentPreference(ctx context.Context, token string, orderID string) (*models.PaymentPreference, error)
}
