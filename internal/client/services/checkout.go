package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// CheckoutResult is a placed order and the payment processor URL the user
// must visit to pay for it.
type CheckoutResult struct {
	Order       *models.Order
	RedirectURL string
}

// CheckoutService turns the cart into an order and hands payment off to the
// external processor. It also reads the order history.
type CheckoutService struct {
	client  client.Client
	session SessionSource
	cart    *CartStore
	log     logging.Logger
}

func NewCheckoutService(c client.Client, session SessionSource, cart *CartStore, log logging.Logger) *CheckoutService {
	if log == nil {
		log = logging.Discard()
	}
	return &CheckoutService{client: c, session: session, cart: cart, log: log.With("component", "checkout")}
}

// Checkout places an order for the current cart shipped to addr, requests a
// payment preference for it and clears the cart.
func (s *CheckoutService) Checkout(ctx context.Context, addr models.Address) (*CheckoutResult, error) {
	sess := s.session.Snapshot()
	if !sess.Eligible() {
		return nil, client.ErrNotAuthorized
	}

	addr, err := normalizeAddress(addr)
	if err != nil {
		return nil, err
	}

	cart, ok := s.cart.Snapshot()
	if !ok {
		if cart, err = s.cart.Fetch(ctx); err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
	}
	if cart.IsEmpty() {
		return nil, client.ErrEmptyCart
	}

	order, err := s.client.CreateOrder(ctx, sess.Token, models.OrderRequest{Items: cart.Items, ShippingAddress: addr})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	pref, err := s.client.CreatePaymentPreference(ctx, sess.Token, order.ID)
	if err != nil {
		return nil, fmt.Errorf("create payment preference for order %s: %w", order.ID, err)
	}
	if pref == nil || pref.InitPoint == "" {
		return nil, fmt.Errorf("create payment preference for order %s: %w", order.ID, errNoRedirect)
	}

	if _, err := s.cart.Clear(ctx); err != nil {
		s.log.Warn(ctx, "order placed but cart was not cleared", "order_id", order.ID, "error", err)
	}
	s.log.Info(ctx, "order placed", "order_id", order.ID, "total", order.TotalAmount)

	return &CheckoutResult{Order: order, RedirectURL: pref.InitPoint}, nil
}

var errNoRedirect = errors.New("payment processor returned no redirect url")

func normalizeAddress(a models.Address) (models.Address, error) {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.TrimSpace(a.Country)

	required := []struct{ field, value string }{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zip_code", a.ZipCode},
	}
	for _, r := range required {
		if r.value == "" {
			return a, &client.ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	if a.Country == "" {
		a.Country = models.DefaultCountry
	}
	return a, nil
}

// Orders returns the current user's order history.
func (s *CheckoutService) Orders(ctx context.Context) ([]models.Order, error) {
	sess := s.session.Snapshot()
	if sess.Token == "" {
		return nil, client.ErrNotAuthorized
	}
	list, err := s.client.ListOrders(ctx, sess.Token)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// Order returns a single order of the current user.
func (s *CheckoutService) Order(ctx context.Context, id string) (*models.Order, error) {
	sess := s.session.Snapshot()
	if sess.Token == "" {
		return nil, client.ErrNotAuthorized
	}
	o, err := s.client.GetOrder(ctx, sess.Token, id)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: empty response", id)
	}
	return o, nil
}
