package services

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// SessionSource is the part of SessionStore the cart depends on.
type SessionSource interface {
	Snapshot() Session
	Subscribe(fn func(ctx context.Context, snap Session)) func()
}

// CartStore owns the server-authoritative cart. The cart is absent (nil)
// whenever the session is not eligible to shop, and is refetched every time
// eligibility is newly gained or the session token changes.
//
// Every request is tagged with the session generation and a sequence number.
// A response is applied only if the generation is still current and the
// sequence is newer than the last applied one.
type CartStore struct {
	client  client.Client
	session SessionSource
	log     logging.Logger

	mu      sync.Mutex
	cart    *models.Cart
	gen     uint64
	gated   bool
	seq     uint64
	applied uint64

	unsubscribe func()
	deliverMu   sync.Mutex
	listeners   changeNotifier[*models.Cart]
}

// NewCartStore subscribes to session and returns the store. Call Close to
// detach it.
func NewCartStore(c client.Client, session SessionSource, log logging.Logger) *CartStore {
	if log == nil {
		log = logging.Discard()
	}
	cs := &CartStore{
		client:  c,
		session: session,
		log:     log.With("component", "cart"),
	}
	cs.unsubscribe = session.Subscribe(cs.onSession)
	return cs
}

func (c *CartStore) Close() {
	c.unsubscribe()
}

// Snapshot returns a deep copy of the cart; false means the cart is absent.
func (c *CartStore) Snapshot() (*models.Cart, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cart == nil {
		return nil, false
	}
	return c.cart.Clone(), true
}

// Subscribe registers fn to be called with the new snapshot (nil when
// absent) after every change.
func (c *CartStore) Subscribe(fn func(ctx context.Context, cart *models.Cart)) func() {
	return c.listeners.subscribe(fn)
}

func (c *CartStore) publish(ctx context.Context) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	cart, _ := c.Snapshot()
	c.listeners.notify(ctx, cart)
}

func (c *CartStore) onSession(ctx context.Context, s Session) {
	eligible := s.Eligible()

	c.mu.Lock()
	newly := eligible && (!c.gated || c.gen != s.Generation)
	c.gated = eligible
	c.gen = s.Generation
	changed := false
	if !eligible || newly {
		changed = c.cart != nil
		c.cart = nil
		c.applied = c.seq
	}
	c.mu.Unlock()

	if changed {
		c.publish(ctx)
	}
	if newly {
		if _, err := c.Fetch(ctx); err != nil {
			c.log.Warn(ctx, "cart refresh failed", "error", err)
		}
	}
}

type ticket struct {
	token string
	gen   uint64
	seq   uint64
}

// begin captures the session for one request. With requireEligible the call
// fails fast unless the session may shop; otherwise only a token is needed.
func (c *CartStore) begin(requireEligible bool) (ticket, error) {
	s := c.session.Snapshot()
	if requireEligible && !s.Eligible() {
		return ticket{}, client.ErrNotAuthorized
	}
	if s.Token == "" {
		return ticket{}, client.ErrNotAuthorized
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return ticket{token: s.Token, gen: s.Generation, seq: c.seq}, nil
}

// apply installs cart if t is still current. A response from an older
// session fails with ErrSessionChanged; an out-of-order response yields the
// snapshot currently held.
func (c *CartStore) apply(ctx context.Context, t ticket, cart *models.Cart) (*models.Cart, error) {
	s := c.session.Snapshot()

	c.mu.Lock()
	if s.Generation != t.gen {
		c.mu.Unlock()
		c.log.Debug(ctx, "discarding cart response from previous session", "generation", t.gen, "seq", t.seq)
		return nil, client.ErrSessionChanged
	}
	if t.seq <= c.applied {
		held, applied := c.cart.Clone(), c.applied
		c.mu.Unlock()
		c.log.Debug(ctx, "discarding out-of-order cart response", "seq", t.seq, "applied", applied)
		return held, nil
	}
	c.applied = t.seq
	if !s.Eligible() {
		c.mu.Unlock()
		return cart.Clone(), nil
	}
	c.cart = cart.Clone()
	out := cart.Clone()
	c.mu.Unlock()

	c.publish(ctx)
	return out, nil
}

// Fetch loads the cart. It makes the cart absent and fails with
// ErrNotAuthorized when the session may not shop.
func (c *CartStore) Fetch(ctx context.Context) (*models.Cart, error) {
	t, err := c.begin(true)
	if err != nil {
		c.mu.Lock()
		changed := c.cart != nil
		c.cart = nil
		c.mu.Unlock()
		if changed {
			c.publish(ctx)
		}
		return nil, err
	}
	return c.fetch(ctx, t)
}

func (c *CartStore) fetch(ctx context.Context, t ticket) (*models.Cart, error) {
	cart, err := c.client.GetCart(ctx, t.token)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{}
	}
	return c.apply(ctx, t, cart)
}

// AddItem adds qty units of productID.
func (c *CartStore) AddItem(ctx context.Context, productID string, qty int) (*models.Cart, error) {
	if err := validateLine(productID, qty); err != nil {
		return nil, err
	}
	t, err := c.begin(true)
	if err != nil {
		return nil, err
	}
	cart, err := c.client.AddToCart(ctx, t.token, models.CartItemRequest{ProductID: productID, Quantity: qty})
	return c.complete(ctx, t, cart, err)
}

// UpdateQuantity sets the quantity of productID. qty <= 0 removes the line.
func (c *CartStore) UpdateQuantity(ctx context.Context, productID string, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return c.RemoveItem(ctx, productID)
	}
	if err := validateLine(productID, qty); err != nil {
		return nil, err
	}
	t, err := c.begin(true)
	if err != nil {
		return nil, err
	}
	cart, err := c.client.UpdateCartItem(ctx, t.token, models.CartItemRequest{ProductID: productID, Quantity: qty})
	return c.complete(ctx, t, cart, err)
}

// RemoveItem drops the line for productID.
func (c *CartStore) RemoveItem(ctx context.Context, productID string) (*models.Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, &client.ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	t, err := c.begin(false)
	if err != nil {
		return nil, err
	}
	cart, err := c.client.RemoveFromCart(ctx, t.token, productID)
	return c.complete(ctx, t, cart, err)
}

// Clear empties the cart.
func (c *CartStore) Clear(ctx context.Context) (*models.Cart, error) {
	t, err := c.begin(false)
	if err != nil {
		return nil, err
	}
	cart, err := c.client.ClearCart(ctx, t.token)
	return c.complete(ctx, t, cart, err)
}

// complete applies a mutation response. An empty response body carries no
// snapshot, so the cart is refetched under the same session.
func (c *CartStore) complete(ctx context.Context, t ticket, cart *models.Cart, err error) (*models.Cart, error) {
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return c.apply(ctx, t, cart)
	}

	c.mu.Lock()
	c.seq++
	t.seq = c.seq
	c.mu.Unlock()
	return c.fetch(ctx, t)
}

func validateLine(productID string, qty int) error {
	if strings.TrimSpace(productID) == "" {
		return &client.ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if qty <= 0 {
		return &client.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	return nil
}
