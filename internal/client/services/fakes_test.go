package services

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// ---- fake token store ----

type fakeTokens struct {
	mu       sync.Mutex
	token    string
	loadErr  error
	saveErr  error
	clearErr error
	saves    int
	clears   int
}

func (f *fakeTokens) LoadToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.loadErr
}

func (f *fakeTokens) SaveToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.token = token
	return nil
}

func (f *fakeTokens) ClearToken(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.token = ""
	return nil
}

func (f *fakeTokens) stored() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// ---- fake API ----

// fakeAPI is an in-memory storefront: users keyed by token, one cart per
// token. Hooks let individual tests block or fail specific calls.
type fakeAPI struct {
	mu sync.Mutex

	passwords map[string]string       // username -> password
	users     map[string]*models.User // token -> user
	carts     map[string]*models.Cart // token -> cart
	products  map[string]models.Product
	orders    []models.Order

	calls map[string]int

	loginErr      error
	meErr         error
	meHook        func(token string)
	registerErr   error
	verifyResp    *models.AgeVerification
	verifyErr     error
	listErr       error
	getProductErr error
	emptyDeletes  bool
	cartHook      func(op string)
	preference    *models.PaymentPreference
	prefErr       error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		passwords: map[string]string{},
		users:     map[string]*models.User{},
		carts:     map[string]*models.Cart{},
		products:  map[string]models.Product{},
		calls:     map[string]int{},
	}
}

// addUser registers username with password and returns the token a login
// will hand out.
func (f *fakeAPI) addUser(username, password string, verified bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "tok-" + username
	f.passwords[username] = password
	f.users[token] = &models.User{ID: "id-" + username, Username: username, Email: username + "@example.com", Role: models.RoleCustomer, AgeVerified: verified}
	f.carts[token] = &models.Cart{ID: "cart-" + username, UserID: "id-" + username, Items: []models.CartItem{}}
	return token
}

func (f *fakeAPI) addProduct(p models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

var errUnauthorized401 = &client.APIError{StatusCode: http.StatusUnauthorized, Message: "Could not validate credentials"}

func (f *fakeAPI) Ping(ctx context.Context) error {
	f.record("ping")
	return nil
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	f.record("login")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if pw, ok := f.passwords[username]; !ok || pw != password {
		return nil, &client.APIError{StatusCode: http.StatusUnauthorized, Message: "Incorrect username or password"}
	}
	return &models.TokenResponse{AccessToken: "tok-" + username, TokenType: "bearer"}, nil
}

func (f *fakeAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	f.record("register")
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.addUser(req.Username, req.Password, false)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users["tok-"+req.Username].Email = req.Email
	return f.users["tok-"+req.Username].Clone(), nil
}

func (f *fakeAPI) Me(ctx context.Context, token string) (*models.User, error) {
	f.record("me")
	if f.meHook != nil {
		f.meHook(token)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meErr != nil {
		return nil, f.meErr
	}
	u, ok := f.users[token]
	if !ok {
		return nil, errUnauthorized401
	}
	return u.Clone(), nil
}

func (f *fakeAPI) VerifyAge(ctx context.Context, token string) (*models.AgeVerification, error) {
	f.record("verify")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	u, ok := f.users[token]
	if !ok {
		return nil, errUnauthorized401
	}
	u.AgeVerified = true
	if f.verifyResp != nil {
		if f.verifyResp.AccessToken != "" {
			f.users[f.verifyResp.AccessToken] = u
			f.carts[f.verifyResp.AccessToken] = f.carts[token]
		}
		return &models.AgeVerification{AccessToken: f.verifyResp.AccessToken, TokenType: "bearer", User: u.Clone()}, nil
	}
	return &models.AgeVerification{User: u.Clone()}, nil
}

func (f *fakeAPI) MinimumAge(ctx context.Context, token string) (int, error) {
	f.record("minimum_age")
	return 18, nil
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]models.Product, error) {
	f.record("list_products")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Product, 0, len(f.products))
	for _, id := range []string{"p1", "p2", "p3"} {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	f.record("get_product")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getProductErr != nil {
		return nil, f.getProductErr
	}
	p, ok := f.products[id]
	if !ok {
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Producto no encontrado"}
	}
	return &p, nil
}

func (f *fakeAPI) cartFor(token string) (*models.Cart, error) {
	if _, ok := f.users[token]; !ok {
		return nil, errUnauthorized401
	}
	c, ok := f.carts[token]
	if !ok {
		c = &models.Cart{Items: []models.CartItem{}}
		f.carts[token] = c
	}
	return c, nil
}

func (f *fakeAPI) hook(op string) {
	f.record(op)
	if f.cartHook != nil {
		f.cartHook(op)
	}
}

func (f *fakeAPI) GetCart(ctx context.Context, token string) (*models.Cart, error) {
	f.hook("get_cart")
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.cartFor(token)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (f *fakeAPI) AddToCart(ctx context.Context, token string, item models.CartItemRequest) (*models.Cart, error) {
	f.hook("add")
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.cartFor(token)
	if err != nil {
		return nil, err
	}
	p, ok := f.products[item.ProductID]
	if !ok {
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Producto no encontrado"}
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return c.Clone(), nil
		}
	}
	c.Items = append(c.Items, models.CartItem{ProductID: p.ID, Quantity: item.Quantity, Name: p.Name, Price: p.Price})
	return c.Clone(), nil
}

func (f *fakeAPI) UpdateCartItem(ctx context.Context, token string, item models.CartItemRequest) (*models.Cart, error) {
	f.hook("update")
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.cartFor(token)
	if err != nil {
		return nil, err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity = item.Quantity
			return c.Clone(), nil
		}
	}
	return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Producto no encontrado en el carrito"}
}

func (f *fakeAPI) RemoveFromCart(ctx context.Context, token string, productID string) (*models.Cart, error) {
	f.hook("remove")
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.cartFor(token)
	if err != nil {
		return nil, err
	}
	items := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	c.Items = items
	if f.emptyDeletes {
		return nil, nil
	}
	return c.Clone(), nil
}

func (f *fakeAPI) ClearCart(ctx context.Context, token string) (*models.Cart, error) {
	f.hook("clear")
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.cartFor(token)
	if err != nil {
		return nil, err
	}
	c.Items = []models.CartItem{}
	if f.emptyDeletes {
		return nil, nil
	}
	return c.Clone(), nil
}

func (f *fakeAPI) CreateOrder(ctx context.Context, token string, req models.OrderRequest) (*models.Order, error) {
	f.record("create_order")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[token]
	if !ok {
		return nil, errUnauthorized401
	}
	o := models.Order{ID: "order-1", UserID: u.ID, Status: models.OrderStatusPending, ShippingAddress: req.ShippingAddress}
	for _, it := range req.Items {
		o.Items = append(o.Items, models.OrderItem{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity, PriceAtPurchase: it.Price})
		o.TotalAmount += it.Price * float64(it.Quantity)
	}
	f.orders = append(f.orders, o)
	return &o, nil
}

func (f *fakeAPI) ListOrders(ctx context.Context, token string) ([]models.Order, error) {
	f.record("list_orders")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Order(nil), f.orders...), nil
}

func (f *fakeAPI) GetOrder(ctx context.Context, token string, id string) (*models.Order, error) {
	f.record("get_order")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Pedido no encontrado"}
}

func (f *fakeAPI) CreatePaymentPreference(ctx context.Context, token string, orderID string) (*models.PaymentPreference, error) {
	f.record("preference")
	if f.prefErr != nil {
		return nil, f.prefErr
	}
	if f.preference != nil {
		return f.preference, nil
	}
	return &models.PaymentPreference{PreferenceID: "pref-" + orderID, InitPoint: "https://pay.example/checkout?pref=" + orderID}, nil
}

var errOffline = &client.NetworkError{Op: "GET /products", Err: errors.New("connection refused")}
