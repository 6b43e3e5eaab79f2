package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
)

// captureOutput redirects printlnFn into a slice of lines for the test.
func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func silencePrintln(t *testing.T) {
	t.Helper()
	captureOutput(t)
}

// stubInputs answers text prompts from answers in order and the password
// prompt with password.
func stubInputs(t *testing.T, password string, answers ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		i++
		return answers[i-1], nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func joined(lines *[]string) string {
	return strings.Join(*lines, "\n")
}

// ---- fake session ----

type fakeSession struct {
	snap services.Session

	loginUser, loginPass string
	loginErr             error
	regIn                services.RegisterInput
	regErr               error
	logoutCalled         bool
	verifyUser           *models.User
	verifyErr            error
	restoreErr           error
}

func (f *fakeSession) Snapshot() services.Session { return f.snap }
func (f *fakeSession) Restore(context.Context) error {
	return f.restoreErr
}
func (f *fakeSession) Login(_ context.Context, u, p string) (*models.User, error) {
	f.loginUser, f.loginPass = u, p
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	user := &models.User{Username: u, AgeVerified: true}
	f.snap = services.Session{Token: "t", Identity: user, Status: services.StatusAuthenticated}
	return user, nil
}
func (f *fakeSession) Register(_ context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
	f.regIn = in
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &services.RegisterResult{User: &models.User{Username: in.Username}, Landing: services.LandingHome}, nil
}
func (f *fakeSession) Logout(context.Context) {
	f.logoutCalled = true
	f.snap = services.Session{Status: services.StatusAnonymous}
}
func (f *fakeSession) VerifyAge(context.Context) (*models.User, error) {
	return f.verifyUser, f.verifyErr
}
func (f *fakeSession) MinimumAge(context.Context) (int, error) { return 18, nil }

// ---- fake cart ----

type fakeCart struct {
	cart    *models.Cart
	err     error
	fetched int
	calls   []string
}

func (f *fakeCart) Snapshot() (*models.Cart, bool) {
	if f.cart == nil {
		return nil, false
	}
	return f.cart.Clone(), true
}
func (f *fakeCart) Fetch(context.Context) (*models.Cart, error) {
	f.fetched++
	if f.err != nil {
		return nil, f.err
	}
	if f.cart == nil {
		f.cart = &models.Cart{}
	}
	return f.cart.Clone(), nil
}
func (f *fakeCart) AddItem(_ context.Context, id string, qty int) (*models.Cart, error) {
	f.calls = append(f.calls, fmt.Sprintf("add %s %d", id, qty))
	if f.err != nil {
		return nil, f.err
	}
	f.cart = &models.Cart{Items: []models.CartItem{{ProductID: id, Name: "Malbec", Quantity: qty, Price: 10}}}
	return f.cart.Clone(), nil
}
func (f *fakeCart) UpdateQuantity(_ context.Context, id string, qty int) (*models.Cart, error) {
	f.calls = append(f.calls, fmt.Sprintf("update %s %d", id, qty))
	return &models.Cart{}, f.err
}
func (f *fakeCart) RemoveItem(_ context.Context, id string) (*models.Cart, error) {
	f.calls = append(f.calls, "remove "+id)
	return &models.Cart{}, f.err
}
func (f *fakeCart) Clear(context.Context) (*models.Cart, error) {
	f.calls = append(f.calls, "clear")
	return &models.Cart{}, f.err
}

// ---- fake catalog / orders / pinger ----

type fakeCatalog struct {
	catalog *services.Catalog
	product *models.Product
	offline bool
	err     error
}

func (f *fakeCatalog) List(context.Context) (*services.Catalog, error) { return f.catalog, f.err }
func (f *fakeCatalog) Get(context.Context, string) (*models.Product, bool, error) {
	return f.product, f.offline, f.err
}

type fakeOrders struct {
	addr   models.Address
	result *services.CheckoutResult
	list   []models.Order
	err    error
}

func (f *fakeOrders) Checkout(_ context.Context, addr models.Address) (*services.CheckoutResult, error) {
	f.addr = addr
	return f.result, f.err
}
func (f *fakeOrders) Orders(context.Context) ([]models.Order, error) { return f.list, f.err }
func (f *fakeOrders) Order(_ context.Context, id string) (*models.Order, error) {
	for _, o := range f.list {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, f.err
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }
