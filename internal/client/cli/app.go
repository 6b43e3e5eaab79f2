package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/storefront/internal/client/repositories/products"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single connectivity probe.
const pingTimeout = 3 * time.Second

type sessionService interface {
	Snapshot() services.Session
	Restore(ctx context.Context) error
	Login(ctx context.Context, identifier, credential string) (*models.User, error)
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	Logout(ctx context.Context)
	VerifyAge(ctx context.Context) (*models.User, error)
	MinimumAge(ctx context.Context) (int, error)
}

type cartService interface {
	Snapshot() (*models.Cart, bool)
	Fetch(ctx context.Context) (*models.Cart, error)
	AddItem(ctx context.Context, productID string, qty int) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, productID string, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, productID string) (*models.Cart, error)
	Clear(ctx context.Context) (*models.Cart, error)
}

type catalogService interface {
	List(ctx context.Context) (*services.Catalog, error)
	Get(ctx context.Context, id string) (*models.Product, bool, error)
}

type orderService interface {
	Checkout(ctx context.Context, addr models.Address) (*services.CheckoutResult, error)
	Orders(ctx context.Context) ([]models.Order, error)
	Order(ctx context.Context, id string) (*models.Order, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config   *config.Config
	log      logging.Logger
	db       *sql.DB
	api      pinger
	session  sessionService
	cart     cartService
	catalog  catalogService
	orders   orderService
	closeFns []func()
	reader   *bufio.Reader

	modeMu sync.Mutex
	mode   Mode
}

// NewApp opens the local database and wires the API client and stores.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.New(c.LogLevel, os.Stderr)

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, logger)
	session := services.NewSessionStore(api, credentials.NewSQLiteRepository(db), logger)
	cart := services.NewCartStore(api, session, logger)
	catalog := services.NewCatalogService(api, products.NewSQLiteRepository(db), logger)
	orders := services.NewCheckoutService(api, session, cart, logger)

	return &App{
		config:   c,
		log:      logger,
		db:       db,
		api:      api,
		session:  session,
		cart:     cart,
		catalog:  catalog,
		orders:   orders,
		closeFns: []func(){cart.Close},
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.close()
	a.Root(ctx)
}

func (a *App) close() {
	for _, fn := range a.closeFns {
		fn()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "failed to close database", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().Status == services.StatusAuthenticated
}

func (a *App) currentMode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", mode)
	}
}

// checkOnline probes the API once and updates the mode accordingly.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher probes the API every interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
