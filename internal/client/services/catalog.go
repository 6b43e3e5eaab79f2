package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/repositories/products"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// Catalog is a product listing. Offline is set when it was served from the
// local cache because the API was unreachable.
type Catalog struct {
	Products []models.Product
	Offline  bool
}

// CatalogService browses products, falling back to the local cache while the
// API is unavailable.
type CatalogService struct {
	client client.Client
	cache  products.Repository
	log    logging.Logger
}

func NewCatalogService(c client.Client, cache products.Repository, log logging.Logger) *CatalogService {
	if log == nil {
		log = logging.Discard()
	}
	return &CatalogService{client: c, cache: cache, log: log.With("component", "catalog")}
}

// List returns the catalog and refreshes the cache. When the API is
// unavailable it serves the cached catalog, or ErrLocalDataNotAvailable if
// nothing was cached yet.
func (s *CatalogService) List(ctx context.Context) (*Catalog, error) {
	list, err := s.client.ListProducts(ctx)
	if err == nil {
		if cerr := s.cache.ReplaceAll(ctx, list); cerr != nil {
			s.log.Warn(ctx, "failed to cache catalog", "error", cerr)
		}
		return &Catalog{Products: list}, nil
	}
	if !errors.Is(err, client.ErrUnavailable) {
		return nil, fmt.Errorf("list products: %w", err)
	}

	cached, cerr := s.cache.GetAll(ctx)
	if cerr != nil {
		return nil, fmt.Errorf("list products: %w (cache: %v)", err, cerr)
	}
	if len(cached) == 0 {
		return nil, fmt.Errorf("list products: %w", client.ErrLocalDataNotAvailable)
	}
	s.log.Info(ctx, "serving cached catalog", "products", len(cached))
	return &Catalog{Products: cached, Offline: true}, nil
}

// Get returns one product. The bool is true when it came from the cache.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, bool, error) {
	p, err := s.client.GetProduct(ctx, id)
	if err == nil {
		if p == nil {
			return nil, false, fmt.Errorf("product %s: empty response", id)
		}
		if cerr := s.cache.Upsert(ctx, *p); cerr != nil {
			s.log.Warn(ctx, "failed to cache product", "id", id, "error", cerr)
		}
		return p, false, nil
	}
	if !errors.Is(err, client.ErrUnavailable) {
		return nil, false, fmt.Errorf("product %s: %w", id, err)
	}

	cached, cerr := s.cache.GetByID(ctx, id)
	if errors.Is(cerr, products.ErrNotFound) {
		return nil, false, fmt.Errorf("product %s: %w", id, client.ErrLocalDataNotAvailable)
	}
	if cerr != nil {
		return nil, false, fmt.Errorf("product %s: %w (cache: %v)", id, err, cerr)
	}
	return cached, true, nil
}
