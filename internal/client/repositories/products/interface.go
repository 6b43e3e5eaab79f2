package products

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/storefront/internal/client/models"
)

var ErrNotFound = errors.New("product not cached")

// Repository is the offline catalog cache used by the catalog service.
type Repository interface {
	// ReplaceAll drops the cached catalog and stores list in its place.
	ReplaceAll(ctx context.Context, list []models.Product) error

	// Upsert stores a single product, keeping its position if it was cached.
	Upsert(ctx context.Context, p models.Product) error

	// GetAll returns cached products in the order of the last listing.
	GetAll(ctx context.Context) ([]models.Product, error)

	// GetByID returns ErrNotFound when id is not cached.
	GetByID(ctx context.Context, id string) (*models.Product, error)
}
