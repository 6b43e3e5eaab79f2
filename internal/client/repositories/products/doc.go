// Package products caches the storefront catalog in the local SQLite
// database so the catalog can still be browsed while the API is unreachable.
//
// The cache stores each product as its JSON payload together with the
// position it had in the last listing. ReplaceAll swaps the whole cache in a
// single transaction; GetAll returns products in listing order.
//
// Typical usage:
//
//	repo := products.NewSQLiteRepository(db)
//	_ = repo.ReplaceAll(ctx, list)
//	cached, _ := repo.GetAll(ctx)
//	one, err := repo.GetByID(ctx, id) // errors.Is(err, products.ErrNotFound)
package products
