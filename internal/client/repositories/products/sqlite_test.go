package products

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE products (
  id        TEXT PRIMARY KEY,
  position  INTEGER NOT NULL,
  payload   BLOB NOT NULL,
  cached_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
	require.NoError(t, err)
	return db
}

func sample() []models.Product {
	return []models.Product{
		{ID: "p2", Name: "Malbec", Price: 12.5, Stock: 4},
		{ID: "p1", Name: "Torrontés", Price: 9.99, Stock: 10, Category: "white"},
	}
}

func TestReplaceAll_KeepsListingOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, sample()))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestReplaceAll_DropsPreviousCatalog(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, sample()))
	require.NoError(t, r.ReplaceAll(ctx, []models.Product{{ID: "p3", Name: "Cava"}}))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].ID)

	_, err = r.GetByID(ctx, "p1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsert_UpdatesInPlaceAndAppendsNew(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.ReplaceAll(ctx, sample()))

	updated := models.Product{ID: "p2", Name: "Malbec Reserva", Price: 20}
	require.NoError(t, r.Upsert(ctx, updated))
	require.NoError(t, r.Upsert(ctx, models.Product{ID: "p9", Name: "Rosé"}))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Malbec Reserva", got[0].Name)
	assert.Equal(t, "p1", got[1].ID)
	assert.Equal(t, "p9", got[2].ID)
}

func TestGetByID(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.ReplaceAll(ctx, sample()))

	p, err := r.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Torrontés", p.Name)
	assert.Equal(t, "white", p.Category)

	_, err = r.GetByID(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetAll_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	got, err := r.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetByID_CorruptPayload(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	_, err := db.Exec(`INSERT INTO products (id, position, payload) VALUES ('bad', 0, 'not-json')`)
	require.NoError(t, err)

	_, err = r.GetByID(context.Background(), "bad")
	require.ErrorContains(t, err, "corrupt cached product bad")

	_, err = r.GetAll(context.Background())
	require.ErrorContains(t, err, "corrupt cached product")
}
