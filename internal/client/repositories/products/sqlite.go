package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/dbx"
)

// SQLiteRepository implements Repository on top of *sql.DB. ReplaceAll needs
// a real *sql.DB to open its transaction.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, list []models.Product) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}
		for i, p := range list {
			if err := insert(ctx, tx, i, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Upsert(ctx context.Context, p models.Product) error {
	var pos int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT position FROM products WHERE id = ?), (SELECT COUNT(*) FROM products))`,
		p.ID).Scan(&pos)
	if err != nil {
		return fmt.Errorf("failed to resolve product position: %w", err)
	}
	return insert(ctx, r.db, pos, p)
}

func insert(ctx context.Context, db dbx.DBTX, pos int, p models.Product) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode product %s: %w", p.ID, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO products (id, position, payload, cached_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET position = excluded.position,
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`, p.ID, pos, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM products ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	defer rows.Close()

	var result []models.Product
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var p models.Product
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("corrupt cached product: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM products WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	p := &models.Product{}
	if err := json.Unmarshal(payload, p); err != nil {
		return nil, fmt.Errorf("corrupt cached product %s: %w", id, err)
	}
	return p, nil
}
