package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearly/storefront/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Lines are
// keyed by (user_id, product_id), which also enforces the one-line-per-product
// invariant at the schema level.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the line for (userID, productID), or nil when absent.
func (r *CartRepository) Get(ctx context.Context, userID, productID string) (*cart.Line, error) {
	var line cart.Line
	err := r.pool.QueryRow(ctx, `
		SELECT product_id, quantity
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2`, userID, productID).
		Scan(&line.ProductID, &line.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting cart line")
	}
	return &line, nil
}

// Upsert creates the line or replaces its quantity.
func (r *CartRepository) Upsert(ctx context.Context, userID string, line cart.Line) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`,
		userID, line.ProductID, line.Quantity)
	if err != nil {
		return errors.Wrapf(err, "upserting cart line for product %q", line.ProductID)
	}
	return nil
}

// Delete removes a single line; absent lines are a no-op.
func (r *CartRepository) Delete(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM cart_items
		WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return errors.Wrapf(err, "deleting cart line for product %q", productID)
	}
	return nil
}

// Clear removes every line of the user's cart; an absent cart is a no-op.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return errors.Wrap(err, "clearing cart")
	}
	return nil
}

// Snapshot joins the user's lines with live product name and price in a
// single statement, so the returned set is internally consistent: a product
// deleted mid-read either appears with its price or not at all.
func (r *CartRepository) Snapshot(ctx context.Context, userID string) ([]cart.SnapshotLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "snapshotting cart")
	}
	defer rows.Close()

	var lines []cart.SnapshotLine
	for rows.Next() {
		var l cart.SnapshotLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, errors.Wrap(err, "scanning cart line")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading cart lines")
	}
	return lines, nil
}
