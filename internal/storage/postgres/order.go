package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearly/storefront/internal/domain/address"
	"github.com/wearly/storefront/internal/domain/cart"
	"github.com/wearly/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order atomically: stock decrements, the order row, its
// items, and the cart clear either all commit or none do.
//
// The stock check-and-decrement is a single conditional UPDATE per product,
// so two concurrent checkouts racing for the last unit cannot both succeed:
// the second one matches zero rows and the whole transaction aborts with a
// cart.InsufficientStockError.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin checkout tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range o.Items {
		ct, err := tx.Exec(ctx, `
			UPDATE products
			SET stock = stock - $2
			WHERE id = $1 AND stock >= $2`,
			it.ProductID, it.Quantity)
		if err != nil {
			return wrapTxError(err, "decrement stock for product %q", it.ProductID)
		}
		if ct.RowsAffected() == 0 {
			var available int
			err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, it.ProductID).Scan(&available)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return errors.Wrapf(err, "read stock for product %q", it.ProductID)
			}
			return &cart.InsufficientStockError{ProductID: it.ProductID, Available: available}
		}
	}

	addrJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, user_id, subtotal, shipping_fee, total_amount,
			order_status, payment_status, payment_method,
			gateway_order_id, gateway_payment_id, gateway_signature,
			shipping_address, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '', '', '', $9, $10)`,
		o.ID, o.UserID, o.Subtotal, o.ShippingFee, o.TotalAmount,
		o.Status, o.PaymentStatus, o.PaymentMethod,
		addrJSON, o.CreatedAt)
	if err != nil {
		return wrapTxError(err, "insert order %q", o.ID)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, o.ID, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, it.TotalPrice)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapTxError(err, "insert order items for %q", o.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, o.UserID); err != nil {
		return wrapTxError(err, "clear cart for user %q", o.UserID)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapTxError(err, "commit checkout tx")
	}
	return nil
}

// GetForUser returns the order with its items. A missing order and an
// ownership mismatch are distinct errors.
func (r *OrderRepository) GetForUser(ctx context.Context, orderID, userID string) (*order.Order, error) {
	o, err := r.scanOrder(ctx, r.pool, orderID, false)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, order.ErrForbidden
	}

	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// ListForUser returns the user's orders, newest first, with items attached.
func (r *OrderRepository) ListForUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	defer rows.Close()

	var (
		out []order.Order
		ids []string
	)
	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading orders")
	}

	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

// SaveGatewayOrderID stores the remote intent id once; a concurrent writer
// that got there first wins. The id on record after the call is returned, so
// the caller never hands out an id that was not persisted.
func (r *OrderRepository) SaveGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) (string, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET gateway_order_id = $2
		WHERE id = $1 AND gateway_order_id = ''`,
		orderID, gatewayOrderID)
	if err != nil {
		return "", errors.Wrapf(err, "saving gateway order id for %q", orderID)
	}
	if tag.RowsAffected() > 0 {
		return gatewayOrderID, nil
	}

	var stored string
	err = r.pool.QueryRow(ctx, `
		SELECT gateway_order_id FROM orders WHERE id = $1`, orderID).
		Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", order.ErrNotFound
		}
		return "", errors.Wrapf(err, "reading gateway order id for %q", orderID)
	}
	return stored, nil
}

// UpdatePayment runs fn with the order row locked (SELECT ... FOR UPDATE) and
// persists the returned update inside the same transaction. fn's error is
// returned to the caller even when an update was persisted, so settlement can
// record a FAILED status and still fail the call.
func (r *OrderRepository) UpdatePayment(ctx context.Context, orderID, userID string, fn func(*order.Order) (*order.PaymentUpdate, error)) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin settlement tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := r.scanOrder(ctx, tx, orderID, true)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, order.ErrForbidden
	}

	update, fnErr := fn(o)
	if update == nil {
		// Read-only outcome; nothing to persist.
		return o, fnErr
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET order_status = $2,
		    payment_status = $3,
		    gateway_payment_id = $4,
		    gateway_signature = $5
		WHERE id = $1`,
		o.ID, update.Status, update.PaymentStatus, update.GatewayPaymentID, update.GatewaySignature)
	if err != nil {
		return nil, wrapTxError(err, "persist payment update for %q", o.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapTxError(err, "commit settlement tx")
	}

	o.Status = update.Status
	o.PaymentStatus = update.PaymentStatus
	o.GatewayPaymentID = update.GatewayPaymentID
	o.GatewaySignature = update.GatewaySignature
	return o, fnErr
}

const orderColumns = `
	SELECT id, user_id, subtotal, shipping_fee, total_amount,
	       order_status, payment_status, payment_method,
	       gateway_order_id, gateway_payment_id, gateway_signature,
	       shipping_address, created_at`

// querier is the subset of pgx shared by pool and transaction handles.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *OrderRepository) scanOrder(ctx context.Context, q querier, orderID string, forUpdate bool) (*order.Order, error) {
	sql := orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	o, err := scanOrderRow(q.QueryRow(ctx, sql, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %q", orderID)
	}
	return o, nil
}

func scanOrderRow(row pgx.Row) (*order.Order, error) {
	var (
		o        order.Order
		addrJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Subtotal, &o.ShippingFee, &o.TotalAmount,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.GatewayOrderID, &o.GatewayPaymentID, &o.GatewaySignature,
		&addrJSON, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	var addr address.Address
	if err := json.Unmarshal(addrJSON, &addr); err != nil {
		return nil, errors.Wrap(err, "unmarshal shipping address")
	}
	o.ShippingAddress = addr
	return &o, nil
}

// itemsFor loads order items for the given order ids, grouped by order.
func (r *OrderRepository) itemsFor(ctx context.Context, orderIDs []string) (map[string][]order.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, total_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY product_id`, orderIDs)
	if err != nil {
		return nil, errors.Wrap(err, "listing order items")
	}
	defer rows.Close()

	items := make(map[string][]order.Item, len(orderIDs))
	for rows.Next() {
		var (
			it      order.Item
			orderID string
		)
		if err := rows.Scan(&it.ID, &orderID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.TotalPrice); err != nil {
			return nil, errors.Wrap(err, "scanning order item")
		}
		items[orderID] = append(items[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading order items")
	}
	return items, nil
}

// wrapTxError maps PostgreSQL serialization and deadlock failures to
// order.ErrConflict so the service layer can apply its bounded retry.
func wrapTxError(err error, format string, args ...any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return errors.Wrapf(order.ErrConflict, format, args...)
		}
	}
	return errors.Wrapf(err, format, args...)
}
