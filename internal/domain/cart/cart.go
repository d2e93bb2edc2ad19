// Package cart implements the per-user shopping cart: mutable line items
// validated against live catalog stock at write time.
package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// OutOfStockError indicates a product currently has zero units in stock.
type OutOfStockError struct {
	ProductID string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.ProductID)
}

// InsufficientStockError indicates a requested quantity exceeds the units
// currently available.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("requested quantity exceeds available stock for product %s: %d available", e.ProductID, e.Available)
}

// Line is one mutable cart entry. A user's cart holds at most one line per
// product; the product ID doubles as the line identifier.
type Line struct {
	ProductID string
	Quantity  int
}

// SnapshotLine is one line of a point-in-time cart read: product identity and
// unit price captured together from a single consistent query. This is the
// value handed to the pricing engine and the order factory.
type SnapshotLine struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// LineTotal returns unit price times quantity.
func (l SnapshotLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Repository defines persistence operations for cart lines.
type Repository interface {
	// Get returns the line for (userID, productID), or nil if absent.
	Get(ctx context.Context, userID, productID string) (*Line, error)
	// Upsert creates the line or replaces its quantity.
	Upsert(ctx context.Context, userID string, line Line) error
	// Delete removes a single line. Deleting an absent line is a no-op.
	Delete(ctx context.Context, userID, productID string) error
	// Clear removes every line of the user's cart. Clearing an absent cart
	// is a no-op.
	Clear(ctx context.Context, userID string) error
	// Snapshot returns all lines joined with current product name and price
	// in one consistent read.
	Snapshot(ctx context.Context, userID string) ([]SnapshotLine, error)
}
