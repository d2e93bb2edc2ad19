package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/wearly/storefront/internal/domain/catalog"
)

// ErrInvalidQuantity indicates a non-positive quantity where one is required.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Service encapsulates cart mutation logic and its stock validation rules.
type Service struct {
	products catalog.Reader
	lines    Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(products catalog.Reader, lines Repository) *Service {
	return &Service{
		products: products,
		lines:    lines,
	}
}

// AddLine adds qty units of a product to the user's cart, merging into an
// existing line when present. It returns catalog.ErrNotFound for an unknown
// product, an OutOfStockError when the product has zero stock, and an
// InsufficientStockError when the merged quantity would exceed current stock.
func (s *Service) AddLine(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.ErrNotFound
		}
		return errors.Wrapf(err, "get product %s", productID)
	}

	if p.Stock <= 0 {
		return &OutOfStockError{ProductID: productID}
	}

	existing, err := s.lines.Get(ctx, userID, productID)
	if err != nil {
		return errors.Wrap(err, "get cart line")
	}

	current := 0
	if existing != nil {
		current = existing.Quantity
	}
	if current+qty > p.Stock {
		return &InsufficientStockError{ProductID: productID, Available: p.Stock}
	}

	err = s.lines.Upsert(ctx, userID, Line{ProductID: productID, Quantity: current + qty})
	if err != nil {
		return errors.Wrap(err, "upsert cart line")
	}
	return nil
}

// SetQuantity replaces the quantity of an existing line. A quantity of zero
// or less removes the line, which is not an error. A positive quantity is
// re-validated against current stock.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		if err := s.lines.Delete(ctx, userID, productID); err != nil {
			return errors.Wrap(err, "delete cart line")
		}
		return nil
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.ErrNotFound
		}
		return errors.Wrapf(err, "get product %s", productID)
	}

	if qty > p.Stock {
		return &InsufficientStockError{ProductID: productID, Available: p.Stock}
	}

	err = s.lines.Upsert(ctx, userID, Line{ProductID: productID, Quantity: qty})
	if err != nil {
		return errors.Wrap(err, "upsert cart line")
	}
	return nil
}

// RemoveLine removes a single line from the user's cart unconditionally.
func (s *Service) RemoveLine(ctx context.Context, userID, productID string) error {
	if err := s.lines.Delete(ctx, userID, productID); err != nil {
		return errors.Wrap(err, "delete cart line")
	}
	return nil
}

// Clear empties the user's cart unconditionally.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.lines.Clear(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// Snapshot returns a consistent point-in-time read of the user's cart lines
// with current product names and unit prices.
func (s *Service) Snapshot(ctx context.Context, userID string) ([]SnapshotLine, error) {
	lines, err := s.lines.Snapshot(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot cart")
	}
	return lines, nil
}
