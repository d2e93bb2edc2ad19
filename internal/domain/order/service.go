package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/wearly/storefront/internal/domain/address"
	"github.com/wearly/storefront/internal/domain/cart"
	"github.com/wearly/storefront/internal/domain/pricing"
)

// CheckoutRequest holds the input for a checkout.
type CheckoutRequest struct {
	AddressID     string
	PaymentMethod string
}

// Service converts carts into orders.
type Service struct {
	carts     cart.Repository
	addresses address.Repository
	orders    Repository
	now       func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(carts cart.Repository, addresses address.Repository, orders Repository) *Service {
	return &Service{
		carts:     carts,
		addresses: addresses,
		orders:    orders,
		now:       time.Now,
	}
}

// Checkout snapshots the user's cart, prices it, ownership-checks the
// shipping address, and persists the order together with its stock decrements
// in one transaction. The cart is cleared as part of that same transaction.
//
// A storage conflict on the stock decrement is retried once before surfacing.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*Order, error) {
	if req.PaymentMethod != MethodCOD && req.PaymentMethod != MethodRazorpay {
		return nil, ErrUnknownPaymentMethod
	}

	snapshot, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot cart")
	}
	if len(snapshot) == 0 {
		return nil, ErrEmptyCart
	}

	addr, err := s.addresses.GetForUser(ctx, req.AddressID, userID)
	if err != nil {
		return nil, err
	}

	items := make([]pricing.Item, len(snapshot))
	for i, line := range snapshot {
		items[i] = pricing.Item{UnitPrice: line.UnitPrice, Quantity: line.Quantity}
	}
	quote := pricing.Compute(items)

	o := s.build(userID, snapshot, quote, *addr, req.PaymentMethod)

	if err := s.orders.Create(ctx, o); err != nil {
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		// One bounded retry on a serialization conflict; the conditional
		// stock decrement makes the retry safe.
		if err := s.orders.Create(ctx, o); err != nil {
			return nil, errors.Wrap(err, "create order (retry)")
		}
	}

	return o, nil
}

// build assembles the immutable order value from the snapshot and quote.
// Cash-on-delivery orders confirm immediately; online payments stay PENDING
// until settlement.
func (s *Service) build(userID string, snapshot []cart.SnapshotLine, quote pricing.Quote, addr address.Address, method string) *Order {
	status := StatusPending
	if method == MethodCOD {
		status = StatusConfirmed
	}

	items := make([]Item, len(snapshot))
	for i, line := range snapshot {
		items[i] = Item{
			ID:          uuid.New().String(),
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			TotalPrice:  line.LineTotal(),
		}
	}

	return &Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Items:           items,
		Subtotal:        quote.Subtotal,
		ShippingFee:     quote.Shipping,
		TotalAmount:     quote.Total,
		Status:          status,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   method,
		ShippingAddress: addr,
		CreatedAt:       s.now().UTC(),
	}
}

// GetForUser returns one of the user's orders.
func (s *Service) GetForUser(ctx context.Context, orderID, userID string) (*Order, error) {
	return s.orders.GetForUser(ctx, orderID, userID)
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListForUser(ctx, userID)
}
