// Package order implements the checkout pipeline: the one-way conversion of a
// cart snapshot into an immutable order plus its stock decrement.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/wearly/storefront/internal/domain/address"
)

// Status is the fulfilment state of an order. CONFIRMED, FAILED, and
// CANCELLED are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// CanTransitionTo reports whether moving from s to next is a legal state
// machine transition. Terminal states have no outgoing transitions.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	switch next {
	case StatusConfirmed, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentStatus is the settlement state of an order's payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment methods accepted at checkout.
const (
	MethodCOD      = "COD"
	MethodRazorpay = "RAZORPAY"
)

var (
	// ErrEmptyCart is returned when checkout finds no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnknownPaymentMethod is returned for a payment method the service
	// does not accept.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	// ErrNotFound is returned when an order does not exist for the user.
	ErrNotFound = errors.New("order not found")
	// ErrForbidden is returned when an order belongs to another user.
	ErrForbidden = errors.New("order does not belong to user")
	// ErrConflict signals a storage-level transaction conflict that is safe
	// to retry once.
	ErrConflict = errors.New("transaction conflict")
)

// Item is an immutable order line: product identity, unit price, and quantity
// snapshotted at order-creation time, decoupled from later catalog changes.
type Item struct {
	ID          string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	TotalPrice  decimal.Decimal
}

// Order is the immutable record of one checkout. Only Status and
// PaymentStatus (plus the gateway audit fields set at settlement) change
// after creation, and only through defined transitions.
type Order struct {
	ID               string
	UserID           string
	Items            []Item
	Subtotal         decimal.Decimal
	ShippingFee      decimal.Decimal
	TotalAmount      decimal.Decimal
	Status           Status
	PaymentStatus    PaymentStatus
	PaymentMethod    string
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	ShippingAddress  address.Address
	CreatedAt        time.Time
}

// PaymentUpdate is the persisted outcome of a settlement decision made while
// the order row is locked.
type PaymentUpdate struct {
	Status           Status
	PaymentStatus    PaymentStatus
	GatewayPaymentID string
	GatewaySignature string
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order, its items, the per-product stock
	// decrements, and the cart clear in a single transaction. If any line's
	// quantity exceeds current stock it returns a cart.InsufficientStockError
	// and commits nothing. A serialization failure surfaces as ErrConflict.
	Create(ctx context.Context, o *Order) error

	// GetForUser returns the order with its items when owned by userID.
	GetForUser(ctx context.Context, orderID, userID string) (*Order, error)

	// ListForUser returns the user's orders, newest first, items included.
	ListForUser(ctx context.Context, userID string) ([]Order, error)

	// SaveGatewayOrderID stores the remote payment intent id on the order,
	// unless one is already on record. It returns the id that ended up
	// stored, which is the earlier writer's when this call lost the race.
	SaveGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) (string, error)

	// UpdatePayment loads the order by id and owner with the row locked for
	// the duration of the transaction, invokes fn, and persists the returned
	// update (when non-nil) before committing. fn's error is returned to the
	// caller either way, so a decision can both persist a FAILED status and
	// fail the call.
	UpdatePayment(ctx context.Context, orderID, userID string, fn func(*Order) (*PaymentUpdate, error)) (*Order, error)
}
