// Package payment implements the payment gateway adapter and the settlement
// reconciler: creating remote payment intents for orders and applying the
// gateway's asynchronous confirmation back onto them.
package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Currency is the only settlement currency the gateway is invoked with.
const Currency = "INR"

var (
	// ErrAlreadyPaid is returned when an intent is requested for a settled order.
	ErrAlreadyPaid = errors.New("order already paid")
	// ErrPaymentClosed is returned once a payment attempt has terminally
	// failed. No further intent or settlement is accepted for the order.
	ErrPaymentClosed = errors.New("payment attempt already failed")
	// ErrInvalidReference is returned when a callback names a gateway order id
	// that was never stored for the order, which indicates a cross-order replay.
	ErrInvalidReference = errors.New("gateway order id does not match order")
	// ErrSignatureMismatch is returned when the callback signature fails
	// verification. The payment attempt is terminally failed.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	// ErrGatewayUnavailable is returned for network failures, timeouts, and
	// server errors from the payment provider. It is the only retryable kind.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// IntentRequest is the outbound intent-creation call. Amount is an exact
// integer in minor units (paise); no floating point crosses this boundary.
type IntentRequest struct {
	AmountPaise int64
	Currency    string
	Receipt     string
}

// Gateway creates remote payment intents at the external provider.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (gatewayOrderID string, err error)
}

// Intent holds the client-facing parameters of a created (or reused) intent.
type Intent struct {
	KeyID          string
	OrderID        string
	GatewayOrderID string
	AmountPaise    int64
	Currency       string
}

// VerifyRequest is the inbound settlement callback payload.
type VerifyRequest struct {
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

var hundred = decimal.NewFromInt(100)

// toPaise converts a rupee amount to exact integer paise. A fractional result
// means the amount was stored with more precision than the currency supports
// and is an internal error, never silent rounding.
func toPaise(amount decimal.Decimal) (int64, error) {
	paise := amount.Mul(hundred)
	if !paise.IsInteger() {
		return 0, errors.Errorf("amount %s is not an exact paise value", amount)
	}
	return paise.IntPart(), nil
}
