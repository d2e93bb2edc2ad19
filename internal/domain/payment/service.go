package payment

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/wearly/storefront/internal/domain/order"
)

// Service is the payment gateway adapter plus the settlement reconciler.
type Service struct {
	orders  order.Repository
	gateway Gateway
	signer  *Signer
	keyID   string
}

// NewService creates a payment Service. keyID is the public gateway key id
// handed to clients alongside intent parameters.
func NewService(orders order.Repository, gateway Gateway, signer *Signer, keyID string) *Service {
	return &Service{
		orders:  orders,
		gateway: gateway,
		signer:  signer,
		keyID:   keyID,
	}
}

// CreateIntent creates a remote payment intent for the order, or reuses the
// one already stored. Re-invoking for the same order never mints a second
// remote intent.
func (s *Service) CreateIntent(ctx context.Context, userID, orderID string) (*Intent, error) {
	o, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if o.PaymentStatus == order.PaymentPaid {
		return nil, ErrAlreadyPaid
	}
	if o.PaymentStatus == order.PaymentFailed {
		return nil, ErrPaymentClosed
	}

	paise, err := toPaise(o.TotalAmount)
	if err != nil {
		return nil, errors.Wrap(err, "convert amount")
	}

	if o.GatewayOrderID != "" {
		return &Intent{
			KeyID:          s.keyID,
			OrderID:        o.ID,
			GatewayOrderID: o.GatewayOrderID,
			AmountPaise:    paise,
			Currency:       Currency,
		}, nil
	}

	gatewayOrderID, err := s.gateway.CreateIntent(ctx, IntentRequest{
		AmountPaise: paise,
		Currency:    Currency,
		Receipt:     "order_" + o.ID,
	})
	if err != nil {
		return nil, err
	}

	stored, err := s.orders.SaveGatewayOrderID(ctx, o.ID, gatewayOrderID)
	if err != nil {
		return nil, errors.Wrap(err, "store gateway order id")
	}

	return &Intent{
		KeyID:          s.keyID,
		OrderID:        o.ID,
		GatewayOrderID: stored,
		AmountPaise:    paise,
		Currency:       Currency,
	}, nil
}

// Verify applies a gateway confirmation to the order. The whole
// read-check-write runs with the order row locked, so two concurrent
// callbacks cannot both pass the "not yet paid" check.
//
// Outcomes:
//   - already PAID: success without touching any field (idempotent replay);
//   - attempt already FAILED: ErrPaymentClosed, nothing persisted, even when
//     the callback carries a valid signature;
//   - stored intent id mismatch: ErrInvalidReference, nothing persisted;
//   - bad signature: payment and order marked FAILED, ErrSignatureMismatch;
//   - good signature: payment PAID, order CONFIRMED, gateway payment id and
//     signature stored for audit.
func (s *Service) Verify(ctx context.Context, userID string, req VerifyRequest) (*order.Order, error) {
	return s.orders.UpdatePayment(ctx, req.OrderID, userID, func(o *order.Order) (*order.PaymentUpdate, error) {
		if o.PaymentStatus == order.PaymentPaid {
			return nil, nil
		}
		if o.PaymentStatus == order.PaymentFailed {
			return nil, ErrPaymentClosed
		}

		if o.GatewayOrderID == "" || o.GatewayOrderID != req.GatewayOrderID {
			return nil, ErrInvalidReference
		}

		if !s.signer.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
			update := &order.PaymentUpdate{
				Status:        o.Status,
				PaymentStatus: order.PaymentFailed,
			}
			if o.Status.CanTransitionTo(order.StatusFailed) {
				update.Status = order.StatusFailed
			}
			return update, ErrSignatureMismatch
		}

		update := &order.PaymentUpdate{
			Status:           o.Status,
			PaymentStatus:    order.PaymentPaid,
			GatewayPaymentID: req.GatewayPaymentID,
			GatewaySignature: req.Signature,
		}
		if o.Status.CanTransitionTo(order.StatusConfirmed) {
			update.Status = order.StatusConfirmed
		}
		return update, nil
	})
}
