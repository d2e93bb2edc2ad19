package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/wearly/storefront/internal/domain/payment"
)

type createIntentRequest struct {
	OrderID string `json:"orderId"`
}

type createIntentResponse struct {
	KeyID          string `json:"keyId"`
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type verifyRequest struct {
	OrderID          string `json:"orderId"`
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

type verifyResponse struct {
	Verified      bool   `json:"verified"`
	OrderID       string `json:"orderId"`
	OrderStatus   string `json:"orderStatus"`
	PaymentStatus string `json:"paymentStatus"`
	Message       string `json:"message,omitempty"`
}

func (h *Handler) createIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "orderId required")
		return
	}

	userID := UserIDFromContext(r.Context())
	intent, err := h.payments.CreateIntent(r.Context(), userID, req.OrderID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, createIntentResponse{
		KeyID:          intent.KeyID,
		OrderID:        intent.OrderID,
		GatewayOrderID: intent.GatewayOrderID,
		Amount:         intent.AmountPaise,
		Currency:       intent.Currency,
	})
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" || req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		respondError(w, http.StatusBadRequest, "orderId, gatewayOrderId, gatewayPaymentId, and signature are required")
		return
	}

	userID := UserIDFromContext(r.Context())
	o, err := h.payments.Verify(r.Context(), userID, payment.VerifyRequest{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		// A signature mismatch is a settled negative outcome, not a transport
		// failure: the order's FAILED state was persisted, so report it.
		if errors.Is(err, payment.ErrSignatureMismatch) && o != nil {
			respondJSON(w, http.StatusUnprocessableEntity, verifyResponse{
				Verified:      false,
				OrderID:       o.ID,
				OrderStatus:   string(o.Status),
				PaymentStatus: string(o.PaymentStatus),
				Message:       err.Error(),
			})
			return
		}
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, verifyResponse{
		Verified:      true,
		OrderID:       o.ID,
		OrderStatus:   string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
	})
}
