//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// The compose environment points SHOP_RAZORPAY_BASE_URL at an address with no
// listener, so intent creation exercises the gateway-down path end to end.

func placeRazorpayOrder(t *testing.T) checkoutResult {
	t.Helper()
	clearCart(t)

	resp := doPostAuth(t, "/api/cart/items", map[string]any{"productId": "tee-classic-black", "quantity": 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add item: expected 204, got %d", resp.StatusCode)
	}

	resp = doPostAuth(t, "/api/checkout", map[string]any{"addressId": seededAddressID, "paymentMethod": "RAZORPAY"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[checkoutResult](t, resp)
}

func TestPayment_OnlineOrderStaysPending(t *testing.T) {
	out := placeRazorpayOrder(t)

	if out.OrderStatus != "PENDING" {
		t.Errorf("order status: got %q, want PENDING", out.OrderStatus)
	}
	if out.PaymentStatus != "PENDING" {
		t.Errorf("payment status: got %q, want PENDING", out.PaymentStatus)
	}
}

func TestPayment_CreateIntentGatewayDown(t *testing.T) {
	out := placeRazorpayOrder(t)

	resp := doPostAuth(t, "/api/payments/create-intent", map[string]any{"orderId": out.OrderID})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusBadGateway {
		t.Errorf("error code: got %d", body.Code)
	}

	// The order must be untouched by the failed intent call.
	resp = doGetAuth(t, "/api/orders/"+out.OrderID)
	defer resp.Body.Close()
	o := decodeJSON[orderView](t, resp)
	if o.OrderStatus != "PENDING" || o.PaymentStatus != "PENDING" {
		t.Errorf("order changed by failed intent: %s/%s", o.OrderStatus, o.PaymentStatus)
	}
}

func TestPayment_VerifyWithoutIntent(t *testing.T) {
	out := placeRazorpayOrder(t)

	resp := doPostAuth(t, "/api/payments/verify", map[string]any{
		"orderId":          out.OrderID,
		"gatewayOrderId":   "order_forged",
		"gatewayPaymentId": "pay_forged",
		"signature":        "deadbeef",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPayment_VerifyUnknownOrder(t *testing.T) {
	resp := doPostAuth(t, "/api/payments/verify", map[string]any{
		"orderId":          "no-such-order",
		"gatewayOrderId":   "order_x",
		"gatewayPaymentId": "pay_x",
		"signature":        "deadbeef",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
