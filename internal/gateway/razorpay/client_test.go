package razorpay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearly/storefront/internal/domain/payment"
)

func testRequest() payment.IntentRequest {
	return payment.IntentRequest{
		AmountPaise: 120000,
		Currency:    "INR",
		Receipt:     "order_o1",
	}
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		BaseURL:   srv.URL,
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
	}, nil)
}

func TestCreateIntent_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_rzp_123","entity":"order","amount":120000,"status":"created"}`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv).CreateIntent(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "order_rzp_123", id)
	assert.Equal(t, float64(120000), gotBody["amount"])
	assert.Equal(t, "INR", gotBody["currency"])
	assert.Equal(t, "order_o1", gotBody["receipt"])
	assert.Equal(t, float64(1), gotBody["payment_capture"])
}

func TestCreateIntent_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateIntent(context.Background(), testRequest())
	require.ErrorIs(t, err, payment.ErrGatewayUnavailable)
}

func TestCreateIntent_ClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least 100"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateIntent(context.Background(), testRequest())

	require.Error(t, err)
	assert.NotErrorIs(t, err, payment.ErrGatewayUnavailable)
	assert.Contains(t, err.Error(), "amount must be at least 100")
}

func TestCreateIntent_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // immediately, so the dial fails

	_, err := newTestClient(srv).CreateIntent(context.Background(), testRequest())
	require.ErrorIs(t, err, payment.ErrGatewayUnavailable)
}

func TestCreateIntent_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:   srv.URL,
		KeyID:     "k",
		KeySecret: "s",
		Timeout:   50 * time.Millisecond,
	}, nil)

	_, err := c.CreateIntent(context.Background(), testRequest())
	require.ErrorIs(t, err, payment.ErrGatewayUnavailable)
}

func TestCreateIntent_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"entity":"order","status":"created"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateIntent(context.Background(), testRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing order id")
}
