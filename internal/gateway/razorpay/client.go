// Package razorpay is the HTTP client for the Razorpay orders API, used as
// the remote payment intent provider.
package razorpay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/wearly/storefront/internal/domain/payment"
)

// DefaultBaseURL is the production Razorpay API endpoint.
const DefaultBaseURL = "https://api.razorpay.com"

// Config holds the gateway credentials and connection settings.
type Config struct {
	// BaseURL overrides the API endpoint; empty means DefaultBaseURL.
	BaseURL string
	// KeyID and KeySecret authenticate every request via HTTP basic auth.
	KeyID     string
	KeySecret string
	// Timeout bounds each outbound call. Zero means 10s.
	Timeout time.Duration
}

// Client implements payment.Gateway against the Razorpay orders endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ payment.Gateway = (*Client)(nil)

// NewClient creates a Client. transport may be nil; pass an instrumented
// round tripper to trace outbound gateway calls.
func NewClient(cfg Config, transport http.RoundTripper) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// CreateIntent creates a Razorpay order for the given amount and returns its
// id. Network failures, timeouts, and gateway 5xx responses surface as
// payment.ErrGatewayUnavailable; the caller decides whether to retry.
func (c *Client) CreateIntent(ctx context.Context, req payment.IntentRequest) (string, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("amount")
	e.Int64(req.AmountPaise)
	e.FieldStart("currency")
	e.Str(req.Currency)
	e.FieldStart("receipt")
	e.Str(req.Receipt)
	e.FieldStart("payment_capture")
	e.Int(1)
	e.ObjEnd()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(e.Bytes()))
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(payment.ErrGatewayUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(payment.ErrGatewayUnavailable, "read response")
	}

	switch {
	case resp.StatusCode >= 500:
		return "", errors.Wrapf(payment.ErrGatewayUnavailable, "gateway status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", errors.Errorf("gateway rejected intent: status %d, description %q", resp.StatusCode, errorDescription(body))
	}

	id, err := intentID(body)
	if err != nil {
		return "", errors.Wrap(err, "decode intent response")
	}
	if id == "" {
		return "", errors.New("gateway response missing order id")
	}
	return id, nil
}

// intentID extracts the "id" field from a gateway order response.
func intentID(body []byte) (string, error) {
	var id string
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		id = v
		return nil
	}); err != nil {
		return "", err
	}
	return id, nil
}

// errorDescription extracts error.description from a gateway error payload,
// best effort.
func errorDescription(body []byte) string {
	var desc string
	d := jx.DecodeBytes(body)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "error" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "description" {
				return d.Skip()
			}
			v, err := d.Str()
			if err != nil {
				return err
			}
			desc = v
			return nil
		})
	})
	return desc
}
