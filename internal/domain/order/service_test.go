package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearly/storefront/internal/domain/address"
	"github.com/wearly/storefront/internal/domain/cart"
)

// --- Mock implementations ---

type mockCartRepo struct {
	snapshot []cart.SnapshotLine
	err      error
}

func (m *mockCartRepo) Get(_ context.Context, _, _ string) (*cart.Line, error) { return nil, nil }
func (m *mockCartRepo) Upsert(_ context.Context, _ string, _ cart.Line) error  { return nil }
func (m *mockCartRepo) Delete(_ context.Context, _, _ string) error            { return nil }
func (m *mockCartRepo) Clear(_ context.Context, _ string) error                { return nil }

func (m *mockCartRepo) Snapshot(_ context.Context, _ string) ([]cart.SnapshotLine, error) {
	return m.snapshot, m.err
}

type mockAddressRepo struct {
	addr *address.Address
	err  error
}

func (m *mockAddressRepo) GetForUser(_ context.Context, _, _ string) (*address.Address, error) {
	return m.addr, m.err
}

type mockOrderRepo struct {
	lastOrder  *Order
	createErrs []error
	calls      int
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.calls++
	m.lastOrder = o
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return err
	}
	return nil
}

func (m *mockOrderRepo) GetForUser(_ context.Context, _, _ string) (*Order, error) {
	return m.lastOrder, nil
}

func (m *mockOrderRepo) ListForUser(_ context.Context, _ string) ([]Order, error) {
	if m.lastOrder == nil {
		return nil, nil
	}
	return []Order{*m.lastOrder}, nil
}

func (m *mockOrderRepo) SaveGatewayOrderID(_ context.Context, _, gatewayOrderID string) (string, error) {
	return gatewayOrderID, nil
}

func (m *mockOrderRepo) UpdatePayment(_ context.Context, _, _ string, _ func(*Order) (*PaymentUpdate, error)) (*Order, error) {
	return nil, nil
}

// --- Helpers ---

func snapshotLine(productID string, price string, qty int) cart.SnapshotLine {
	return cart.SnapshotLine{
		ProductID:   productID,
		ProductName: "Test " + productID,
		UnitPrice:   decimal.RequireFromString(price),
		Quantity:    qty,
	}
}

func testAddress() *address.Address {
	return &address.Address{
		ID:       "a1",
		FullName: "Test User",
		Line1:    "1 Test Street",
		City:     "Bengaluru",
		State:    "Karnataka",
		PinCode:  "560001",
		Country:  "India",
	}
}

func checkoutReq(method string) CheckoutRequest {
	return CheckoutRequest{AddressID: "a1", PaymentMethod: method}
}

// --- Tests ---

func TestCheckout_UnknownPaymentMethod(t *testing.T) {
	svc := NewService(&mockCartRepo{}, &mockAddressRepo{}, &mockOrderRepo{})

	_, err := svc.Checkout(context.Background(), "u1", checkoutReq("CHEQUE"))
	require.ErrorIs(t, err, ErrUnknownPaymentMethod)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := NewService(&mockCartRepo{}, &mockAddressRepo{addr: testAddress()}, &mockOrderRepo{})

	_, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_AddressNotOwned(t *testing.T) {
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{snapshotLine("p1", "600.00", 1)}}
	svc := NewService(carts, &mockAddressRepo{err: address.ErrForbidden}, &mockOrderRepo{})

	_, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))
	require.ErrorIs(t, err, address.ErrForbidden)
}

func TestCheckout_CODConfirmsImmediately(t *testing.T) {
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{snapshotLine("p1", "600.00", 2)}}
	orders := &mockOrderRepo{}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, orders)

	o, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, MethodCOD, o.PaymentMethod)
	assert.Same(t, o, orders.lastOrder)
}

func TestCheckout_OnlinePaymentStaysPending(t *testing.T) {
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{snapshotLine("p1", "600.00", 2)}}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, &mockOrderRepo{})

	o, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodRazorpay))

	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
}

func TestCheckout_TotalsAboveFreeShippingThreshold(t *testing.T) {
	// 600 x 2 = 1200: shipping is free at or above 1000.
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{snapshotLine("p1", "600.00", 2)}}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, &mockOrderRepo{})

	o, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1200.00").Equal(o.Subtotal))
	assert.True(t, decimal.Zero.Equal(o.ShippingFee))
	assert.True(t, decimal.RequireFromString("1200.00").Equal(o.TotalAmount))
}

func TestCheckout_TotalsBelowFreeShippingThreshold(t *testing.T) {
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{snapshotLine("p1", "499.00", 1)}}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, &mockOrderRepo{})

	o, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("499.00").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("50.00").Equal(o.ShippingFee))
	assert.True(t, decimal.RequireFromString("549.00").Equal(o.TotalAmount))
}

func TestCheckout_ItemsSnapshotProductState(t *testing.T) {
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{
		snapshotLine("p1", "600.00", 2),
		snapshotLine("p2", "250.00", 1),
	}}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, &mockOrderRepo{})

	o, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))

	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Test p1", o.Items[0].ProductName)
	assert.True(t, decimal.RequireFromString("1200.00").Equal(o.Items[0].TotalPrice))
	assert.NotEmpty(t, o.Items[0].ID)
	assert.Equal(t, "a1", o.ShippingAddress.ID)
}

func TestCheckout_RetriesOnceOnConflict(t *testing.T) {
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{snapshotLine("p1", "600.00", 1)}}
	orders := &mockOrderRepo{createErrs: []error{ErrConflict}}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, orders)

	_, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))

	require.NoError(t, err)
	assert.Equal(t, 2, orders.calls)
}

func TestCheckout_SecondConflictSurfaces(t *testing.T) {
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{snapshotLine("p1", "600.00", 1)}}
	orders := &mockOrderRepo{createErrs: []error{ErrConflict, ErrConflict}}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, orders)

	_, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))

	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, orders.calls)
}

func TestCheckout_InsufficientStockNotRetried(t *testing.T) {
	carts := &mockCartRepo{snapshot: []cart.SnapshotLine{snapshotLine("p1", "600.00", 1)}}
	stockErr := &cart.InsufficientStockError{ProductID: "p1", Available: 0}
	orders := &mockOrderRepo{createErrs: []error{stockErr}}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, orders)

	_, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))

	var isErr *cart.InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, 1, orders.calls)
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusFailed))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusFailed))
	assert.False(t, StatusFailed.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
}

func TestCheckout_SnapshotError(t *testing.T) {
	carts := &mockCartRepo{err: errors.New("db read failed")}
	svc := NewService(carts, &mockAddressRepo{addr: testAddress()}, &mockOrderRepo{})

	_, err := svc.Checkout(context.Background(), "u1", checkoutReq(MethodCOD))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot cart")
}
