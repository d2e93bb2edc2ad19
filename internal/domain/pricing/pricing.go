// Package pricing computes order totals from a cart snapshot.
//
// Quote is a pure function: no I/O, no clock, no state. The same snapshot
// always yields the same quote.
package pricing

import "github.com/shopspring/decimal"

// Business constants, in rupees.
var (
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(1000)

	// FlatShippingFee is charged on every order below the threshold.
	FlatShippingFee = decimal.NewFromInt(50)
)

// Item is one priced cart line.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Quote holds the computed amounts for a line-item set.
type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Compute returns the quote for the given items. The subtotal is the sum of
// unit price times quantity; orders with a subtotal below
// FreeShippingThreshold pay FlatShippingFee on top.
func Compute(items []Item) Quote {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	shipping := decimal.Zero
	if subtotal.LessThan(FreeShippingThreshold) {
		shipping = FlatShippingFee
	}

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}
