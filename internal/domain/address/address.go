// Package address holds the shipping address types used by checkout.
//
// Address book maintenance lives outside this service; checkout only needs an
// ownership-checked read, and orders carry their own copy of the address so
// later edits never alter history.
package address

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when the address does not exist.
	ErrNotFound = errors.New("address not found")
	// ErrForbidden is returned when the address belongs to another user.
	ErrForbidden = errors.New("address does not belong to user")
)

// Address is a shipping destination owned by one user.
type Address struct {
	ID       string `json:"addressId"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Line1    string `json:"addressLine"`
	City     string `json:"city"`
	State    string `json:"state"`
	PinCode  string `json:"pinCode"`
	Country  string `json:"country"`
}

// Repository defines the narrow read interface checkout depends on.
type Repository interface {
	// GetForUser returns the address only when it exists and is owned by
	// userID; otherwise ErrNotFound or ErrForbidden.
	GetForUser(ctx context.Context, id, userID string) (*Address, error)
}
