package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearly/storefront/internal/domain/address"
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// GetForUser returns the active address when owned by userID. Ownership
// mismatch is reported as ErrForbidden, not hidden behind ErrNotFound.
func (r *AddressRepository) GetForUser(ctx context.Context, id, userID string) (*address.Address, error) {
	var (
		a       address.Address
		ownerID string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, full_name, phone, line1, city, state, pin_code, country
		FROM addresses
		WHERE id = $1 AND is_active`, id).
		Scan(&a.ID, &ownerID, &a.FullName, &a.Phone, &a.Line1, &a.City, &a.State, &a.PinCode, &a.Country)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting address %q", id)
	}

	if ownerID != userID {
		return nil, address.ErrForbidden
	}
	return &a, nil
}
