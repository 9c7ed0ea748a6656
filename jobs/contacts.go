package jobs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileDirectory resolves owner contact addresses from the user_profiles
// table maintained by the external auth system.
type ProfileDirectory struct {
	pool *pgxpool.Pool
}

// NewProfileDirectory constructs a ProfileDirectory.
func NewProfileDirectory(pool *pgxpool.Pool) *ProfileDirectory {
	return &ProfileDirectory{pool: pool}
}

// EmailFor returns the notification address of an owner, or empty when the
// profile has none.
func (d *ProfileDirectory) EmailFor(ctx context.Context, ownerID string) (string, error) {
	var email string
	err := d.pool.QueryRow(ctx, `SELECT COALESCE(email, '') FROM user_profiles WHERE user_id=$1`, ownerID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return email, nil
}
