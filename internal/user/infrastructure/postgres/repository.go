package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sajidhasan/bike-store-checkout/internal/user/domain"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
)

// Repository is a read-only view over the users table owned by the
// account system.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone,''), COALESCE(address,''), COALESCE(city,''), COALESCE(country,'')
		FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.City, &u.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, apperrors.NotFound("user not found")
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
