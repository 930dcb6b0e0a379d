package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sajidhasan/bike-store-checkout/internal/catalog/domain"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
)

const productColumns = `id, name, brand, description, type, image_url, rating, price_cents, quantity, in_stock, is_deleted, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,false,$11,$12)`,
		p.ID, p.Name, p.Brand, p.Description, p.Type, p.ImageURL, p.Rating,
		p.PriceCents, p.Quantity, p.InStock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Product{}, apperrors.BadRequest("product with id %s already exists", p.ID)
		}
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id=$1 AND NOT is_deleted`, id)
	return scanProduct(row)
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products WHERE NOT is_deleted ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id string, upd domain.Update) (domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id=$1 AND NOT is_deleted FOR UPDATE`, id)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, err
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Brand != nil {
		p.Brand = *upd.Brand
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Type != nil {
		p.Type = *upd.Type
	}
	if upd.ImageURL != nil {
		p.ImageURL = *upd.ImageURL
	}
	if upd.Rating != nil {
		p.Rating = *upd.Rating
	}
	if upd.PriceCents != nil {
		p.PriceCents = *upd.PriceCents
	}
	if upd.Quantity != nil {
		p.Quantity = *upd.Quantity
		p.InStock = p.Quantity > 0
	}
	if upd.InStock != nil {
		p.InStock = *upd.InStock
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		UPDATE products
		SET name=$2, brand=$3, description=$4, type=$5, image_url=$6, rating=$7,
		    price_cents=$8, quantity=$9, in_stock=$10, updated_at=$11
		WHERE id=$1`,
		p.ID, p.Name, p.Brand, p.Description, p.Type, p.ImageURL, p.Rating,
		p.PriceCents, p.Quantity, p.InStock, p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) SoftDelete(ctx context.Context, id string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products SET is_deleted=true, updated_at=$2
		WHERE id=$1 AND NOT is_deleted
		RETURNING `+productColumns, id, time.Now().UTC())
	return scanProduct(row)
}

// Deduct validates and applies an inventory deduction in one
// transaction; the row lock keeps a concurrent placement from reading
// the pre-deduction quantity.
func (r *Repository) Deduct(ctx context.Context, id string, quantity int) (domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id=$1 AND NOT is_deleted FOR UPDATE`, id)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, err
	}

	if err := domain.ValidateDeduction(p, quantity); err != nil {
		return domain.Product{}, err
	}
	p = domain.Deduct(p, quantity)
	p.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		UPDATE products SET quantity=$2, in_stock=$3, updated_at=$4 WHERE id=$1`,
		p.ID, p.Quantity, p.InStock, p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Description, &p.Type, &p.ImageURL,
		&p.Rating, &p.PriceCents, &p.Quantity, &p.InStock, &p.IsDeleted,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, apperrors.NotFound("product not found")
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
