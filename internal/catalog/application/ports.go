package application

import (
	"context"

	"github.com/sajidhasan/bike-store-checkout/internal/catalog/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, id string, upd domain.Update) (domain.Product, error)
	SoftDelete(ctx context.Context, id string) (domain.Product, error)

	// Deduct atomically validates and applies an inventory deduction
	// under the catalog-management rules (domain.ValidateDeduction).
	Deduct(ctx context.Context, id string, quantity int) (domain.Product, error)
}
