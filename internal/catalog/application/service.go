package application

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sajidhasan/bike-store-checkout/internal/catalog/domain"
	"github.com/sajidhasan/bike-store-checkout/pkg/apperrors"
)

// Service implements catalog management: product CRUD plus the
// inventory update path used independently of order placement.
type Service struct {
	log  *slog.Logger
	repo ProductRepository
}

func NewService(log *slog.Logger, repo ProductRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.Name == "" {
		return domain.Product{}, apperrors.BadRequest("product name is required")
	}
	if p.PriceCents <= 0 {
		return domain.Product{}, apperrors.BadRequest("product price must be positive")
	}
	if p.Quantity < 0 {
		return domain.Product{}, apperrors.BadRequest("product quantity must not be negative")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.InStock = p.Quantity > 0

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product created", "product_id", created.ID, "quantity", created.Quantity)
	return created, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

// UpdateProduct overwrites the supplied fields. When the update touches
// quantity the in-stock flag is recomputed by the repository so the
// derived invariant holds.
func (s *Service) UpdateProduct(ctx context.Context, id string, upd domain.Update) (domain.Product, error) {
	if upd.PriceCents != nil && *upd.PriceCents <= 0 {
		return domain.Product{}, apperrors.BadRequest("product price must be positive")
	}
	if upd.Quantity != nil && *upd.Quantity < 0 {
		return domain.Product{}, apperrors.BadRequest("product quantity must not be negative")
	}
	if upd.Rating != nil && (*upd.Rating < 0 || *upd.Rating > 5) {
		return domain.Product{}, apperrors.BadRequest("rating must be between 0 and 5")
	}
	return s.repo.Update(ctx, id, upd)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product soft-deleted", "product_id", id)
	return p, nil
}

// AdjustInventory deducts quantity units from a product outside of any
// order. Validation happens inside the repository transaction so a
// concurrent placement cannot slip between check and write.
func (s *Service) AdjustInventory(ctx context.Context, id string, quantity int) (domain.Product, error) {
	p, err := s.repo.Deduct(ctx, id, quantity)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("inventory adjusted", "product_id", id, "deducted", quantity, "remaining", p.Quantity)
	return p, nil
}
