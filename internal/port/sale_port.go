package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/gamekeys/internal/domain"
)

type SaleRepository interface {
	GetSale(ctx context.Context, saleID uuid.UUID) (domain.Sale, error)
	FindByIdempotencyKey(ctx context.Context, ownerID, key string) (domain.Sale, error)
	ListSales(ctx context.Context, ownerID string) ([]domain.Sale, error)
	ListLibrary(ctx context.Context, ownerID string) ([]domain.LibraryGrant, error)
}
