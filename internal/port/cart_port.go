package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/gamekeys/internal/domain"
)

type CartRepository interface {
	GetActiveCart(ctx context.Context, ownerID string) (domain.Cart, error)
	AddItem(ctx context.Context, ownerID string, item domain.CartItem) (domain.Cart, error)
	RemoveItem(ctx context.Context, ownerID string, titleID int64) (domain.Cart, error)
	Retire(ctx context.Context, cartID uuid.UUID) error
}
