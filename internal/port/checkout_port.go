package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/gamekeys/internal/domain"
)

type CheckoutRepository interface {
	// WithActiveCart locks the owner's active cart and calls fn inside one transaction.
	// Nothing fn writes through tx is visible unless fn returns nil and the commit succeeds.
	// Returns domain.ErrCartNotFound when the owner has no active cart.
	WithActiveCart(ctx context.Context, ownerID string, fn func(ctx context.Context, tx CheckoutTx, cart domain.Cart) error) error
}

type CheckoutTx interface {
	KeyReserver

	// InsertSale writes the sale header, its lines, the library grants and the sale.committed event.
	InsertSale(ctx context.Context, sale domain.Sale) error

	// RetireCart fails with domain.ErrConcurrentRetirement when the cart is no longer active.
	RetireCart(ctx context.Context, cartID uuid.UUID) error
}

type KeyReserver interface {
	// ReserveKey returns false when the key is already taken.
	ReserveKey(ctx context.Context, key domain.ActivationKey) (bool, error)
}
