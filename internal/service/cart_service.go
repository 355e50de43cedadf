package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/port"
)

type CartService struct {
	log           *slog.Logger
	carts         port.CartRepository
	catalog       port.TitleCatalog
	lookupTimeout time.Duration
}

func NewCartService(log *slog.Logger, carts port.CartRepository, catalog port.TitleCatalog, lookupTimeout time.Duration) *CartService {
	return &CartService{
		log:           log,
		carts:         carts,
		catalog:       catalog,
		lookupTimeout: lookupTimeout,
	}
}

// GetActiveCart returns domain.ErrCartNotFound for owners who never added an item
// or whose last cart was checked out.
func (s *CartService) GetActiveCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, domain.ErrUnauthenticated
	}

	cart, err := s.carts.GetActiveCart(ctx, ownerID)
	if err != nil {
		return domain.Cart{}, classify(err)
	}

	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, ownerID string, titleID int64, quantity int) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, domain.ErrUnauthenticated
	}
	if quantity < 1 || quantity > domain.MaxQuantityPerTitle {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	if _, err := lookupTitle(ctx, s.catalog, s.lookupTimeout, titleID); err != nil {
		return domain.Cart{}, classify(err)
	}

	cart, err := s.carts.AddItem(ctx, ownerID, domain.CartItem{TitleID: titleID, Quantity: quantity})
	if err != nil {
		err = classify(err)
		s.log.Error("add cart item failed", "owner_id", ownerID, "title_id", titleID, "err", err)
		return domain.Cart{}, err
	}

	s.log.Debug("cart item added", "owner_id", ownerID, "cart_id", cart.ID, "title_id", titleID, "quantity", quantity)
	return cart, nil
}

// RemoveItem keeps the cart active even when its last item goes.
func (s *CartService) RemoveItem(ctx context.Context, ownerID string, titleID int64) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, domain.ErrUnauthenticated
	}

	cart, err := s.carts.RemoveItem(ctx, ownerID, titleID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.RemoveItem: %w", classify(err))
	}

	return cart, nil
}
