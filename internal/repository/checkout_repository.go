package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gamekeys/internal/db"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/outbox"
	"github.com/nikolayk812/gamekeys/internal/port"
)

type checkoutRepository struct {
	pool *pgxpool.Pool
}

func NewCheckout(pool *pgxpool.Pool) port.CheckoutRepository {
	return &checkoutRepository{pool: pool}
}

func (r *checkoutRepository) WithActiveCart(
	ctx context.Context,
	ownerID string,
	fn func(ctx context.Context, tx port.CheckoutTx, cart domain.Cart) error,
) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	_, err := withTx(ctx, r.pool, func(q *db.Queries) (struct{}, error) {
		// a concurrent checkout holding the lock makes this wait, then see the cart retired
		dbCart, err := q.LockActiveCart(ctx, ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return struct{}{}, domain.ErrCartNotFound
		}
		if err != nil {
			return struct{}{}, fmt.Errorf("q.LockActiveCart: %w", err)
		}

		cart, err := loadCart(ctx, q, dbCart)
		if err != nil {
			return struct{}{}, fmt.Errorf("loadCart: %w", err)
		}

		return struct{}{}, fn(ctx, &checkoutTx{q: q}, cart)
	})

	return err
}

type checkoutTx struct {
	q *db.Queries
}

func (tx *checkoutTx) ReserveKey(ctx context.Context, key domain.ActivationKey) (bool, error) {
	rowsAffected, err := tx.q.ReserveActivationKey(ctx, key.String())
	if err != nil {
		return false, fmt.Errorf("q.ReserveActivationKey: %w", err)
	}

	return rowsAffected == 1, nil
}

func (tx *checkoutTx) InsertSale(ctx context.Context, sale domain.Sale) error {
	err := tx.q.InsertSale(ctx, db.InsertSaleParams{
		ID:             sale.ID,
		OwnerID:        sale.OwnerID,
		CartID:         sale.CartID,
		TotalAmount:    sale.Total.Amount,
		TotalCurrency:  sale.Total.Currency.String(),
		IdempotencyKey: pgtype.Text{String: sale.IdempotencyKey, Valid: sale.IdempotencyKey != ""},
		CreatedAt:      sale.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("q.InsertSale: %w", err)
	}

	for i, line := range sale.Lines {
		err := tx.q.InsertSaleLine(ctx, db.InsertSaleLineParams{
			SaleID:        sale.ID,
			LineNo:        int32(i + 1),
			TitleID:       line.TitleID,
			UnitAmount:    line.UnitPrice.Amount,
			UnitCurrency:  line.UnitPrice.Currency.String(),
			ActivationKey: line.ActivationKey.String(),
		})
		if err != nil {
			return fmt.Errorf("q.InsertSaleLine: %w", err)
		}
	}

	for _, grant := range sale.Grants() {
		err := tx.q.InsertLibraryGrant(ctx, db.InsertLibraryGrantParams{
			ActivationKey: grant.ActivationKey.String(),
			OwnerID:       grant.OwnerID,
			TitleID:       grant.TitleID,
			SaleID:        grant.SaleID,
			GrantedAt:     grant.GrantedAt,
		})
		if err != nil {
			return fmt.Errorf("q.InsertLibraryGrant: %w", err)
		}
	}

	event, err := outbox.NewSaleCommitted(sale)
	if err != nil {
		return fmt.Errorf("outbox.NewSaleCommitted: %w", err)
	}

	err = tx.q.InsertOutboxEvent(ctx, db.InsertOutboxEventParams{
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.Type,
		Payload:       event.Payload,
	})
	if err != nil {
		return fmt.Errorf("q.InsertOutboxEvent: %w", err)
	}

	return nil
}

func (tx *checkoutTx) RetireCart(ctx context.Context, cartID uuid.UUID) error {
	rowsAffected, err := tx.q.RetireCart(ctx, cartID)
	if err != nil {
		return fmt.Errorf("q.RetireCart: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrConcurrentRetirement
	}

	return nil
}
