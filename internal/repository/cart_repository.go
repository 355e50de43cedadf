package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gamekeys/internal/db"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/port"
)

// a concurrent checkout may retire the cart between ensure and lock
const lockAttempts = 3

type cartRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func (r *cartRepository) GetActiveCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	dbCart, err := r.q.GetActiveCart(ctx, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetActiveCart: %w", err)
	}

	return loadCart(ctx, r.q, dbCart)
}

func (r *cartRepository) AddItem(ctx context.Context, ownerID string, item domain.CartItem) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}
	if item.Quantity < 1 || item.Quantity > domain.MaxQuantityPerTitle {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	return withTx(ctx, r.pool, func(q *db.Queries) (domain.Cart, error) {
		dbCart, err := lockOrCreateActiveCart(ctx, q, ownerID)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("lockOrCreateActiveCart: %w", err)
		}

		rowsAffected, err := q.UpsertCartItem(ctx, db.UpsertCartItemParams{
			CartID:      dbCart.ID,
			TitleID:     item.TitleID,
			Quantity:    int32(item.Quantity),
			MaxQuantity: domain.MaxQuantityPerTitle,
		})
		if err != nil {
			return domain.Cart{}, fmt.Errorf("q.UpsertCartItem: %w", err)
		}
		if rowsAffected == 0 {
			return domain.Cart{}, fmt.Errorf("title[%d] would exceed %d units: %w",
				item.TitleID, domain.MaxQuantityPerTitle, domain.ErrInvalidQuantity)
		}

		if err := q.TouchCart(ctx, dbCart.ID); err != nil {
			return domain.Cart{}, fmt.Errorf("q.TouchCart: %w", err)
		}

		return loadCart(ctx, q, dbCart)
	})
}

func (r *cartRepository) RemoveItem(ctx context.Context, ownerID string, titleID int64) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	return withTx(ctx, r.pool, func(q *db.Queries) (domain.Cart, error) {
		dbCart, err := q.LockActiveCart(ctx, ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		if err != nil {
			return domain.Cart{}, fmt.Errorf("q.LockActiveCart: %w", err)
		}

		rowsAffected, err := q.DeleteCartItem(ctx, db.DeleteCartItemParams{
			CartID:  dbCart.ID,
			TitleID: titleID,
		})
		if err != nil {
			return domain.Cart{}, fmt.Errorf("q.DeleteCartItem: %w", err)
		}

		if rowsAffected > 0 {
			if err := q.TouchCart(ctx, dbCart.ID); err != nil {
				return domain.Cart{}, fmt.Errorf("q.TouchCart: %w", err)
			}
		}

		return loadCart(ctx, q, dbCart)
	})
}

// Retire is a no-op for carts that are already checked out.
func (r *cartRepository) Retire(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.q.RetireCart(ctx, cartID); err != nil {
		return fmt.Errorf("q.RetireCart: %w", err)
	}

	return nil
}

func lockOrCreateActiveCart(ctx context.Context, q *db.Queries, ownerID string) (db.Cart, error) {
	for range lockAttempts {
		err := q.EnsureActiveCart(ctx, db.EnsureActiveCartParams{
			ID:      uuid.New(),
			OwnerID: ownerID,
		})
		if err != nil {
			return db.Cart{}, fmt.Errorf("q.EnsureActiveCart: %w", err)
		}

		dbCart, err := q.LockActiveCart(ctx, ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return db.Cart{}, fmt.Errorf("q.LockActiveCart: %w", err)
		}

		return dbCart, nil
	}

	return db.Cart{}, fmt.Errorf("active cart of owner[%s] was retired %d times in a row", ownerID, lockAttempts)
}

func loadCart(ctx context.Context, q *db.Queries, dbCart db.Cart) (domain.Cart, error) {
	rows, err := q.GetCartItems(ctx, dbCart.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetCartItems: %w", err)
	}

	return domain.Cart{
		ID:        dbCart.ID,
		OwnerID:   dbCart.OwnerID,
		Status:    domain.CartStatus(dbCart.Status),
		Items:     mapGetCartItemsRowsToDomain(rows),
		CreatedAt: dbCart.CreatedAt,
		UpdatedAt: dbCart.UpdatedAt,
	}, nil
}

func mapGetCartItemsRowsToDomain(rows []db.GetCartItemsRow) []domain.CartItem {
	items := make([]domain.CartItem, 0, len(rows))

	for _, row := range rows {
		items = append(items, domain.CartItem{
			TitleID:   row.TitleID,
			Quantity:  int(row.Quantity),
			CreatedAt: row.CreatedAt,
		})
	}

	return items
}
