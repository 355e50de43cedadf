package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gamekeys/internal/db"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/port"
)

type catalogRepository struct {
	q *db.Queries
}

// NewCatalog reads titles maintained by the catalog admin, it never writes them.
func NewCatalog(pool *pgxpool.Pool) port.TitleCatalog {
	return &catalogRepository{q: db.New(pool)}
}

func (r *catalogRepository) GetTitle(ctx context.Context, titleID int64) (domain.Title, error) {
	row, err := r.q.GetTitle(ctx, titleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Title{}, fmt.Errorf("title[%d]: %w", titleID, domain.ErrUnknownTitle)
	}
	if err != nil {
		return domain.Title{}, fmt.Errorf("q.GetTitle: %w", err)
	}

	price, err := mapMoneyToDomain(row.PriceAmount, row.PriceCurrency)
	if err != nil {
		return domain.Title{}, fmt.Errorf("mapMoneyToDomain: %w", err)
	}

	return domain.Title{
		ID:       row.ID,
		Name:     row.Name,
		Category: row.Category,
		Price:    price,
	}, nil
}
