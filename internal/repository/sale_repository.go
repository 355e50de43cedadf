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
	"github.com/nikolayk812/gamekeys/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type saleRepository struct {
	q *db.Queries
}

func NewSale(pool *pgxpool.Pool) port.SaleRepository {
	return &saleRepository{q: db.New(pool)}
}

func (r *saleRepository) GetSale(ctx context.Context, saleID uuid.UUID) (domain.Sale, error) {
	dbSale, err := r.q.GetSale(ctx, saleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Sale{}, domain.ErrSaleNotFound
	}
	if err != nil {
		return domain.Sale{}, fmt.Errorf("q.GetSale: %w", err)
	}

	sales, err := r.withLines(ctx, []db.Sale{dbSale})
	if err != nil {
		return domain.Sale{}, fmt.Errorf("withLines: %w", err)
	}

	return sales[0], nil
}

func (r *saleRepository) FindByIdempotencyKey(ctx context.Context, ownerID, key string) (domain.Sale, error) {
	if ownerID == "" {
		return domain.Sale{}, fmt.Errorf("ownerID is empty")
	}
	if key == "" {
		return domain.Sale{}, fmt.Errorf("key is empty")
	}

	dbSale, err := r.q.GetSaleByIdempotencyKey(ctx, db.GetSaleByIdempotencyKeyParams{
		OwnerID:        ownerID,
		IdempotencyKey: pgtype.Text{String: key, Valid: true},
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Sale{}, domain.ErrSaleNotFound
	}
	if err != nil {
		return domain.Sale{}, fmt.Errorf("q.GetSaleByIdempotencyKey: %w", err)
	}

	sales, err := r.withLines(ctx, []db.Sale{dbSale})
	if err != nil {
		return domain.Sale{}, fmt.Errorf("withLines: %w", err)
	}

	return sales[0], nil
}

func (r *saleRepository) ListSales(ctx context.Context, ownerID string) ([]domain.Sale, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("ownerID is empty")
	}

	dbSales, err := r.q.ListSalesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("q.ListSalesByOwner: %w", err)
	}

	return r.withLines(ctx, dbSales)
}

func (r *saleRepository) ListLibrary(ctx context.Context, ownerID string) ([]domain.LibraryGrant, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("ownerID is empty")
	}

	rows, err := r.q.ListLibraryByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("q.ListLibraryByOwner: %w", err)
	}

	grants := make([]domain.LibraryGrant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, domain.LibraryGrant{
			OwnerID:       row.OwnerID,
			TitleID:       row.TitleID,
			ActivationKey: domain.ActivationKey(row.ActivationKey),
			SaleID:        row.SaleID,
			GrantedAt:     row.GrantedAt,
		})
	}

	return grants, nil
}

func (r *saleRepository) withLines(ctx context.Context, dbSales []db.Sale) ([]domain.Sale, error) {
	if len(dbSales) == 0 {
		return []domain.Sale{}, nil
	}

	ids := make([]uuid.UUID, 0, len(dbSales))
	for _, s := range dbSales {
		ids = append(ids, s.ID)
	}

	dbLines, err := r.q.ListSaleLines(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("q.ListSaleLines: %w", err)
	}

	linesBySale := make(map[uuid.UUID][]domain.SaleLine, len(dbSales))
	for _, row := range dbLines {
		line, err := mapSaleLineToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapSaleLineToDomain: %w", err)
		}
		linesBySale[row.SaleID] = append(linesBySale[row.SaleID], line)
	}

	sales := make([]domain.Sale, 0, len(dbSales))
	for _, s := range dbSales {
		total, err := mapMoneyToDomain(s.TotalAmount, s.TotalCurrency)
		if err != nil {
			return nil, fmt.Errorf("mapMoneyToDomain: %w", err)
		}

		sales = append(sales, domain.Sale{
			ID:             s.ID,
			OwnerID:        s.OwnerID,
			CartID:         s.CartID,
			Total:          total,
			IdempotencyKey: s.IdempotencyKey.String,
			Lines:          linesBySale[s.ID],
			CreatedAt:      s.CreatedAt,
		})
	}

	return sales, nil
}

func mapSaleLineToDomain(row db.SaleLine) (domain.SaleLine, error) {
	price, err := mapMoneyToDomain(row.UnitAmount, row.UnitCurrency)
	if err != nil {
		return domain.SaleLine{}, err
	}

	return domain.SaleLine{
		TitleID:       row.TitleID,
		UnitPrice:     price,
		ActivationKey: domain.ActivationKey(row.ActivationKey),
	}, nil
}

func mapMoneyToDomain(amount decimal.Decimal, code string) (domain.Money, error) {
	parsedCurrency, err := currency.ParseISO(code)
	if err != nil {
		return domain.Money{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}

	return domain.Money{Amount: amount, Currency: parsedCurrency}, nil
}
