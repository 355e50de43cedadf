package repository_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/text/currency"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			"../migrations/01_carts.up.sql",
			"../migrations/02_titles.up.sql",
			"../migrations/03_sales.up.sql",
			"../migrations/04_outbox.up.sql"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return postgresContainer, connStr, nil
}

func truncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE TABLE library_grants, sale_lines, sales, activation_keys,
		cart_items, carts, titles, outbox RESTART IDENTITY CASCADE`)
	return err
}

func insertTitle(ctx context.Context, pool *pgxpool.Pool, price domain.Money) (domain.Title, error) {
	title := domain.Title{
		Name:     gofakeit.Name(),
		Category: gofakeit.RandomString([]string{"RPG", "Racing", "Puzzle", "Strategy"}),
		Price:    price,
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO titles (name, category, price_amount, price_currency) VALUES ($1, $2, $3, $4) RETURNING id`,
		title.Name, title.Category, price.Amount, price.Currency.String(),
	).Scan(&title.ID)
	if err != nil {
		return domain.Title{}, fmt.Errorf("insert title: %w", err)
	}

	return title, nil
}

func countRows(ctx context.Context, pool *pgxpool.Pool, table string) (int, error) {
	var n int
	err := pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n)
	return n, err
}

func brl(amount string) domain.Money {
	return domain.Money{Amount: decimal.RequireFromString(amount), Currency: currency.BRL}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var domainCmpOpts = cmp.Options{
	cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	}),
	cmpopts.EquateApproxTime(0),
	cmpopts.EquateEmpty(),
}

func assertSale(t *testing.T, expected, actual domain.Sale) {
	t.Helper()

	diff := cmp.Diff(expected, actual, domainCmpOpts)
	assert.Empty(t, diff)
}

func requireCount(t *testing.T, pool *pgxpool.Pool, table string, want int) {
	t.Helper()

	n, err := countRows(t.Context(), pool, table)
	require.NoError(t, err)
	assert.Equal(t, want, n, table)
}
