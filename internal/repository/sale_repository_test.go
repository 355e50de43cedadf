package repository_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/keygen"
	"github.com/nikolayk812/gamekeys/internal/metrics"
	"github.com/nikolayk812/gamekeys/internal/port"
	"github.com/nikolayk812/gamekeys/internal/repository"
	"github.com/nikolayk812/gamekeys/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/currency"
)

type saleRepositorySuite struct {
	suite.Suite

	pool     *pgxpool.Pool
	sales    port.SaleRepository
	catalog  port.TitleCatalog
	carts    port.CartRepository
	checkout *service.CheckoutService
}

func TestSaleRepositorySuite(t *testing.T) {
	suite.Run(t, new(saleRepositorySuite))
}

func (suite *saleRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	_, connStr, err := startPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	log := discardLogger()
	m := metrics.NewCheckoutMetrics(prometheus.NewRegistry())

	suite.sales = repository.NewSale(suite.pool)
	suite.catalog = repository.NewCatalog(suite.pool)
	suite.carts = repository.NewCart(suite.pool)
	suite.checkout = service.NewCheckoutService(log, repository.NewCheckout(suite.pool), suite.sales, suite.catalog,
		keygen.New(log, keygen.Config{}), m, time.Second)
}

func (suite *saleRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
}

func (suite *saleRepositorySuite) TearDownTest() {
	suite.NoError(truncateAll(suite.T().Context(), suite.pool))
}

func (suite *saleRepositorySuite) buy(ownerID string, titles ...domain.Title) domain.Sale {
	ctx := suite.T().Context()

	for _, title := range titles {
		_, err := suite.carts.AddItem(ctx, ownerID, domain.CartItem{TitleID: title.ID, Quantity: 1})
		suite.Require().NoError(err)
	}

	sale, err := suite.checkout.Checkout(ctx, ownerID, "")
	suite.Require().NoError(err)
	return sale
}

func (suite *saleRepositorySuite) TestGetTitle() {
	t := suite.T()
	ctx := t.Context()

	title, err := insertTitle(ctx, suite.pool, brl("59.99"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		titleID   int64
		wantErrIs error
	}{
		{name: "existing title: ok", titleID: title.ID},
		{name: "unknown title: error", titleID: title.ID + 1000, wantErrIs: domain.ErrUnknownTitle},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			got, err := suite.catalog.GetTitle(ctx, tt.titleID)
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, title.Name, got.Name)
			assert.Equal(t, title.Category, got.Category)
			assert.True(t, title.Price.Amount.Equal(got.Price.Amount))
			assert.Equal(t, currency.BRL, got.Price.Currency)
		})
	}
}

func (suite *saleRepositorySuite) TestGetSale() {
	t := suite.T()
	ctx := t.Context()

	title, err := insertTitle(ctx, suite.pool, brl("10.00"))
	require.NoError(t, err)

	sale := suite.buy(gofakeit.UUID(), title)

	got, err := suite.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assertSale(t, sale, got)

	_, err = suite.sales.GetSale(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func (suite *saleRepositorySuite) TestListSales() {
	t := suite.T()
	ctx := t.Context()

	a, err := insertTitle(ctx, suite.pool, brl("49.90"))
	require.NoError(t, err)
	b, err := insertTitle(ctx, suite.pool, brl("19.90"))
	require.NoError(t, err)

	ownerID := gofakeit.UUID()
	first := suite.buy(ownerID, a)
	second := suite.buy(ownerID, a, b)
	suite.buy(gofakeit.UUID(), b)

	sales, err := suite.sales.ListSales(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, sales, 2)

	// newest first
	assertSale(t, second, sales[0])
	assertSale(t, first, sales[1])

	none, err := suite.sales.ListSales(ctx, gofakeit.UUID())
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = suite.sales.ListSales(ctx, "")
	require.EqualError(t, err, "ownerID is empty")
}

func (suite *saleRepositorySuite) TestListLibrary() {
	t := suite.T()
	ctx := t.Context()

	a, err := insertTitle(ctx, suite.pool, brl("49.90"))
	require.NoError(t, err)
	b, err := insertTitle(ctx, suite.pool, brl("19.90"))
	require.NoError(t, err)

	ownerID := gofakeit.UUID()
	sale := suite.buy(ownerID, a, b)

	grants, err := suite.sales.ListLibrary(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, grants, 2)

	keys := map[domain.ActivationKey]int64{}
	for _, line := range sale.Lines {
		keys[line.ActivationKey] = line.TitleID
	}
	for _, g := range grants {
		assert.Equal(t, keys[g.ActivationKey], g.TitleID)
		assert.Equal(t, sale.ID, g.SaleID)
		assert.False(t, g.GrantedAt.IsZero())
	}
}
