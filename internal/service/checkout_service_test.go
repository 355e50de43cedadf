package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/keygen"
	"github.com/nikolayk812/gamekeys/internal/metrics"
	"github.com/nikolayk812/gamekeys/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

const (
	titleA int64 = 1
	titleB int64 = 2
)

type fixture struct {
	store    *memStore
	catalog  *fakeCatalog
	metrics  *metrics.CheckoutMetrics
	carts    *service.CartService
	checkout *service.CheckoutService
	library  *service.LibraryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := discardLogger()
	store := newMemStore()
	catalog := &fakeCatalog{titles: map[int64]domain.Title{
		titleA: {ID: titleA, Name: "Hollow Depths", Category: "RPG", Price: brl("49.90")},
		titleB: {ID: titleB, Name: "Pixel Kart", Category: "Racing", Price: brl("19.90")},
	}}
	m := metrics.NewCheckoutMetrics(prometheus.NewRegistry())
	keys := keygen.New(log, keygen.Config{Collisions: m.KeyCollisions, Exhausted: m.KeySpaceExhausted})

	return &fixture{
		store:    store,
		catalog:  catalog,
		metrics:  m,
		carts:    service.NewCartService(log, store, catalog, time.Second),
		checkout: service.NewCheckoutService(log, store, store, catalog, keys, m, time.Second),
		library:  service.NewLibraryService(log, store, catalog, time.Second),
	}
}

func (f *fixture) add(t *testing.T, ownerID string, titleID int64, quantity int) {
	t.Helper()

	_, err := f.carts.AddItem(t.Context(), ownerID, titleID, quantity)
	require.NoError(t, err)
}

func brl(amount string) domain.Money {
	return domain.Money{Amount: decimal.RequireFromString(amount), Currency: currency.BRL}
}

func TestCheckout_CommitsSale(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	owner := gofakeit.UUID()

	f.add(t, owner, titleA, 2)
	f.add(t, owner, titleB, 1)

	cart, err := f.carts.GetActiveCart(ctx, owner)
	require.NoError(t, err)

	sale, err := f.checkout.Checkout(ctx, owner, "")
	require.NoError(t, err)

	assert.Equal(t, owner, sale.OwnerID)
	assert.Equal(t, cart.ID, sale.CartID)
	assert.True(t, decimal.RequireFromString("119.70").Equal(sale.Total.Amount), sale.Total)
	assert.Equal(t, currency.BRL, sale.Total.Currency)

	require.Len(t, sale.Lines, 3)
	perTitle := map[int64]int{}
	seen := map[domain.ActivationKey]bool{}
	for _, line := range sale.Lines {
		perTitle[line.TitleID]++

		_, err := domain.ParseActivationKey(line.ActivationKey.String())
		require.NoError(t, err)
		assert.False(t, seen[line.ActivationKey], "duplicate key %s", line.ActivationKey)
		seen[line.ActivationKey] = true
	}
	assert.Equal(t, map[int64]int{titleA: 2, titleB: 1}, perTitle)

	_, err = f.carts.GetActiveCart(ctx, owner)
	require.ErrorIs(t, err, domain.ErrCartNotFound)

	entries, err := f.library.Library(ctx, owner)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, sale.ID, e.Grant.SaleID)
		assert.True(t, seen[e.Grant.ActivationKey])
		assert.NotEmpty(t, e.Title.Name)
	}

	assert.Equal(t, 3, f.store.keysCount())
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("committed")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(f.metrics.KeysIssued), 0)
}

func TestCheckout_NextAddOpensFreshCart(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	owner := gofakeit.UUID()

	f.add(t, owner, titleA, 1)
	first, err := f.checkout.Checkout(ctx, owner, "")
	require.NoError(t, err)

	cart, err := f.carts.AddItem(ctx, owner, titleB, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.CartID, cart.ID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, titleB, cart.Items[0].TitleID)
}

func TestCheckout_EmptyCart(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture, owner string)
	}{
		{
			name:  "never added: error",
			setup: func(*testing.T, *fixture, string) {},
		},
		{
			name: "last item removed: error",
			setup: func(t *testing.T, f *fixture, owner string) {
				f.add(t, owner, titleA, 1)
				_, err := f.carts.RemoveItem(t.Context(), owner, titleA)
				require.NoError(t, err)
			},
		},
		{
			name: "already checked out: error",
			setup: func(t *testing.T, f *fixture, owner string) {
				f.add(t, owner, titleA, 1)
				_, err := f.checkout.Checkout(t.Context(), owner, "")
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			owner := gofakeit.UUID()
			tt.setup(t, f, owner)
			before := f.store.salesCount()

			_, err := f.checkout.Checkout(t.Context(), owner, "")
			require.ErrorIs(t, err, domain.ErrEmptyCart)
			assert.Equal(t, before, f.store.salesCount())
		})
	}
}

func TestCheckout_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkout.Checkout(t.Context(), "", "")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("unauthenticated")), 0)
}

func TestCheckout_UnknownTitleLeavesCartUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	owner := gofakeit.UUID()

	f.add(t, owner, titleA, 1)
	f.add(t, owner, titleB, 2)
	before, err := f.carts.GetActiveCart(ctx, owner)
	require.NoError(t, err)

	f.catalog.remove(titleB)

	_, err = f.checkout.Checkout(ctx, owner, "")
	require.ErrorIs(t, err, domain.ErrUnknownTitle)

	after, err := f.carts.GetActiveCart(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Zero(t, f.store.salesCount())
	assert.Zero(t, f.store.keysCount())
}

func TestCheckout_StorageFaultThenRetry(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	owner := gofakeit.UUID()

	f.add(t, owner, titleA, 2)
	f.store.setInsertErr(errors.New("connection reset by peer"))

	_, err := f.checkout.Checkout(ctx, owner, "")
	require.ErrorIs(t, err, domain.ErrStorageFault)

	cart, err := f.carts.GetActiveCart(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Units())
	assert.Zero(t, f.store.salesCount())
	assert.Zero(t, f.store.keysCount())

	f.store.setInsertErr(nil)

	sale, err := f.checkout.Checkout(ctx, owner, "")
	require.NoError(t, err)
	assert.Len(t, sale.Lines, 2)
	assert.Equal(t, 1, f.store.salesCount())
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("storage_fault")), 0)
}

func TestCheckout_CatalogTimeoutIsStorageFault(t *testing.T) {
	f := newFixture(t)
	owner := gofakeit.UUID()

	f.add(t, owner, titleA, 1)
	f.catalog.err = context.DeadlineExceeded

	_, err := f.checkout.Checkout(t.Context(), owner, "")
	require.ErrorIs(t, err, domain.ErrStorageFault)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCheckout_KeySpaceExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	owner := gofakeit.UUID()

	f.add(t, owner, titleA, 1)

	checkout := service.NewCheckoutService(discardLogger(), f.store, f.store, f.catalog, exhaustedIssuer{}, f.metrics, time.Second)
	_, err := checkout.Checkout(ctx, owner, "")
	require.ErrorIs(t, err, domain.ErrKeySpaceExhausted)

	_, err = f.carts.GetActiveCart(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, f.store.salesCount())
}

func TestCheckout_MaximumQuantity(t *testing.T) {
	f := newFixture(t)
	owner := gofakeit.UUID()

	f.add(t, owner, titleB, domain.MaxQuantityPerTitle)

	sale, err := f.checkout.Checkout(t.Context(), owner, "")
	require.NoError(t, err)

	require.Len(t, sale.Lines, domain.MaxQuantityPerTitle)
	assert.True(t, decimal.RequireFromString("1970.10").Equal(sale.Total.Amount), sale.Total)
	assert.Equal(t, domain.MaxQuantityPerTitle, f.store.keysCount())
}

func TestCheckout_OversizedStoredQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{name: "just above maximum", quantity: domain.MaxQuantityPerTitle + 1},
		{name: "beyond int32", quantity: 4294967297},
		{name: "negative", quantity: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := t.Context()
			owner := gofakeit.UUID()

			f.add(t, owner, titleA, 1)
			f.store.plantItem(owner, domain.CartItem{TitleID: titleB, Quantity: tt.quantity})

			require.NotPanics(t, func() {
				_, err := f.checkout.Checkout(ctx, owner, "")
				require.ErrorIs(t, err, domain.ErrInvalidQuantity)
			})

			_, err := f.carts.GetActiveCart(ctx, owner)
			require.NoError(t, err)
			assert.Zero(t, f.store.salesCount())
			assert.Zero(t, f.store.keysCount())
			assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("invalid_quantity")), 0)
		})
	}
}

func TestCheckout_ConcurrentProducesOneSale(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	owner := gofakeit.UUID()

	f.add(t, owner, titleA, 2)
	f.add(t, owner, titleB, 1)

	const workers = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		empty     int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.checkout.Checkout(ctx, owner, "")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrEmptyCart):
				empty++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, empty)
	assert.Equal(t, 1, f.store.salesCount())
	assert.Equal(t, 3, f.store.keysCount())
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	owner := gofakeit.UUID()
	idemKey := gofakeit.UUID()

	f.add(t, owner, titleA, 1)

	first, err := f.checkout.Checkout(ctx, owner, idemKey)
	require.NoError(t, err)

	// a new cart must not be charged under the same key
	f.add(t, owner, titleB, 1)

	second, err := f.checkout.Checkout(ctx, owner, idemKey)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.store.salesCount())

	_, err = f.carts.GetActiveCart(ctx, owner)
	require.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("replayed")), 0)

	// a different owner's identical key is unrelated
	other := gofakeit.UUID()
	f.add(t, other, titleB, 1)
	third, err := f.checkout.Checkout(ctx, other, idemKey)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestCheckout_ConcurrentSameIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	owner := gofakeit.UUID()
	idemKey := gofakeit.UUID()

	f.add(t, owner, titleA, 1)

	const workers = 5

	var wg sync.WaitGroup
	results := make([]domain.Sale, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.checkout.Checkout(ctx, owner, idemKey)
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}
	assert.Equal(t, 1, f.store.salesCount())
}
