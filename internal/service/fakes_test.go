package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/port"
)

// memStore keeps carts and the ledger in memory. Its mutex plays the part of the
// active cart row lock and serialises every operation.
type memStore struct {
	mu sync.Mutex

	carts  map[uuid.UUID]*domain.Cart
	active map[string]uuid.UUID
	sales  []domain.Sale
	keys   map[domain.ActivationKey]bool

	// returned by InsertSale until cleared
	insertErr error
}

var (
	_ port.CartRepository     = (*memStore)(nil)
	_ port.CheckoutRepository = (*memStore)(nil)
	_ port.SaleRepository     = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		carts:  map[uuid.UUID]*domain.Cart{},
		active: map[string]uuid.UUID{},
		keys:   map[domain.ActivationKey]bool{},
	}
}

func (s *memStore) GetActiveCart(_ context.Context, ownerID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.activeCart(ownerID)
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cart, nil
}

func (s *memStore) AddItem(_ context.Context, ownerID string, item domain.CartItem) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.active[ownerID]
	if !ok {
		id = uuid.New()
		s.carts[id] = &domain.Cart{ID: id, OwnerID: ownerID, Status: domain.CartStatusActive, CreatedAt: time.Now()}
		s.active[ownerID] = id
	}

	cart := s.carts[id]
	i := slices.IndexFunc(cart.Items, func(it domain.CartItem) bool { return it.TitleID == item.TitleID })
	if i >= 0 {
		if cart.Items[i].Quantity+item.Quantity > domain.MaxQuantityPerTitle {
			return domain.Cart{}, domain.ErrInvalidQuantity
		}
		cart.Items[i].Quantity += item.Quantity
	} else {
		item.CreatedAt = time.Now()
		cart.Items = append(cart.Items, item)
	}

	c, _ := s.activeCart(ownerID)
	return c, nil
}

// plantItem writes an item straight into the owner's active cart, skipping AddItem's checks.
func (s *memStore) plantItem(ownerID string, item domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[s.active[ownerID]]
	cart.Items = append(cart.Items, item)
}

func (s *memStore) RemoveItem(_ context.Context, ownerID string, titleID int64) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.active[ownerID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}

	cart := s.carts[id]
	cart.Items = slices.DeleteFunc(cart.Items, func(it domain.CartItem) bool { return it.TitleID == titleID })

	c, _ := s.activeCart(ownerID)
	return c, nil
}

func (s *memStore) Retire(_ context.Context, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retire(cartID)
	return nil
}

func (s *memStore) WithActiveCart(ctx context.Context, ownerID string, fn func(ctx context.Context, tx port.CheckoutTx, cart domain.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.activeCart(ownerID)
	if !ok {
		return domain.ErrCartNotFound
	}

	tx := &memTx{store: s, keys: map[domain.ActivationKey]bool{}}
	if err := fn(ctx, tx, cart); err != nil {
		return err
	}

	// commit
	for k := range tx.keys {
		s.keys[k] = true
	}
	if tx.sale != nil {
		s.sales = append(s.sales, *tx.sale)
	}
	if tx.retired != uuid.Nil {
		s.retire(tx.retired)
	}

	return nil
}

func (s *memStore) GetSale(_ context.Context, saleID uuid.UUID) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sale := range s.sales {
		if sale.ID == saleID {
			return sale, nil
		}
	}
	return domain.Sale{}, fmt.Errorf("sale[%s]: %w", saleID, domain.ErrSaleNotFound)
}

func (s *memStore) FindByIdempotencyKey(_ context.Context, ownerID, key string) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sale := range s.sales {
		if sale.OwnerID == ownerID && sale.IdempotencyKey == key {
			return sale, nil
		}
	}
	return domain.Sale{}, domain.ErrSaleNotFound
}

func (s *memStore) ListSales(_ context.Context, ownerID string) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Sale
	for _, sale := range s.sales {
		if sale.OwnerID == ownerID {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *memStore) ListLibrary(_ context.Context, ownerID string) ([]domain.LibraryGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.LibraryGrant
	for _, sale := range s.sales {
		if sale.OwnerID == ownerID {
			out = append(out, sale.Grants()...)
		}
	}
	return out, nil
}

func (s *memStore) setInsertErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertErr = err
}

func (s *memStore) salesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *memStore) keysCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// callers hold mu
func (s *memStore) activeCart(ownerID string) (domain.Cart, bool) {
	id, ok := s.active[ownerID]
	if !ok {
		return domain.Cart{}, false
	}

	cart := *s.carts[id]
	cart.Items = slices.Clone(cart.Items)
	return cart, true
}

// callers hold mu
func (s *memStore) retire(cartID uuid.UUID) {
	cart, ok := s.carts[cartID]
	if !ok || cart.Status != domain.CartStatusActive {
		return
	}
	cart.Status = domain.CartStatusCheckedOut
	delete(s.active, cart.OwnerID)
}

type memTx struct {
	store   *memStore
	keys    map[domain.ActivationKey]bool
	sale    *domain.Sale
	retired uuid.UUID
}

func (tx *memTx) ReserveKey(_ context.Context, key domain.ActivationKey) (bool, error) {
	if tx.store.keys[key] || tx.keys[key] {
		return false, nil
	}
	tx.keys[key] = true
	return true, nil
}

func (tx *memTx) InsertSale(_ context.Context, sale domain.Sale) error {
	if tx.store.insertErr != nil {
		return tx.store.insertErr
	}
	tx.sale = &sale
	return nil
}

func (tx *memTx) RetireCart(_ context.Context, cartID uuid.UUID) error {
	cart, ok := tx.store.carts[cartID]
	if !ok || cart.Status != domain.CartStatusActive || tx.retired == cartID {
		return domain.ErrConcurrentRetirement
	}
	tx.retired = cartID
	return nil
}

type fakeCatalog struct {
	mu     sync.Mutex
	titles map[int64]domain.Title
	err    error
}

func (c *fakeCatalog) GetTitle(_ context.Context, titleID int64) (domain.Title, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return domain.Title{}, c.err
	}
	title, ok := c.titles[titleID]
	if !ok {
		return domain.Title{}, fmt.Errorf("title[%d]: %w", titleID, domain.ErrUnknownTitle)
	}
	return title, nil
}

func (c *fakeCatalog) remove(titleID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.titles, titleID)
}

type exhaustedIssuer struct{}

func (exhaustedIssuer) Issue(context.Context, port.KeyReserver) (domain.ActivationKey, error) {
	return "", domain.ErrKeySpaceExhausted
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
