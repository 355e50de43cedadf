package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/metrics"
	"github.com/nikolayk812/gamekeys/internal/port"
)

type KeyIssuer interface {
	Issue(ctx context.Context, reserver port.KeyReserver) (domain.ActivationKey, error)
}

// CheckoutService turns the owner's active cart into a sale and library grants.
//
// A checkout moves Pending -> Reserved -> Committed, or Aborted on any error.
// Everything happens inside one transaction that holds the active cart row
// lock, so an abort leaves the cart active and untouched and the caller may
// retry. The service never retries by itself.
type CheckoutService struct {
	log           *slog.Logger
	checkouts     port.CheckoutRepository
	sales         port.SaleRepository
	catalog       port.TitleCatalog
	keys          KeyIssuer
	metrics       *metrics.CheckoutMetrics
	lookupTimeout time.Duration
	now           func() time.Time
}

func NewCheckoutService(
	log *slog.Logger,
	checkouts port.CheckoutRepository,
	sales port.SaleRepository,
	catalog port.TitleCatalog,
	keys KeyIssuer,
	m *metrics.CheckoutMetrics,
	lookupTimeout time.Duration,
) *CheckoutService {
	return &CheckoutService{
		log:           log,
		checkouts:     checkouts,
		sales:         sales,
		catalog:       catalog,
		keys:          keys,
		metrics:       m,
		lookupTimeout: lookupTimeout,
		now:           time.Now,
	}
}

// Checkout commits the owner's active cart. With a non-empty idempotencyKey a sale
// already committed under the same key is returned instead of charging again.
func (s *CheckoutService) Checkout(ctx context.Context, ownerID, idempotencyKey string) (domain.Sale, error) {
	if ownerID == "" {
		s.observe(domain.ErrUnauthenticated)
		return domain.Sale{}, domain.ErrUnauthenticated
	}

	if idempotencyKey != "" {
		prior, found, err := s.replay(ctx, ownerID, idempotencyKey)
		if err != nil {
			err = classify(err)
			s.observe(err)
			return domain.Sale{}, err
		}
		if found {
			s.metrics.Checkouts.WithLabelValues("replayed").Inc()
			s.log.Info("checkout replayed", "owner_id", ownerID, "sale_id", prior.ID)
			return prior, nil
		}
	}

	sale, err := s.commit(ctx, ownerID, idempotencyKey)
	err = classify(err)

	if errors.Is(err, domain.ErrEmptyCart) && idempotencyKey != "" {
		// a request with the same key may have committed while this one waited on the cart lock
		if prior, found, replayErr := s.replay(ctx, ownerID, idempotencyKey); replayErr == nil && found {
			s.metrics.Checkouts.WithLabelValues("replayed").Inc()
			return prior, nil
		}
	}

	s.observe(err)
	if err != nil {
		s.logAbort(ownerID, err)
		return domain.Sale{}, err
	}

	s.metrics.KeysIssued.Add(float64(len(sale.Lines)))
	s.log.Info("checkout committed",
		"owner_id", ownerID,
		"sale_id", sale.ID,
		"cart_id", sale.CartID,
		"lines", len(sale.Lines),
		"total", sale.Total.String(),
	)

	return sale, nil
}

func (s *CheckoutService) commit(ctx context.Context, ownerID, idempotencyKey string) (domain.Sale, error) {
	var committed domain.Sale

	err := s.checkouts.WithActiveCart(ctx, ownerID, func(ctx context.Context, tx port.CheckoutTx, cart domain.Cart) error {
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		sale, err := s.reserve(ctx, tx, cart)
		if err != nil {
			return err
		}
		sale.IdempotencyKey = idempotencyKey

		if err := tx.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("tx.InsertSale: %w", err)
		}

		if err := tx.RetireCart(ctx, cart.ID); err != nil {
			return fmt.Errorf("tx.RetireCart: %w", err)
		}

		committed = sale
		return nil
	})
	if errors.Is(err, domain.ErrCartNotFound) {
		return domain.Sale{}, domain.ErrEmptyCart
	}
	if err != nil {
		return domain.Sale{}, err
	}

	return committed, nil
}

// reserve prices every item and issues one key per unit. Keys reserved here only
// become durable if the surrounding transaction commits.
func (s *CheckoutService) reserve(ctx context.Context, tx port.CheckoutTx, cart domain.Cart) (domain.Sale, error) {
	for _, item := range cart.Items {
		if item.Quantity < 1 || item.Quantity > domain.MaxQuantityPerTitle {
			return domain.Sale{}, fmt.Errorf("title[%d] quantity %d: %w", item.TitleID, item.Quantity, domain.ErrInvalidQuantity)
		}
	}

	lines := make([]domain.SaleLine, 0, cart.Units())

	for _, item := range cart.Items {
		title, err := lookupTitle(ctx, s.catalog, s.lookupTimeout, item.TitleID)
		if err != nil {
			return domain.Sale{}, err
		}

		for range item.Quantity {
			key, err := s.keys.Issue(ctx, tx)
			if err != nil {
				return domain.Sale{}, fmt.Errorf("keys.Issue: %w", err)
			}

			lines = append(lines, domain.SaleLine{
				TitleID:       item.TitleID,
				UnitPrice:     title.Price,
				ActivationKey: key,
			})
		}
	}

	total := domain.ZeroMoney(lines[0].UnitPrice.Currency)
	for _, line := range lines {
		var err error
		if total, err = total.Add(line.UnitPrice); err != nil {
			return domain.Sale{}, fmt.Errorf("total.Add: %w", err)
		}
	}

	return domain.Sale{
		ID:        uuid.New(),
		OwnerID:   cart.OwnerID,
		CartID:    cart.ID,
		Total:     total,
		Lines:     lines,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}, nil
}

func (s *CheckoutService) replay(ctx context.Context, ownerID, idempotencyKey string) (domain.Sale, bool, error) {
	sale, err := s.sales.FindByIdempotencyKey(ctx, ownerID, idempotencyKey)
	if errors.Is(err, domain.ErrSaleNotFound) {
		return domain.Sale{}, false, nil
	}
	if err != nil {
		return domain.Sale{}, false, fmt.Errorf("sales.FindByIdempotencyKey: %w", err)
	}

	return sale, true, nil
}

func (s *CheckoutService) observe(err error) {
	s.metrics.Checkouts.WithLabelValues(resultLabel(err)).Inc()
}

func (s *CheckoutService) logAbort(ownerID string, err error) {
	switch {
	case errors.Is(err, domain.ErrKeySpaceExhausted), errors.Is(err, domain.ErrStorageFault):
		s.log.Error("checkout aborted", "owner_id", ownerID, "err", err)
	default:
		s.log.Info("checkout rejected", "owner_id", ownerID, "err", err)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrUnknownTitle):
		return "unknown_title"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrKeySpaceExhausted):
		return "key_space_exhausted"
	case errors.Is(err, domain.ErrStorageFault):
		return "storage_fault"
	default:
		return "error"
	}
}
