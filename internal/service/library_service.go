package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/port"
)

type LibraryEntry struct {
	Grant domain.LibraryGrant
	// Title is zero when the catalog no longer knows the title.
	Title domain.Title
}

type LibraryService struct {
	log           *slog.Logger
	sales         port.SaleRepository
	catalog       port.TitleCatalog
	lookupTimeout time.Duration
}

func NewLibraryService(log *slog.Logger, sales port.SaleRepository, catalog port.TitleCatalog, lookupTimeout time.Duration) *LibraryService {
	return &LibraryService{
		log:           log,
		sales:         sales,
		catalog:       catalog,
		lookupTimeout: lookupTimeout,
	}
}

func (s *LibraryService) Library(ctx context.Context, ownerID string) ([]LibraryEntry, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	grants, err := s.sales.ListLibrary(ctx, ownerID)
	if err != nil {
		return nil, classify(err)
	}

	titles := make(map[int64]domain.Title)
	entries := make([]LibraryEntry, 0, len(grants))

	for _, grant := range grants {
		title, ok := titles[grant.TitleID]
		if !ok {
			title, err = lookupTitle(ctx, s.catalog, s.lookupTimeout, grant.TitleID)
			switch {
			case errors.Is(err, domain.ErrUnknownTitle):
				s.log.Warn("owned title missing from catalog", "title_id", grant.TitleID)
			case err != nil:
				return nil, classify(err)
			}
			titles[grant.TitleID] = title
		}

		entries = append(entries, LibraryEntry{Grant: grant, Title: title})
	}

	return entries, nil
}

func (s *LibraryService) Sales(ctx context.Context, ownerID string) ([]domain.Sale, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	sales, err := s.sales.ListSales(ctx, ownerID)
	if err != nil {
		return nil, classify(err)
	}

	return sales, nil
}

// Sale hides other owners' sales behind domain.ErrSaleNotFound.
func (s *LibraryService) Sale(ctx context.Context, ownerID string, saleID uuid.UUID) (domain.Sale, error) {
	if ownerID == "" {
		return domain.Sale{}, domain.ErrUnauthenticated
	}

	sale, err := s.sales.GetSale(ctx, saleID)
	if err != nil {
		return domain.Sale{}, classify(err)
	}

	if sale.OwnerID != ownerID {
		return domain.Sale{}, fmt.Errorf("sale[%s]: %w", saleID, domain.ErrSaleNotFound)
	}

	return sale, nil
}
