package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/port"
)

var businessErrors = []error{
	domain.ErrUnauthenticated,
	domain.ErrEmptyCart,
	domain.ErrUnknownTitle,
	domain.ErrInvalidQuantity,
	domain.ErrKeySpaceExhausted,
	domain.ErrCurrencyMismatch,
	domain.ErrCartNotFound,
	domain.ErrSaleNotFound,
}

// classify passes typed errors through and marks everything else as a storage fault.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrConcurrentRetirement) {
		return domain.ErrEmptyCart
	}

	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	if errors.Is(err, domain.ErrStorageFault) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrStorageFault, err)
}

func lookupTitle(ctx context.Context, catalog port.TitleCatalog, timeout time.Duration, titleID int64) (domain.Title, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	title, err := catalog.GetTitle(ctx, titleID)
	if err != nil {
		return domain.Title{}, fmt.Errorf("catalog.GetTitle: %w", err)
	}

	return title, nil
}
