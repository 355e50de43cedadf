package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/port"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var ErrCacheMiss = errors.New("cache miss")

const DefaultTTL = 15 * time.Minute

type titleEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Catalog is a read-through Redis cache in front of another port.TitleCatalog.
// Redis failures are logged and fall through to the inner catalog. Misses of the
// inner catalog are not cached.
type Catalog struct {
	log     *slog.Logger
	client  redis.UniversalClient
	inner   port.TitleCatalog
	baseTTL time.Duration
}

var _ port.TitleCatalog = (*Catalog)(nil)

func NewCatalog(log *slog.Logger, client redis.UniversalClient, inner port.TitleCatalog, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Catalog{
		log:     log,
		client:  client,
		inner:   inner,
		baseTTL: ttl,
	}
}

func (c *Catalog) GetTitle(ctx context.Context, titleID int64) (domain.Title, error) {
	title, err := c.get(ctx, titleID)
	if err == nil {
		return title, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.log.Warn("catalog cache read failed", "title_id", titleID, "err", err)
	}

	title, err = c.inner.GetTitle(ctx, titleID)
	if err != nil {
		return domain.Title{}, err
	}

	if err := c.set(ctx, title); err != nil {
		c.log.Warn("catalog cache write failed", "title_id", titleID, "err", err)
	}

	return title, nil
}

// Invalidate drops the cached copy of a title.
func (c *Catalog) Invalidate(ctx context.Context, titleID int64) error {
	if err := c.client.Del(ctx, cacheKey(titleID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *Catalog) get(ctx context.Context, titleID int64) (domain.Title, error) {
	data, err := c.client.Get(ctx, cacheKey(titleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Title{}, ErrCacheMiss
	}
	if err != nil {
		return domain.Title{}, fmt.Errorf("redis get: %w", err)
	}

	var entry titleEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.Title{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	amount, err := decimal.NewFromString(entry.Amount)
	if err != nil {
		return domain.Title{}, fmt.Errorf("decimal.NewFromString: %w", err)
	}

	unit, err := currency.ParseISO(entry.Currency)
	if err != nil {
		return domain.Title{}, fmt.Errorf("currency.ParseISO: %w", err)
	}

	return domain.Title{
		ID:       entry.ID,
		Name:     entry.Name,
		Category: entry.Category,
		Price:    domain.Money{Amount: amount, Currency: unit},
	}, nil
}

func (c *Catalog) set(ctx context.Context, title domain.Title) error {
	data, err := json.Marshal(titleEntry{
		ID:       title.ID,
		Name:     title.Name,
		Category: title.Category,
		Amount:   title.Price.Amount.String(),
		Currency: title.Price.Currency.String(),
	})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	// jitter spreads expiry of titles cached together
	ttl := c.baseTTL + time.Duration(rand.Int64N(int64(c.baseTTL/3)+1))

	if err := c.client.Set(ctx, cacheKey(title.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func cacheKey(titleID int64) string {
	return fmt.Sprintf("title:%d", titleID)
}
