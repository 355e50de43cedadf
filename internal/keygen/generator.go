// Package keygen mints activation keys from a cryptographically strong source.
//
// A candidate only counts as issued once the store accepts it under its
// uniqueness constraint; collisions are retried with a fresh candidate a
// bounded number of times.
package keygen

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/port"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultMaxAttempts = 5

// bytes at or above this bound are dropped so every symbol is equally likely
const rejectionBound = 256 - 256%len(domain.KeyAlphabet)

type Generator struct {
	log         *slog.Logger
	rand        io.Reader
	maxAttempts int
	collisions  prometheus.Counter
	exhausted   prometheus.Counter
}

type Config struct {
	// Rand defaults to crypto/rand.Reader.
	Rand        io.Reader
	MaxAttempts int
	Collisions  prometheus.Counter
	Exhausted   prometheus.Counter
}

func New(log *slog.Logger, cfg Config) *Generator {
	g := &Generator{
		log:         log,
		rand:        cfg.Rand,
		maxAttempts: cfg.MaxAttempts,
		collisions:  cfg.Collisions,
		exhausted:   cfg.Exhausted,
	}
	if g.rand == nil {
		g.rand = rand.Reader
	}
	if g.maxAttempts < 1 {
		g.maxAttempts = DefaultMaxAttempts
	}
	return g
}

// Issue reserves a fresh key through reserver, failing with domain.ErrKeySpaceExhausted
// after maxAttempts collisions.
func (g *Generator) Issue(ctx context.Context, reserver port.KeyReserver) (domain.ActivationKey, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		key, err := g.Candidate()
		if err != nil {
			return "", fmt.Errorf("g.Candidate: %w", err)
		}

		ok, err := reserver.ReserveKey(ctx, key)
		if err != nil {
			return "", fmt.Errorf("reserver.ReserveKey: %w", err)
		}
		if ok {
			return key, nil
		}

		if g.collisions != nil {
			g.collisions.Inc()
		}
		g.log.Warn("activation key collision", "attempt", attempt)
	}

	if g.exhausted != nil {
		g.exhausted.Inc()
	}
	g.log.Error("activation key space exhausted", "attempts", g.maxAttempts)

	return "", domain.ErrKeySpaceExhausted
}

// Candidate draws a key without reserving it.
func (g *Generator) Candidate() (domain.ActivationKey, error) {
	const symbols = domain.KeyGroups * domain.KeyGroupSize

	var sb strings.Builder
	sb.Grow(symbols + domain.KeyGroups - 1)

	buf := make([]byte, symbols*2)
	drawn := 0
	for drawn < symbols {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("io.ReadFull: %w", err)
		}

		for _, b := range buf {
			if int(b) >= rejectionBound {
				continue
			}
			if drawn > 0 && drawn%domain.KeyGroupSize == 0 {
				sb.WriteByte(domain.KeySeparator)
			}
			sb.WriteByte(domain.KeyAlphabet[int(b)%len(domain.KeyAlphabet)])

			drawn++
			if drawn == symbols {
				break
			}
		}
	}

	return domain.ActivationKey(sb.String()), nil
}
