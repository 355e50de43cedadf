package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nikolayk812/gamekeys/internal/domain"
)

const (
	AggregateSale      = "sale"
	EventSaleCommitted = "sale.committed"
)

type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	CreatedAt     time.Time
}

// SaleCommitted is published once per committed checkout. Activation keys stay out of it.
type SaleCommitted struct {
	SaleID      string              `json:"saleId"`
	OwnerID     string              `json:"ownerId"`
	Total       string              `json:"total"`
	Currency    string              `json:"currency"`
	Lines       []SaleCommittedLine `json:"lines"`
	CommittedAt time.Time           `json:"committedAt"`
}

type SaleCommittedLine struct {
	TitleID   int64  `json:"titleId"`
	UnitPrice string `json:"unitPrice"`
}

func NewSaleCommitted(sale domain.Sale) (Event, error) {
	lines := make([]SaleCommittedLine, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		lines = append(lines, SaleCommittedLine{
			TitleID:   line.TitleID,
			UnitPrice: line.UnitPrice.Amount.StringFixed(2),
		})
	}

	payload, err := json.Marshal(SaleCommitted{
		SaleID:      sale.ID.String(),
		OwnerID:     sale.OwnerID,
		Total:       sale.Total.Amount.StringFixed(2),
		Currency:    sale.Total.Currency.String(),
		Lines:       lines,
		CommittedAt: sale.CreatedAt,
	})
	if err != nil {
		return Event{}, fmt.Errorf("json.Marshal: %w", err)
	}

	return Event{
		AggregateType: AggregateSale,
		AggregateID:   sale.ID.String(),
		Type:          EventSaleCommitted,
		Payload:       payload,
	}, nil
}
