package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sale is the immutable receipt of one checkout.
type Sale struct {
	ID             uuid.UUID
	OwnerID        string
	CartID         uuid.UUID
	Total          Money
	IdempotencyKey string
	Lines          []SaleLine

	CreatedAt time.Time
}

// SaleLine carries the unit price as it was at purchase time.
type SaleLine struct {
	TitleID       int64
	UnitPrice     Money
	ActivationKey ActivationKey
}

type LibraryGrant struct {
	OwnerID       string
	TitleID       int64
	ActivationKey ActivationKey
	SaleID        uuid.UUID

	GrantedAt time.Time
}

// Grants derives the library grants a committed sale hands to its owner.
func (s Sale) Grants() []LibraryGrant {
	grants := make([]LibraryGrant, 0, len(s.Lines))
	for _, line := range s.Lines {
		grants = append(grants, LibraryGrant{
			OwnerID:       s.OwnerID,
			TitleID:       line.TitleID,
			ActivationKey: line.ActivationKey,
			SaleID:        s.ID,
			GrantedAt:     s.CreatedAt,
		})
	}
	return grants
}
