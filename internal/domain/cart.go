package domain

import (
	"time"

	"github.com/google/uuid"
)

type CartStatus string

// MaxQuantityPerTitle bounds the units of one title a cart may hold.
const MaxQuantityPerTitle = 99

const (
	CartStatusActive     CartStatus = "active"
	CartStatusCheckedOut CartStatus = "checked_out"
)

type Cart struct {
	ID      uuid.UUID
	OwnerID string
	Status  CartStatus
	Items   []CartItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	TitleID  int64
	Quantity int

	CreatedAt time.Time
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Units is the number of licenses the cart would buy, one per unit of quantity.
func (c Cart) Units() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
