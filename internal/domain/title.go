package domain

// Title is the read-only catalog view of a game.
type Title struct {
	ID       int64
	Name     string
	Category string
	Price    Money
}
