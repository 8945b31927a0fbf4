package entity

import "time"

// CatalogItem is one title in the collection. The counter triple keeps
// the invariant TotalCopies = AvailableCopies + BorrowedCopies; only the
// loan engine mutates AvailableCopies/BorrowedCopies.
type CatalogItem struct {
	ID              string
	Code            string
	ISBN            string
	Title           string
	Author          string
	Category        string
	TotalCopies     int
	AvailableCopies int
	BorrowedCopies  int
	CoverURL        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
