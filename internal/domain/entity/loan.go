package entity

import "time"

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
	LoanOverdue  LoanStatus = "overdue"
)

// Loan records one copy of a catalog item checked out by a user.
// It references both aggregates by ID and owns neither lifecycle.
// Librarian is the librarian of record; on return the returning
// librarian is appended to it.
type Loan struct {
	ID         string
	UserID     string
	ItemID     string
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     LoanStatus
	Librarian  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsOverdue reports whether the loan is active and past its due date.
// Overdue is a derived view; the stored status only converges to
// "overdue" when a sweep runs.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanActive && l.DueDate.Before(now)
}

// EffectiveStatus is the status as seen by callers: active loans past
// due are reported as overdue regardless of the stored value.
func (l *Loan) EffectiveStatus(now time.Time) LoanStatus {
	if l.IsOverdue(now) {
		return LoanOverdue
	}
	return l.Status
}

// LoanDetail is a loan enriched with its referenced user and item for
// read-only query results.
type LoanDetail struct {
	Loan
	User *User
	Item *CatalogItem
}

// LoanStats aggregates loan counts per status.
type LoanStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Overdue  int `json:"overdue"`
	Returned int `json:"returned"`
}

// CatalogStats aggregates collection-wide copy counts.
type CatalogStats struct {
	Titles          int `json:"titles"`
	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`
	BorrowedCopies  int `json:"borrowed_copies"`
	OutOfStock      int `json:"out_of_stock"`
}
