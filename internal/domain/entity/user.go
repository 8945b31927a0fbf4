package entity

import (
	"time"
)

// User is the aggregate root for the membership domain.
// CPF is stored as 11 digits without separators and is globally unique.
// Users are never hard-deleted; Active=false marks a deactivated account.
type User struct {
	ID           string
	Name         string
	CPF          string
	BirthDate    time.Time
	Phone        string
	Address      string
	Category     Category
	Email        string
	Registration string
	Department   string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HistoryEntry is one immutable audit record for a single changed field
// of a User. Entries are only created as a side effect of user mutation
// and are never updated or deleted.
type HistoryEntry struct {
	ID        string
	UserID    string
	Field     string
	OldValue  string
	NewValue  string
	ChangedBy string
	ChangedAt time.Time
}
