package entity

import (
	"strings"
	"time"
)

// Category classifies a library user and determines the loan policy
// applied to them. Values are normalized to lowercase on parse so the
// storage layer and the API agree on a single representation.
type Category string

const (
	CategoryStudent   Category = "student"
	CategoryProfessor Category = "professor"
	CategoryVisitor   Category = "visitor"
	CategoryLibrarian Category = "librarian"
)

// loanPolicy is the single source of truth for category-dependent rules.
// Librarians borrow under the student policy.
type loanPolicy struct {
	Days  int // loan duration in calendar days
	Limit int // max simultaneous active loans
}

var policies = map[Category]loanPolicy{
	CategoryStudent:   {Days: 7, Limit: 3},
	CategoryProfessor: {Days: 14, Limit: 5},
	CategoryVisitor:   {Days: 3, Limit: 1},
	CategoryLibrarian: {Days: 7, Limit: 3},
}

var defaultPolicy = loanPolicy{Days: 7, Limit: 3}

// ParseCategory normalizes a raw category string. Unknown values fall
// back to student, matching the registration default.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := policies[c]; ok {
		return c
	}
	return CategoryStudent
}

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	_, ok := policies[c]
	return ok
}

func (c Category) policy() loanPolicy {
	if p, ok := policies[c]; ok {
		return p
	}
	return defaultPolicy
}

// LoanDays returns the loan duration in days for the category.
func (c Category) LoanDays() int { return c.policy().Days }

// LoanLimit returns the max number of simultaneous active loans.
func (c Category) LoanLimit() int { return c.policy().Limit }

// DueDate computes the expected return date for a loan issued at the
// given time, preserving the time of day across month and year
// boundaries.
func (c Category) DueDate(loanDate time.Time) time.Time {
	return loanDate.AddDate(0, 0, c.LoanDays())
}
