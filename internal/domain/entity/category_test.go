package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryStudent, ParseCategory("student"))
	assert.Equal(t, CategoryProfessor, ParseCategory("PROFESSOR"))
	assert.Equal(t, CategoryVisitor, ParseCategory("  visitor "))
	assert.Equal(t, CategoryLibrarian, ParseCategory("librarian"))
	// unknown values fall back to student
	assert.Equal(t, CategoryStudent, ParseCategory("alumni"))
	assert.Equal(t, CategoryStudent, ParseCategory(""))
}

func TestLoanPolicy(t *testing.T) {
	assert.Equal(t, 7, CategoryStudent.LoanDays())
	assert.Equal(t, 3, CategoryStudent.LoanLimit())

	assert.Equal(t, 14, CategoryProfessor.LoanDays())
	assert.Equal(t, 5, CategoryProfessor.LoanLimit())

	assert.Equal(t, 3, CategoryVisitor.LoanDays())
	assert.Equal(t, 1, CategoryVisitor.LoanLimit())

	// librarians borrow under the student policy
	assert.Equal(t, 7, CategoryLibrarian.LoanDays())
	assert.Equal(t, 3, CategoryLibrarian.LoanLimit())

	// unknown category uses the default policy
	assert.Equal(t, 7, Category("alumni").LoanDays())
	assert.Equal(t, 3, Category("alumni").LoanLimit())
}

func TestDueDate(t *testing.T) {
	loan := time.Date(2024, time.January, 29, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 5, 10, 30, 0, 0, time.UTC),
		CategoryStudent.DueDate(loan))

	// leap year: February 2024 has 29 days
	loan = time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		CategoryStudent.DueDate(loan))

	// non-leap February
	loan = time.Date(2023, time.February, 26, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, time.March, 5, 0, 0, 0, 0, time.UTC),
		CategoryStudent.DueDate(loan))

	// year boundary for the professor window
	loan = time.Date(2023, time.December, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC),
		CategoryProfessor.DueDate(loan))
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	active := &Loan{Status: LoanActive, DueDate: now.Add(24 * time.Hour)}
	assert.Equal(t, LoanActive, active.EffectiveStatus(now))
	assert.False(t, active.IsOverdue(now))

	pastDue := &Loan{Status: LoanActive, DueDate: now.Add(-time.Hour)}
	assert.Equal(t, LoanOverdue, pastDue.EffectiveStatus(now))
	assert.True(t, pastDue.IsOverdue(now))

	// a returned loan is never reported overdue
	returned := &Loan{Status: LoanReturned, DueDate: now.Add(-time.Hour)}
	assert.Equal(t, LoanReturned, returned.EffectiveStatus(now))
}
