package application

import (
	"errors"
	"fmt"
)

// Domain errors carry the exact user-facing messages. Anything outside
// this set is infrastructure trouble and is masked as ErrInternal at
// the service boundary after being logged.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserInactive    = errors.New("user inactive")
	ErrItemNotFound    = errors.New("item not found")
	ErrItemUnavailable = errors.New("item not available for loan")
	ErrLoanNotFound    = errors.New("loan not found")
	ErrLoanReturned    = errors.New("loan already returned")
	ErrUserHasLoans    = errors.New("user has active loans")
	ErrCPFRegistered   = errors.New("national id already registered")
	ErrInvalidCPF      = errors.New("invalid national id")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidISBN     = errors.New("invalid isbn")
	ErrCodeRegistered  = errors.New("code already registered")
	ErrISBNRegistered  = errors.New("isbn already registered")
	ErrItemHasLoans    = errors.New("item has active loans")

	ErrInternal = errors.New("internal server error")
)

// LoanLimitError is returned when a user is at their category's loan
// limit; the message must name the numeric limit.
type LoanLimitError struct {
	Limit int
}

func (e *LoanLimitError) Error() string {
	return fmt.Sprintf("limit of %d loans reached", e.Limit)
}

// InvalidQuantityError is returned when a quantity edit would drop the
// total below the number of copies currently on loan.
type InvalidQuantityError struct {
	NewTotal int
	Borrowed int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("cannot reduce total to %d: %d copies on loan", e.NewTotal, e.Borrowed)
}

var domainErrors = []error{
	ErrUserNotFound, ErrUserInactive, ErrItemNotFound, ErrItemUnavailable,
	ErrLoanNotFound, ErrLoanReturned, ErrUserHasLoans, ErrCPFRegistered,
	ErrInvalidCPF, ErrInvalidEmail, ErrInvalidISBN, ErrCodeRegistered,
	ErrISBNRegistered, ErrItemHasLoans,
}

// IsDomainError reports whether err is a recoverable domain rejection
// whose message is safe to surface verbatim.
func IsDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	var limitErr *LoanLimitError
	var qtyErr *InvalidQuantityError
	return errors.As(err, &limitErr) || errors.As(err, &qtyErr)
}
