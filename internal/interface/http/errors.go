package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unilib-br/unilib/internal/application"
	"github.com/unilib-br/unilib/pkg/response"
)

// serviceError maps service errors to HTTP statuses and writes the
// error envelope. Domain rejection messages pass through verbatim.
func serviceError(c *gin.Context, err error) {
	var limitErr *application.LoanLimitError
	var qtyErr *application.InvalidQuantityError

	switch {
	case errors.Is(err, application.ErrUserNotFound),
		errors.Is(err, application.ErrItemNotFound),
		errors.Is(err, application.ErrLoanNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), nil)

	case errors.Is(err, application.ErrInvalidCPF),
		errors.Is(err, application.ErrInvalidEmail),
		errors.Is(err, application.ErrInvalidISBN):
		response.Error(c, http.StatusBadRequest, err.Error(), nil)

	case errors.Is(err, application.ErrCPFRegistered),
		errors.Is(err, application.ErrCodeRegistered),
		errors.Is(err, application.ErrISBNRegistered),
		errors.Is(err, application.ErrUserInactive),
		errors.Is(err, application.ErrItemUnavailable),
		errors.Is(err, application.ErrLoanReturned),
		errors.Is(err, application.ErrUserHasLoans),
		errors.Is(err, application.ErrItemHasLoans),
		errors.As(err, &limitErr),
		errors.As(err, &qtyErr):
		response.Error(c, http.StatusConflict, err.Error(), nil)

	default:
		response.Error(c, http.StatusInternalServerError, application.ErrInternal.Error(), nil)
	}
}
