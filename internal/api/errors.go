package api

import (
	"errors"
	"net/http"

	"github.com/meowstock/paper-trading/internal/ledger"
)

type ErrorCode string

const (
	ErrorCodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	ErrorCodeInsufficientShares ErrorCode = "INSUFFICIENT_SHARES"
	ErrorCodeInvalidArgument    ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// mapError maps core errors to an HTTP status and response body.
func mapError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInsufficientFunds),
			Message: "insufficient funds",
		}
	case errors.Is(err, ledger.ErrInsufficientShares):
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInsufficientShares),
			Message: "insufficient shares",
		}
	case errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidPrice),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInvalidArgument),
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Code:    string(ErrorCodeInternalError),
			Message: err.Error(),
		}
	}
}
