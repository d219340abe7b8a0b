package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"go-ledger/common"
	"go-ledger/service"
)

type appHandlerFunc func(http.ResponseWriter, *http.Request) *common.AppError

func ErrorHandlingMiddleware(log logrus.FieldLogger, next appHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w, log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			}))
		}
	}
}

// mapServiceError translates ledger errors into HTTP errors.
func mapServiceError(err error, fallback string) *common.AppError {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSameAccountTransfer),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInvalidAccountName):
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, service.ErrConflictExhausted):
		return common.NewAppError(http.StatusConflict, "Transfer could not be completed due to concurrent activity, please retry", err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.NewAppError(http.StatusGatewayTimeout, "Request timed out, please retry", err)
	case errors.Is(err, context.Canceled):
		return common.NewAppError(http.StatusServiceUnavailable, "Request was cancelled", err)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
