package transport

import (
	"errors"
	"net/http"

	"bakery-ops/internal/middleware"
	"bakery-ops/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// respondWithServiceError maps service errors onto HTTP statuses. Anything
// unrecognised is logged and answered with a generic 500.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var (
		stockErr      *service.InsufficientStockError
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
	)

	switch {
	case errors.As(err, &stockErr):
		middleware.RespondWithError(w, http.StatusBadRequest, stockErr.Error())
	case errors.As(err, &validationErr):
		middleware.RespondWithJSON(w, http.StatusBadRequest, middleware.ErrorResponse{
			Message: validationErr.Message,
			Errors:  []middleware.ValidationError{{Field: validationErr.Field, Message: validationErr.Message}},
		})
	case errors.As(err, &notFoundErr):
		middleware.RespondWithError(w, http.StatusNotFound, notFoundErr.Error())
	default:
		logger.Error("Request failed",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondWithDecodeError answers a body that failed to decode or validate
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
}
