package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/scope"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/taxonomy"
)

// StatusFor maps a domain error to the HTTP status it is reported with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, taxonomy.ErrInvalidTransition), errors.Is(err, store.ErrImmutableField):
		return http.StatusConflict
	case errors.Is(err, taxonomy.ErrMissingRequiredNote):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, taxonomy.ErrUnknownStatus),
		errors.Is(err, taxonomy.ErrUnknownEntity),
		errors.Is(err, store.ErrInvalidColumn):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scope.ErrInvalidRole):
		return http.StatusForbidden
	case errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// DomainErrorResponse writes err with its mapped status. Server-side
// failures are logged and their detail is replaced by fallback.
func DomainErrorResponse(c *gin.Context, err error, fallback string) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		ErrorResponse(c, status, fallback)
		return
	}
	ErrorResponse(c, status, err.Error())
}
