package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/userbook/internal/apperrors"
	"github.com/nkiryanov/userbook/internal/handlers/middleware"
	"github.com/nkiryanov/userbook/internal/handlers/render"
	"github.com/nkiryanov/userbook/internal/logger"
)

// storeFailure logs the failure with all the details and renders the opaque error
func storeFailure(w http.ResponseWriter, r *http.Request, logger logger.Logger, err error) {
	args := []any{
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"error", err.Error(),
	}

	var storeErr *apperrors.StoreError
	if errors.As(err, &storeErr) {
		args = append(args, "op", storeErr.Op, "reason", storeErr.Reason)
	}

	logger.Error(apperrors.ErrStoreFailure.Error(), args...)
	render.ServiceError(w, render.ServiceFailureMessage, http.StatusInternalServerError)
}
