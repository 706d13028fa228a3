package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/services"
	"github.com/dmitrijs2005/datingapp/internal/server/storage"
	"github.com/goccy/go-json"
)

var errBadRequestBody = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadRequestBody
	}
	return nil
}

func setPagination(w http.ResponseWriter, h paginationHeader) {
	b, err := json.Marshal(h)
	if err != nil {
		return
	}
	w.Header().Set(common.PaginationHeaderName, string(b))
}

// statusFor maps an error returned by a service to a status code and the
// message shown to the client.
func statusFor(err error) (int, string) {
	var (
		svcErr     *services.Error
		storageErr *storage.Error
	)
	switch {
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidPassword),
		errors.Is(err, services.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, errBadRequestBody), errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &svcErr):
		return http.StatusBadRequest, svcErr.Error()
	case errors.As(err, &storageErr):
		return http.StatusBadRequest, storageErr.Message
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "error", err)
	} else {
		logger.Debug(ctx, "request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{StatusCode: status, Message: msg})
}
