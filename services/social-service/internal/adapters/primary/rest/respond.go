package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

const maxBodyBytes = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError traduit les erreurs du domaine en statut HTTP.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, domain.ErrStorageUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	if status >= http.StatusInternalServerError {
		slog.Error("❌ Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// decode lit un corps JSON borné puis applique les tags `validate`.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return validationError("invalid JSON body: " + err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return validationError(fe.Field() + " failed on " + fe.Tag())
		}
		return validationError(err.Error())
	}
	return nil
}

// pageParams lit ?cursor= et ?limit= (la borne est appliquée par le service).
func pageParams(r *http.Request) (string, int, error) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return "", 0, validationError("limit must be a positive integer")
		}
		limit = n
	}
	return q.Get("cursor"), limit, nil
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}
