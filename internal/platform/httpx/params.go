package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/shared"
)

// PathUUID parses a chi URL parameter as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return ParseUUID(name, chi.URLParam(r, name))
}

// QueryUUID parses a required query parameter as a UUID.
func QueryUUID(r *http.Request, name string) (uuid.UUID, error) {
	return ParseUUID(name, r.URL.Query().Get(name))
}

// ParseUUID parses raw, reporting failures as validation errors on field.
func ParseUUID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, shared.Validationf("%s is required", field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, shared.Validationf("%s must be a UUID", field)
	}
	return id, nil
}
