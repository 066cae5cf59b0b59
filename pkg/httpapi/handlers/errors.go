package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/orchestrator"
	"github.com/mladen4o/ClovaLink/pkg/share"
)

// errorResponse is the JSON body for every non-2xx response. kind matches
// spec §7's error-kind vocabulary so clients can branch on it without
// parsing message strings.
type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError maps a domain error to the HTTP status and error kind spec §7
// requires, falling back to "internal" for anything unrecognized.
func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	writeJSON(w, status, errorResponse{Kind: kind, Message: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, orchestrator.ErrNotFound), errors.Is(err, catalog.ErrNotFound), errors.Is(err, share.ErrNotFound):
		return http.StatusNotFound, "not-found"
	case errors.Is(err, orchestrator.ErrForbidden), errors.Is(err, share.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, orchestrator.ErrLocked):
		return http.StatusConflict, "locked"
	case errors.Is(err, orchestrator.ErrImmutable):
		return http.StatusConflict, "immutable"
	case errors.Is(err, orchestrator.ErrDuplicate), errors.Is(err, catalog.ErrDuplicateName):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, orchestrator.ErrQuotaExceeded):
		return http.StatusRequestEntityTooLarge, "quota-exceeded"
	case errors.Is(err, orchestrator.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too-large"
	case errors.Is(err, orchestrator.ErrBlockedExtension):
		return http.StatusUnprocessableEntity, "blocked-extension"
	case errors.Is(err, orchestrator.ErrComplianceBlock):
		return http.StatusForbidden, "compliance-block"
	case errors.Is(err, orchestrator.ErrBackendUnavail):
		return http.StatusBadGateway, "backend-unavailable"
	case errors.Is(err, orchestrator.ErrWrongPassword):
		return http.StatusUnauthorized, "wrong-password"
	case errors.Is(err, orchestrator.ErrAlreadyLocked):
		return http.StatusConflict, "already-locked"
	case errors.Is(err, orchestrator.ErrExpired), errors.Is(err, share.ErrExpired):
		return http.StatusGone, "expired"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
