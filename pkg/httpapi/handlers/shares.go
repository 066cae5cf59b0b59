package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/httpapi/middleware"
	"github.com/mladen4o/ClovaLink/pkg/share"
)

// ShareHandler implements create-share and redeem-share (spec §6, C7).
type ShareHandler struct {
	gateway *share.Gateway
}

func NewShareHandler(gateway *share.Gateway) *ShareHandler {
	return &ShareHandler{gateway: gateway}
}

type createShareRequest struct {
	RecordID   string `json:"record_id" validate:"required"`
	IsPublic   bool   `json:"is_public"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
	Policy     string `json:"policy,omitempty"`
	SharedWith string `json:"shared_with,omitempty"`
	Password   string `json:"password,omitempty"`
}

// Create implements create-share.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecordID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var sharedWith *string
	if req.SharedWith != "" {
		sharedWith = &req.SharedWith
	}

	tok, err := h.gateway.Create(r.Context(), share.CreateRequest{
		Actor:      actor,
		RecordID:   req.RecordID,
		IsPublic:   req.IsPublic,
		TTL:        time.Duration(req.TTLSeconds) * time.Second,
		Policy:     catalog.SharePolicy(req.Policy),
		SharedWith: sharedWith,
		Password:   req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"share_id": tok.ID,
		"token":    tok.Token,
		"is_public": tok.IsPublic,
		"policy":   tok.Policy,
	})
}

type redeemShareRequest struct {
	Password string `json:"password,omitempty"`
}

// Redeem implements redeem-share. The token is taken from the path;
// credentials for the non-public policies come from whatever JWTAuth (run
// with OptionalJWTAuth semantics at the router level) already resolved.
func (h *ShareHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req redeemShareRequest
	if r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Password == "" {
		req.Password = r.URL.Query().Get("password")
	}

	var redeemerActor *access.Actor
	if actor, ok := middleware.ActorFromContext(r.Context()); ok {
		redeemerActor = &actor
	}

	result, err := h.gateway.Redeem(r.Context(), share.RedeemRequest{
		Token:         token,
		RedeemerActor: redeemerActor,
		Password:      req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if result.IsRedirect {
		w.Header().Set("Location", result.RedirectURL)
		w.WriteHeader(http.StatusTemporaryRedirect)
		return
	}
	defer result.Stream.Close()

	w.Header().Set("Content-Disposition", contentDispositionHeader(result.Record.Name))
	if result.Record.MediaType != "" {
		w.Header().Set("Content-Type", result.Record.MediaType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, result.Stream)
}
