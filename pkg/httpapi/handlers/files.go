// Package handlers implements the HTTP surface for spec §6's operation
// table, translating chi requests into pkg/orchestrator and pkg/share
// calls.
package handlers

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/httpapi/middleware"
	"github.com/mladen4o/ClovaLink/pkg/orchestrator"
)

// FileHandler implements create-file, list, get-stream, rename, move,
// soft-delete, restore, permanent-delete, lock, and unlock.
type FileHandler struct {
	orch *orchestrator.Orchestrator
}

func NewFileHandler(orch *orchestrator.Orchestrator) *FileHandler {
	return &FileHandler{orch: orch}
}

func actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return access.Actor{}, false
	}
	return actor, true
}

// recordView is the JSON projection of catalog.Record returned to clients.
type recordView struct {
	ID              string  `json:"id"`
	TenantID        string  `json:"tenant_id"`
	DepartmentID    *string `json:"department_id,omitempty"`
	ParentPath      string  `json:"parent_path"`
	Name            string  `json:"name"`
	SizeBytes       uint64  `json:"size_bytes"`
	MediaType       string  `json:"media_type,omitempty"`
	IsDir           bool    `json:"is_dir"`
	OwnerID         string  `json:"owner_id"`
	Visibility      string  `json:"visibility"`
	Version         int     `json:"version"`
	IsImmutable     bool    `json:"is_immutable"`
	ContentHash     string  `json:"content_hash,omitempty"`
	IsDeleted       bool    `json:"is_deleted"`
	IsLocked        bool    `json:"is_locked"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toRecordView(rec catalog.Record) recordView {
	return recordView{
		ID:           rec.ID,
		TenantID:     rec.TenantID,
		DepartmentID: rec.DepartmentID,
		ParentPath:   rec.ParentPath,
		Name:         rec.Name,
		SizeBytes:    rec.SizeBytes,
		MediaType:    rec.MediaType,
		IsDir:        rec.IsDir,
		OwnerID:      rec.OwnerID,
		Visibility:   string(rec.Visibility),
		Version:      rec.Version,
		IsImmutable:  rec.IsImmutable,
		ContentHash:  rec.ContentHash,
		IsDeleted:    rec.IsDeleted,
		IsLocked:     rec.Lock.IsLocked,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    rec.UpdatedAt.Format(time.RFC3339),
	}
}

// Create implements create-file: a multipart stream with a single "file"
// part, parent-path and visibility carried as form fields.
func (h *FileHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	reader, err := r.MultipartReader()
	if err != nil {
		http.Error(w, "expected multipart/form-data", http.StatusBadRequest)
		return
	}

	var (
		parentPath   string
		visibility   = string(catalog.VisibilityPrivate)
		departmentID string
		part         *multipartFilePart
	)

	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, "malformed multipart body", http.StatusBadRequest)
			return
		}
		switch p.FormName() {
		case "parent_path":
			parentPath = readFormValue(p)
		case "visibility":
			visibility = readFormValue(p)
		case "department_id":
			departmentID = readFormValue(p)
		case "file":
			part = &multipartFilePart{name: p.FileName(), mediaType: p.Header.Get("Content-Type"), body: p}
		default:
			_, _ = io.Copy(io.Discard, p)
		}
		if part != nil {
			break // stream the file part directly without buffering the rest
		}
	}
	if part == nil {
		http.Error(w, "missing \"file\" part", http.StatusBadRequest)
		return
	}

	var deptPtr *string
	if departmentID != "" {
		deptPtr = &departmentID
	}

	result, err := h.orch.Upload(r.Context(), orchestrator.UploadRequest{
		Actor:        actor,
		TenantID:     actor.TenantID,
		DepartmentID: deptPtr,
		ParentPath:   parentPath,
		Name:         part.name,
		Visibility:   catalog.Visibility(visibility),
		MediaType:    part.mediaType,
		Body:         part.body,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"record_id":    result.RecordID,
		"name":         result.Name,
		"content_hash": result.ContentHash,
		"size_bytes":   result.SizeBytes,
		"dedup_hit":    result.DedupHit,
		"version":      result.NewVersion,
	})
}

type multipartFilePart struct {
	name      string
	mediaType string
	body      io.Reader
}

func readFormValue(p *multipart.Part) string {
	b, _ := io.ReadAll(p)
	return string(b)
}

// List implements list: direct children of parent-path, with derived
// directory sizes already computed by the catalog.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	parentPath := r.URL.Query().Get("parent_path")
	var deptPtr *string
	if dept := r.URL.Query().Get("department_id"); dept != "" {
		deptPtr = &dept
	}
	var visPtr *catalog.Visibility
	if vis := r.URL.Query().Get("visibility"); vis != "" {
		v := catalog.Visibility(vis)
		visPtr = &v
	}

	records, err := h.orch.List(r.Context(), actor, orchestrator.ListRequest{
		TenantID:     actor.TenantID,
		DepartmentID: deptPtr,
		ParentPath:   parentPath,
		Visibility:   visPtr,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, toRecordView(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": views})
}

// GetStream implements get-stream: either a redirect to a presigned URL or
// a proxied byte stream with a sanitized Content-Disposition header.
func (h *FileHandler) GetStream(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")

	result, err := h.orch.Download(r.Context(), actor, recordID)
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
	} else {
		w.Header().Set("Content-Type", mime.TypeByExtension(result.Record.Name))
	}
	w.Header().Set("Content-Length", strconv.FormatUint(result.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, result.Stream)
}

type renameRequest struct {
	Name string `json:"name" validate:"required"`
}

// Rename implements rename.
func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.orch.Rename(r.Context(), actor, recordID, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type moveRequest struct {
	NewParentPath   string  `json:"new_parent_path"`
	NewDepartmentID *string `json:"new_department_id,omitempty"`
	NewVisibility   string  `json:"new_visibility,omitempty"`
}

// Move implements move.
func (h *FileHandler) Move(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	recordID := chi.URLParam(r, "recordID")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.orch.Move(r.Context(), actor, orchestrator.MoveRequest{
		RecordID:        recordID,
		NewParentPath:   req.NewParentPath,
		NewDepartmentID: req.NewDepartmentID,
		NewVisibility:   catalog.Visibility(req.NewVisibility),
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// SoftDelete implements soft-delete.
func (h *FileHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := h.orch.SoftDelete(r.Context(), actor, chi.URLParam(r, "recordID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Restore implements restore.
func (h *FileHandler) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := h.orch.Restore(r.Context(), actor, chi.URLParam(r, "recordID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// PermanentDelete implements permanent-delete.
func (h *FileHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	result, err := h.orch.PermanentDelete(r.Context(), actor, chi.URLParam(r, "recordID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows_deleted":    result.RowsDeleted,
		"objects_deleted": result.ObjectsDeleted,
	})
}

type lockRequest struct {
	Password     string `json:"password,omitempty"`
	RequiredRole string `json:"required_role,omitempty"`
}

// Lock implements lock.
func (h *FileHandler) Lock(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req lockRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	err := h.orch.Lock(r.Context(), actor, orchestrator.LockRequest{
		RecordID:     chi.URLParam(r, "recordID"),
		Password:     req.Password,
		RequiredRole: access.Role(req.RequiredRole),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type unlockRequest struct {
	Password string `json:"password,omitempty"`
}

// Unlock implements unlock.
func (h *FileHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req unlockRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	err := h.orch.Unlock(r.Context(), actor, orchestrator.UnlockRequest{
		RecordID: chi.URLParam(r, "recordID"),
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
