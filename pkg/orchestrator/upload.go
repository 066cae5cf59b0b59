package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/cas"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/internal/logger"
	"github.com/mladen4o/ClovaLink/internal/telemetry"
)

// UploadRequest is the inbound shape for the create-file operation
// (spec §6).
type UploadRequest struct {
	Actor        access.Actor
	TenantID     string
	DepartmentID *string
	ParentPath   string
	Name         string
	Visibility   catalog.Visibility
	MediaType    string
	Body         io.Reader
	SizeHint     uint64
}

// UploadResult matches spec §7's "stable identifier ... dedup flag ...
// possibly-renamed display name".
type UploadResult struct {
	RecordID    string
	Name        string
	ContentHash string
	SizeBytes   uint64
	DedupHit    bool
	NewVersion  int
}

// Upload implements spec §4.6's upload algorithm end to end.
func (o *Orchestrator) Upload(ctx context.Context, req UploadRequest) (result UploadResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.Upload")
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	if req.Actor.TenantID != req.TenantID {
		return UploadResult{}, ErrForbidden
	}

	entry, err := o.tenants.Get(ctx, req.TenantID)
	if err != nil {
		return UploadResult{}, err
	}

	ext := strings.ToLower(filepath.Ext(req.Name))
	if entry.BlocksExtension(ext) {
		logger.SecurityAlert("blocked extension upload attempt",
			logger.TenantID(req.TenantID), logger.Name(req.Name), logger.ActorID(req.Actor.ID))
		return UploadResult{}, ErrBlockedExtension
	}

	scope := catalog.Scope{TenantID: req.TenantID, DepartmentID: req.DepartmentID}

	existing, err := o.catalog.FindLiveByScope(ctx, req.TenantID, req.DepartmentID, req.ParentPath, req.Visibility, req.Name)
	finalName := req.Name
	version := 1
	var parentVersion *string
	var priorImmutableID string

	switch {
	case err == nil && entry.Compliance.SOXImmutable:
		version = existing.Version + 1
		parentVersion = &existing.ID
		priorImmutableID = existing.ID
	case err == nil:
		finalName, err = o.autoRename(ctx, req.TenantID, req.DepartmentID, req.ParentPath, req.Visibility, req.Name)
		if err != nil {
			return UploadResult{}, err
		}
	case errors.Is(err, catalog.ErrNotFound):
		// no collision, proceed with the original name
	default:
		return UploadResult{}, err
	}

	ingestResult, err := o.cas.Ingest(ctx, scope, req.Body, cas.Limits{
		MaxUploadSize:  entry.MaxUploadSizeBytes,
		RemainingQuota: entry.RemainingQuota(),
	})
	if err != nil {
		switch {
		case errors.Is(err, cas.ErrTooLarge):
			return UploadResult{}, ErrTooLarge
		case errors.Is(err, cas.ErrQuotaExceeded):
			return UploadResult{}, ErrQuotaExceeded
		default:
			return UploadResult{}, fmt.Errorf("%w: %v", ErrBackendUnavail, err)
		}
	}

	rec := &catalog.Record{
		ID:            newRecordID(),
		TenantID:      req.TenantID,
		DepartmentID:  req.DepartmentID,
		ParentPath:    req.ParentPath,
		Name:          finalName,
		SizeBytes:     ingestResult.SizeBytes,
		MediaType:     req.MediaType,
		OwnerID:       req.Actor.ID,
		Visibility:    req.Visibility,
		Version:       version,
		ParentVersion: parentVersion,
		ContentHash:   ingestResult.ContentHash,
		StorageKey:    ingestResult.StorageKey,
	}
	if err := o.catalog.InsertFile(ctx, rec); err != nil {
		return UploadResult{}, err
	}

	if priorImmutableID != "" {
		if err := o.flipImmutable(ctx, priorImmutableID); err != nil {
			logger.Error("failed to flip prior version immutable", logger.Err(err), logger.RecordID(priorImmutableID))
		}
	}

	o.emitAudit(req.TenantID, req.Actor.ID, "upload", rec.ID, finalName)
	o.enqueueDownstream(req.TenantID, rec.ID)

	return UploadResult{
		RecordID:    rec.ID,
		Name:        finalName,
		ContentHash: ingestResult.ContentHash,
		SizeBytes:   ingestResult.SizeBytes,
		DedupHit:    ingestResult.DedupHit,
		NewVersion:  version,
	}, nil
}

// flipImmutable marks a prior version record immutable after SOX
// versioning writes its successor (spec §4.6 upload).
func (o *Orchestrator) flipImmutable(ctx context.Context, id string) error {
	return o.catalog.SetImmutable(ctx, id)
}

// autoRename implements spec §4.6's "{base} ({n}){ext}" probing scheme,
// falling back to an opaque suffix past MaxAutoRenameProbes.
func (o *Orchestrator) autoRename(ctx context.Context, tenantID string, deptID *string, parentPath string, visibility catalog.Visibility, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 1; n <= o.cfg.MaxAutoRenameProbes; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		_, err := o.catalog.FindLiveByScope(ctx, tenantID, deptID, parentPath, visibility, candidate)
		if errors.Is(err, catalog.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}

	candidate := fmt.Sprintf("%s-%s%s", base, newRecordID()[:8], ext)
	return candidate, nil
}
