package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

func (o *Orchestrator) loadLive(ctx context.Context, recordID string) (*catalog.Record, error) {
	rec, err := o.catalog.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.IsDeleted {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Rename implements spec §4.6 rename: authorize, reject locked/immutable,
// extract a bare base name, probe uniqueness, then delegate the
// (possibly descendant-rewriting) update to the catalog.
func (o *Orchestrator) Rename(ctx context.Context, actor access.Actor, recordID string, newName string) error {
	rec, err := o.loadLive(ctx, recordID)
	if err != nil {
		return err
	}
	if err := o.decide(ctx, actor, rec, access.ActionWrite, false); err != nil {
		return err
	}
	if rec.Lock.IsLocked {
		return ErrLocked
	}
	if rec.IsImmutable {
		return ErrImmutable
	}

	baseName := filepath.Base(strings.ReplaceAll(newName, "\\", "/"))
	if baseName == "" || baseName == "." || baseName == "/" {
		return fmt.Errorf("orchestrator: invalid name %q", newName)
	}

	if baseName != rec.Name {
		_, err := o.catalog.FindLiveByScope(ctx, rec.TenantID, rec.DepartmentID, rec.ParentPath, rec.Visibility, baseName)
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return err
		}
	}

	if err := o.catalog.Rename(ctx, recordID, baseName); err != nil {
		return err
	}
	o.emitAudit(rec.TenantID, actor.ID, "rename", recordID, baseName)
	return nil
}

// MoveRequest carries the move target, resolved by the caller from
// target-folder-id to a parent path (spec §6 "target folder id").
type MoveRequest struct {
	RecordID        string
	NewParentPath   string
	NewDepartmentID *string
	NewVisibility   catalog.Visibility
}

// Move implements spec §4.6 move.
func (o *Orchestrator) Move(ctx context.Context, actor access.Actor, req MoveRequest) error {
	rec, err := o.loadLive(ctx, req.RecordID)
	if err != nil {
		return err
	}
	if err := o.decide(ctx, actor, rec, access.ActionWrite, false); err != nil {
		return err
	}
	if rec.Lock.IsLocked {
		return ErrLocked
	}

	_, err = o.catalog.FindLiveByScope(ctx, rec.TenantID, req.NewDepartmentID, req.NewParentPath, req.NewVisibility, rec.Name)
	if err == nil {
		return ErrDuplicate
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return err
	}

	var newOwner *string
	if req.NewVisibility == catalog.VisibilityPrivate {
		actorID := actor.ID
		newOwner = &actorID
	}

	if err := o.catalog.Move(ctx, req.RecordID, req.NewParentPath, req.NewDepartmentID, req.NewVisibility, newOwner); err != nil {
		return err
	}
	o.emitAudit(rec.TenantID, actor.ID, "move", req.RecordID, req.NewParentPath)
	return nil
}

// SoftDelete implements spec §4.6 soft delete.
func (o *Orchestrator) SoftDelete(ctx context.Context, actor access.Actor, recordID string) error {
	rec, err := o.loadLive(ctx, recordID)
	if err != nil {
		return err
	}
	if err := o.decide(ctx, actor, rec, access.ActionDelete, false); err != nil {
		return err
	}
	if rec.Lock.IsLocked {
		return ErrLocked
	}
	if rec.IsImmutable {
		return ErrImmutable
	}

	if rec.IsDir {
		if err := o.catalog.MarkDeletedDescendants(ctx, recordID, rec.EffectivePath()); err != nil {
			return err
		}
	} else if err := o.catalog.MarkDeleted(ctx, recordID); err != nil {
		return err
	}
	o.emitAudit(rec.TenantID, actor.ID, "soft-delete", recordID, "")
	return nil
}

// Restore implements spec §4.6 restore: the inverse of soft delete, never
// resurrecting ancestors.
func (o *Orchestrator) Restore(ctx context.Context, actor access.Actor, recordID string) error {
	rec, err := o.catalog.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := o.decide(ctx, actor, rec, access.ActionWrite, false); err != nil {
		return err
	}

	if rec.IsDir {
		if err := o.catalog.RestoreDescendants(ctx, recordID, rec.EffectivePath()); err != nil {
			return err
		}
	} else if err := o.catalog.Restore(ctx, recordID); err != nil {
		return err
	}
	o.emitAudit(rec.TenantID, actor.ID, "restore", recordID, "")
	return nil
}

// PermanentDeleteResult reports the counts spec §7 requires ("the number of
// catalog rows affected and the number of backend objects actually
// removed").
type PermanentDeleteResult struct {
	RowsDeleted    int
	ObjectsDeleted int
}

// PermanentDelete implements spec §4.6 permanent delete, including the
// recursive directory case.
func (o *Orchestrator) PermanentDelete(ctx context.Context, actor access.Actor, recordID string) (PermanentDeleteResult, error) {
	rec, err := o.catalog.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return PermanentDeleteResult{}, ErrNotFound
		}
		return PermanentDeleteResult{}, err
	}
	if err := o.decide(ctx, actor, rec, access.ActionDelete, false); err != nil {
		return PermanentDeleteResult{}, err
	}

	if !rec.IsDir {
		result, err := o.permanentDeleteOne(ctx, rec)
		if err != nil {
			return PermanentDeleteResult{}, err
		}
		o.emitAudit(rec.TenantID, actor.ID, "permanent-delete", recordID, "")
		return result, nil
	}

	descendants, err := o.catalog.ListLiveDescendants(ctx, recordID)
	if err != nil {
		return PermanentDeleteResult{}, err
	}
	total := PermanentDeleteResult{}
	for _, d := range descendants {
		r, err := o.permanentDeleteOne(ctx, &d)
		if err != nil {
			return total, err
		}
		total.RowsDeleted += r.RowsDeleted
		total.ObjectsDeleted += r.ObjectsDeleted
	}
	if err := o.catalog.HardDelete(ctx, recordID); err != nil {
		return total, err
	}
	total.RowsDeleted++
	o.emitAudit(rec.TenantID, actor.ID, "permanent-delete", recordID, "directory")
	return total, nil
}

func (o *Orchestrator) permanentDeleteOne(ctx context.Context, rec *catalog.Record) (PermanentDeleteResult, error) {
	scope := catalog.Scope{TenantID: rec.TenantID, DepartmentID: rec.DepartmentID}
	count, err := o.catalog.RefCountLiveByHash(ctx, rec.TenantID, rec.DepartmentID, rec.ContentHash, rec.ID)
	if err != nil {
		return PermanentDeleteResult{}, err
	}
	if err := o.catalog.HardDelete(ctx, rec.ID); err != nil {
		return PermanentDeleteResult{}, err
	}
	objectsDeleted := 0
	if count == 0 {
		if err := o.cas.Delete(ctx, scope, rec.ContentHash, rec.ID, rec.StorageKey); err != nil {
			// Backend delete failures leave an orphan for an out-of-scope
			// sweeper (spec §4.2); the catalog change still stands.
			return PermanentDeleteResult{RowsDeleted: 1}, nil
		}
		objectsDeleted = 1
	}
	return PermanentDeleteResult{RowsDeleted: 1, ObjectsDeleted: objectsDeleted}, nil
}
