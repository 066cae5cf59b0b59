// Package memory implements catalog.Catalog and catalog.ShareStore entirely
// in-process: a mutex-guarded map keyed by ID, with scans for scoped
// lookups. Used for unit tests and the single-node "no database
// configured" deployment mode.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]*catalog.Record
	shares  map[string]*catalog.ShareToken // keyed by token string
	byID    map[string]*catalog.ShareToken // keyed by share ID
}

func New() *Store {
	return &Store{
		records: make(map[string]*catalog.Record),
		shares:  make(map[string]*catalog.ShareToken),
		byID:    make(map[string]*catalog.ShareToken),
	}
}

func clone(r *catalog.Record) *catalog.Record {
	cp := *r
	return &cp
}

func deptEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Store) InsertFile(_ context.Context, rec *catalog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !rec.IsDir {
		for _, existing := range s.records {
			if existing.IsDeleted || existing.IsDir {
				continue
			}
			if rec.ParentVersion != nil && existing.ID == *rec.ParentVersion {
				continue
			}
			if existing.TenantID == rec.TenantID &&
				deptEqual(existing.DepartmentID, rec.DepartmentID) &&
				existing.ParentPath == rec.ParentPath &&
				existing.Visibility == rec.Visibility &&
				existing.Name == rec.Name {
				return catalog.ErrDuplicateName
			}
		}
	}
	s.records[rec.ID] = clone(rec)
	return nil
}

// SetImmutable flips a record's IsImmutable flag in place, closing out a
// SOX version chain once its successor has been inserted.
func (s *Store) SetImmutable(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	r.IsImmutable = true
	return nil
}

// FindLiveByScope only ever matches the current, mutable head of a name —
// a SOX-superseded predecessor stays IsDeleted false but IsImmutable true,
// and must not be confused with the record actually occupying the name
// today.
func (s *Store) FindLiveByScope(_ context.Context, tenantID string, departmentID *string, parentPath string, visibility catalog.Visibility, name string) (*catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.IsDeleted || r.IsImmutable {
			continue
		}
		if r.TenantID == tenantID && deptEqual(r.DepartmentID, departmentID) &&
			r.ParentPath == parentPath && r.Visibility == visibility && r.Name == name {
			return clone(r), nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) FindLiveByHash(_ context.Context, tenantID string, departmentID *string, hash string) (*catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.IsDeleted || r.IsDir {
			continue
		}
		if r.TenantID == tenantID && deptEqual(r.DepartmentID, departmentID) && r.ContentHash == hash {
			return clone(r), nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) GetByID(_ context.Context, id string) (*catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return clone(r), nil
}

func (s *Store) ListChildren(_ context.Context, tenantID string, departmentID *string, parentPath string, visibility *catalog.Visibility) ([]catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Record
	for _, r := range s.records {
		if r.IsDeleted || r.TenantID != tenantID || r.ParentPath != parentPath {
			continue
		}
		if !deptEqual(r.DepartmentID, departmentID) {
			continue
		}
		if visibility != nil && r.Visibility != *visibility {
			continue
		}
		rec := clone(r)
		if rec.IsDir {
			rec.SizeBytes = s.derivedDirSize(rec)
		}
		out = append(out, *rec)
	}
	return out, nil
}

// derivedDirSize sums live, non-directory descendants at query time.
// Caller must hold s.mu for reading.
func (s *Store) derivedDirSize(dir *catalog.Record) uint64 {
	prefix := dir.EffectivePath()
	var total uint64
	for _, r := range s.records {
		if r.IsDeleted || r.IsDir {
			continue
		}
		if r.ParentPath == prefix || strings.HasPrefix(r.ParentPath, prefix+"/") {
			total += r.SizeBytes
		}
	}
	return total
}

func (s *Store) ListLiveDescendants(_ context.Context, dirRecordID string) ([]catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, ok := s.records[dirRecordID]
	if !ok || !dir.IsDir {
		return nil, catalog.ErrNotADirectory
	}
	prefix := dir.EffectivePath()

	var out []catalog.Record
	for _, r := range s.records {
		if r.IsDeleted || r.IsDir {
			continue
		}
		if r.ParentPath == prefix || strings.HasPrefix(r.ParentPath, prefix+"/") {
			out = append(out, *clone(r))
		}
	}
	return out, nil
}

func (s *Store) MarkDeleted(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	now := time.Now()
	r.IsDeleted = true
	r.DeletedAt = &now
	return nil
}

func (s *Store) MarkDeletedDescendants(_ context.Context, id string, pathPrefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	now := time.Now()
	r.IsDeleted = true
	r.DeletedAt = &now

	for _, d := range s.records {
		if d.ID == id || d.IsDeleted {
			continue
		}
		if d.ParentPath == pathPrefix || strings.HasPrefix(d.ParentPath, pathPrefix+"/") {
			d.IsDeleted = true
			d.DeletedAt = &now
		}
	}
	return nil
}

func (s *Store) Restore(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	r.IsDeleted = false
	r.DeletedAt = nil
	return nil
}

func (s *Store) RestoreDescendants(_ context.Context, id string, pathPrefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	r.IsDeleted = false
	r.DeletedAt = nil

	for _, d := range s.records {
		if d.ID == id {
			continue
		}
		if d.ParentPath == pathPrefix || strings.HasPrefix(d.ParentPath, pathPrefix+"/") {
			d.IsDeleted = false
			d.DeletedAt = nil
		}
	}
	return nil
}

func (s *Store) Rename(_ context.Context, id string, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	oldEffective := r.EffectivePath()
	r.Name = newName
	if !r.IsDir {
		return nil
	}
	newEffective := r.EffectivePath()
	if newEffective == oldEffective {
		return nil
	}
	for _, d := range s.records {
		if d.ID == id {
			continue
		}
		if d.ParentPath == oldEffective {
			d.ParentPath = newEffective
		} else if strings.HasPrefix(d.ParentPath, oldEffective+"/") {
			d.ParentPath = newEffective + strings.TrimPrefix(d.ParentPath, oldEffective)
		}
	}
	return nil
}

func (s *Store) Move(_ context.Context, id string, newParentPath string, newDepartmentID *string, newVisibility catalog.Visibility, newOwnerID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	oldEffective := r.EffectivePath()
	r.ParentPath = newParentPath
	r.DepartmentID = newDepartmentID
	r.Visibility = newVisibility
	if newOwnerID != nil {
		r.OwnerID = *newOwnerID
	}
	if !r.IsDir {
		return nil
	}
	newEffective := r.EffectivePath()
	if newEffective == oldEffective {
		return nil
	}
	for _, d := range s.records {
		if d.ID == id {
			continue
		}
		if d.ParentPath == oldEffective {
			d.ParentPath = newEffective
		} else if strings.HasPrefix(d.ParentPath, oldEffective+"/") {
			d.ParentPath = newEffective + strings.TrimPrefix(d.ParentPath, oldEffective)
		}
	}
	return nil
}

func (s *Store) SetLock(_ context.Context, id string, lock catalog.LockState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if r.Lock.IsLocked {
		return catalog.ErrAlreadyLocked
	}
	r.Lock = lock
	return nil
}

func (s *Store) ClearLock(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if !r.Lock.IsLocked {
		return catalog.ErrNotLocked
	}
	r.Lock = catalog.LockState{}
	return nil
}

func (s *Store) RefCountLiveByHash(_ context.Context, tenantID string, departmentID *string, hash string, excludingID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.records {
		if r.ID == excludingID || r.IsDeleted || r.IsDir {
			continue
		}
		if r.TenantID == tenantID && deptEqual(r.DepartmentID, departmentID) && r.ContentHash == hash {
			count++
		}
	}
	return count, nil
}

func (s *Store) HardDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *Store) Healthcheck(_ context.Context) error { return nil }

// --- ShareStore ---

func (s *Store) CreateShare(_ context.Context, share *catalog.ShareToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.shares[share.Token]; exists {
		return fmt.Errorf("memory: share token collision")
	}
	cp := *share
	s.shares[share.Token] = &cp
	s.byID[share.ID] = &cp
	return nil
}

func (s *Store) GetShareByToken(_ context.Context, token string) (*catalog.ShareToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shares[token]
	if !ok {
		return nil, catalog.ErrShareNotFound
	}
	cp := *sh
	return &cp, nil
}

func (s *Store) IncrementDownloads(_ context.Context, shareID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.byID[shareID]
	if !ok {
		return catalog.ErrShareNotFound
	}
	sh.Downloads++
	return nil
}

func (s *Store) DeleteShare(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.byID[id]
	if !ok {
		return catalog.ErrShareNotFound
	}
	delete(s.shares, sh.Token)
	delete(s.byID, id)
	return nil
}

var _ catalog.Catalog = (*Store)(nil)
var _ catalog.ShareStore = (*Store)(nil)
