package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

func (s *Store) InsertFile(ctx context.Context, rec *catalog.Record) error {
	row := fromRecord(rec)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !row.IsDir {
			var count int64
			q := tx.Model(&fileRow{}).Where(
				"tenant_id = ? AND parent_path = ? AND visibility = ? AND name = ? AND is_deleted = ? AND is_dir = ?",
				row.TenantID, row.ParentPath, row.Visibility, row.Name, false, false,
			)
			q = scopeDepartment(q, row.DepartmentID)
			if row.ParentVersion != nil {
				q = q.Where("id <> ?", *row.ParentVersion)
			}
			if err := q.Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return catalog.ErrDuplicateName
			}
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return err
	}
	*rec = *toRecord(row)
	return nil
}

// SetImmutable flips is_immutable on an existing row via UPDATE, never
// INSERT — InsertFile's tx.Create would collide on the primary key.
func (s *Store) SetImmutable(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&fileRow{}).Where("id = ?", id).Update("is_immutable", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// scopeDepartment applies a NULL-safe equality filter for DepartmentID,
// matching memory.deptEqual's semantics (nil == nil, otherwise compare).
func scopeDepartment(q *gorm.DB, dept *string) *gorm.DB {
	if dept == nil {
		return q.Where("department_id IS NULL")
	}
	return q.Where("department_id = ?", *dept)
}

// FindLiveByScope only ever matches the current, mutable head of a name —
// a SOX-superseded predecessor stays is_deleted = false but is_immutable =
// true, and must not be confused with the record actually occupying the
// name today.
func (s *Store) FindLiveByScope(ctx context.Context, tenantID string, departmentID *string, parentPath string, visibility catalog.Visibility, name string) (*catalog.Record, error) {
	var row fileRow
	q := s.db.WithContext(ctx).Where(
		"tenant_id = ? AND parent_path = ? AND visibility = ? AND name = ? AND is_deleted = ? AND is_immutable = ?",
		tenantID, parentPath, string(visibility), name, false, false,
	)
	q = scopeDepartment(q, departmentID)
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return toRecord(&row), nil
}

func (s *Store) FindLiveByHash(ctx context.Context, tenantID string, departmentID *string, hash string) (*catalog.Record, error) {
	var row fileRow
	q := s.db.WithContext(ctx).Where(
		"tenant_id = ? AND content_hash = ? AND is_deleted = ? AND is_dir = ?",
		tenantID, hash, false, false,
	)
	q = scopeDepartment(q, departmentID)
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return toRecord(&row), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*catalog.Record, error) {
	var row fileRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return toRecord(&row), nil
}

func (s *Store) RefCountLiveByHash(ctx context.Context, tenantID string, departmentID *string, hash string, excludingID string) (int, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&fileRow{}).Where(
		"tenant_id = ? AND content_hash = ? AND is_deleted = ? AND is_dir = ? AND id <> ?",
		tenantID, hash, false, false, excludingID,
	)
	q = scopeDepartment(q, departmentID)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Store) HardDelete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Unscoped().Delete(&fileRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
