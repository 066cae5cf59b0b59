package postgres

import (
	"context"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

// ListChildren returns direct live children of parentPath. Directory rows
// get their SizeBytes overwritten with a live sum over descendants:
// metadata never stores a directory's size, it is derived at query time.
func (s *Store) ListChildren(ctx context.Context, tenantID string, departmentID *string, parentPath string, visibility *catalog.Visibility) ([]catalog.Record, error) {
	var rows []fileRow
	q := s.db.WithContext(ctx).Where("tenant_id = ? AND parent_path = ? AND is_deleted = ?", tenantID, parentPath, false)
	q = scopeDepartment(q, departmentID)
	if visibility != nil {
		q = q.Where("visibility = ?", string(*visibility))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]catalog.Record, 0, len(rows))
	for i := range rows {
		rec := toRecord(&rows[i])
		if rec.IsDir {
			size, err := s.derivedDirSize(ctx, rec.EffectivePath())
			if err != nil {
				return nil, err
			}
			rec.SizeBytes = size
		}
		out = append(out, *rec)
	}
	return out, nil
}

// derivedDirSize sums SizeBytes over every live, non-directory row whose
// ParentPath equals prefix or is nested under it, via a LIKE-prefix match
// on the indexed parent_path column (spec §4.3).
func (s *Store) derivedDirSize(ctx context.Context, prefix string) (uint64, error) {
	var total *uint64
	err := s.db.WithContext(ctx).Model(&fileRow{}).
		Select("SUM(size_bytes)").
		Where("is_deleted = ? AND is_dir = ? AND (parent_path = ? OR parent_path LIKE ?)", false, false, prefix, prefix+"/%").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (s *Store) ListLiveDescendants(ctx context.Context, dirRecordID string) ([]catalog.Record, error) {
	dir, err := s.GetByID(ctx, dirRecordID)
	if err != nil {
		return nil, err
	}
	if !dir.IsDir {
		return nil, catalog.ErrNotADirectory
	}
	prefix := dir.EffectivePath()

	var rows []fileRow
	err = s.db.WithContext(ctx).
		Where("is_deleted = ? AND is_dir = ? AND (parent_path = ? OR parent_path LIKE ?)", false, false, prefix, prefix+"/%").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Record, 0, len(rows))
	for i := range rows {
		out = append(out, *toRecord(&rows[i]))
	}
	return out, nil
}
