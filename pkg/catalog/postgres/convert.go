package postgres

import "github.com/mladen4o/ClovaLink/pkg/catalog"

func toRecord(r *fileRow) *catalog.Record {
	return &catalog.Record{
		ID:              r.ID,
		TenantID:        r.TenantID,
		DepartmentID:    r.DepartmentID,
		ParentPath:      r.ParentPath,
		Name:            r.Name,
		SizeBytes:       r.SizeBytes,
		MediaType:       r.MediaType,
		IsDir:           r.IsDir,
		OwnerID:         r.OwnerID,
		Visibility:      catalog.Visibility(r.Visibility),
		Version:         r.Version,
		ParentVersion:   r.ParentVersion,
		IsImmutable:     r.IsImmutable,
		ContentHash:     r.ContentHash,
		StorageKey:      r.StorageKey,
		IsDeleted:       r.IsDeleted,
		DeletedAt:       r.DeletedAt,
		IsCompanyFolder: r.IsCompanyFolder,
		GroupID:         r.GroupID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Lock: catalog.LockState{
			IsLocked:     r.IsLocked,
			LockerID:     r.LockerID,
			LockedAt:     r.LockedAt,
			PasswordHash: r.LockPassHash,
			RequiredRole: r.LockRole,
		},
	}
}

func fromRecord(rec *catalog.Record) *fileRow {
	return &fileRow{
		ID:              rec.ID,
		TenantID:        rec.TenantID,
		DepartmentID:    rec.DepartmentID,
		ParentPath:      rec.ParentPath,
		Name:            rec.Name,
		SizeBytes:       rec.SizeBytes,
		MediaType:       rec.MediaType,
		IsDir:           rec.IsDir,
		OwnerID:         rec.OwnerID,
		Visibility:      string(rec.Visibility),
		Version:         rec.Version,
		ParentVersion:   rec.ParentVersion,
		IsImmutable:     rec.IsImmutable,
		ContentHash:     rec.ContentHash,
		StorageKey:      rec.StorageKey,
		IsDeleted:       rec.IsDeleted,
		DeletedAt:       rec.DeletedAt,
		IsLocked:        rec.Lock.IsLocked,
		LockerID:        rec.Lock.LockerID,
		LockedAt:        rec.Lock.LockedAt,
		LockPassHash:    rec.Lock.PasswordHash,
		LockRole:        rec.Lock.RequiredRole,
		IsCompanyFolder: rec.IsCompanyFolder,
		GroupID:         rec.GroupID,
	}
}

func toShare(r *shareRow) *catalog.ShareToken {
	return &catalog.ShareToken{
		ID:           r.ID,
		TenantID:     r.TenantID,
		RecordID:     r.RecordID,
		Token:        r.Token,
		CreatorID:    r.CreatorID,
		IsPublic:     r.IsPublic,
		ExpiresAt:    r.ExpiresAt,
		Downloads:    r.Downloads,
		Policy:       catalog.SharePolicy(r.Policy),
		SharedWith:   r.SharedWith,
		PasswordHash: r.PassHash,
		CreatedAt:    r.CreatedAt,
	}
}

func fromShare(s *catalog.ShareToken) *shareRow {
	return &shareRow{
		ID:         s.ID,
		TenantID:   s.TenantID,
		RecordID:   s.RecordID,
		Token:      s.Token,
		CreatorID:  s.CreatorID,
		IsPublic:   s.IsPublic,
		ExpiresAt:  s.ExpiresAt,
		Downloads:  s.Downloads,
		Policy:     string(s.Policy),
		SharedWith: s.SharedWith,
		PassHash:   s.PasswordHash,
	}
}
