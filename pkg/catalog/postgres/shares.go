package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

func (s *Store) CreateShare(ctx context.Context, share *catalog.ShareToken) error {
	row := fromShare(share)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	*share = *toShare(row)
	return nil
}

func (s *Store) GetShareByToken(ctx context.Context, token string) (*catalog.ShareToken, error) {
	var row shareRow
	if err := s.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrShareNotFound
		}
		return nil, err
	}
	return toShare(&row), nil
}

// IncrementDownloads bumps the counter before the caller streams any bytes,
// so a client that disconnects mid-transfer still counts as a download.
func (s *Store) IncrementDownloads(ctx context.Context, shareID string) error {
	res := s.db.WithContext(ctx).Model(&shareRow{}).Where("id = ?", shareID).
		Update("downloads", gorm.Expr("downloads + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrShareNotFound
	}
	return nil
}

func (s *Store) DeleteShare(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Unscoped().Delete(&shareRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrShareNotFound
	}
	return nil
}

var _ catalog.Catalog = (*Store)(nil)
var _ catalog.ShareStore = (*Store)(nil)
