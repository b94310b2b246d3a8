package repo

import (
	"context"

	"github.com/Skotchmaster/minishop/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) FindSessionByJTI(ctx context.Context, jti string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// RevokeSession marks the session revoked and reports whether a live
// session was found.
func (r *GormRepo) RevokeSession(ctx context.Context, jti string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", now, true).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
