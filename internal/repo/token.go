package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/texnomart/internal/models"
)

// GetOrCreateAuthToken returns the user's opaque token, minting one with newKey when absent.
func (r *GormRepo) GetOrCreateAuthToken(ctx context.Context, userID uint, newKey func() (string, error)) (*models.AuthToken, error) {
	var tok models.AuthToken
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&tok).Error
	if err == nil {
		return &tok, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	key, err := newKey()
	if err != nil {
		return nil, err
	}
	tok = models.AuthToken{Key: key, UserID: userID}
	if err := r.DB.WithContext(ctx).Omit("User").Create(&tok).Error; err != nil {
		return nil, err
	}
	return &tok, nil
}

func (r *GormRepo) GetAuthToken(ctx context.Context, key string) (*models.AuthToken, error) {
	var tok models.AuthToken
	if err := r.DB.WithContext(ctx).Preload("User").Where(&models.AuthToken{Key: key}).First(&tok).Error; err != nil {
		return nil, err
	}
	return &tok, nil
}

func (r *GormRepo) DeleteAuthTokenForUser(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error
}

func (r *GormRepo) SaveOutstandingToken(ctx context.Context, t *models.OutstandingToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) FindOutstandingToken(ctx context.Context, jti string) (*models.OutstandingToken, error) {
	var t models.OutstandingToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) IsBlacklisted(ctx context.Context, outstandingID uint) (bool, error) {
	return r.exists(ctx, &models.BlacklistedToken{}, "token_id = ?", outstandingID)
}

// Blacklist revokes an outstanding token; revoking twice is a no-op.
func (r *GormRepo) Blacklist(ctx context.Context, outstandingID uint) error {
	entry := models.BlacklistedToken{TokenID: outstandingID}
	return r.DB.WithContext(ctx).
		Omit("Token").
		Where(models.BlacklistedToken{TokenID: outstandingID}).
		FirstOrCreate(&entry).Error
}
