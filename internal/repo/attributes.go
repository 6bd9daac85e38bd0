package repo

import (
	"context"

	"github.com/Skotchmaster/texnomart/internal/models"
)

func (r *GormRepo) ListAttributeKeys(ctx context.Context) ([]models.AttributeKey, error) {
	out := make([]models.AttributeKey, 0)
	if err := r.DB.WithContext(ctx).Order(newestFirst).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) ListAttributeValues(ctx context.Context) ([]models.AttributeValue, error) {
	out := make([]models.AttributeValue, 0)
	if err := r.DB.WithContext(ctx).Order(newestFirst).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) CreateAttributeKey(ctx context.Context, k *models.AttributeKey) error {
	return r.DB.WithContext(ctx).Create(k).Error
}

func (r *GormRepo) CreateAttributeValue(ctx context.Context, v *models.AttributeValue) error {
	return r.DB.WithContext(ctx).Create(v).Error
}

func (r *GormRepo) AttributeKeyExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.AttributeKey{}, "id = ?", id)
}

func (r *GormRepo) AttributeValueExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.AttributeValue{}, "id = ?", id)
}

func (r *GormRepo) CreateAttribute(ctx context.Context, a *models.Attribute) error {
	db := r.DB.WithContext(ctx)
	if err := db.Omit("AttributeKey", "AttributeValue").Create(a).Error; err != nil {
		return err
	}
	return db.Preload("AttributeKey").Preload("AttributeValue").First(a, a.ID).Error
}
