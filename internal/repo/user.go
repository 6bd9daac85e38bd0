package repo

import (
	"context"

	"github.com/Skotchmaster/texnomart/internal/models"
)

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, &models.User{}, "username = ?", username)
}

func (r *GormRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, &models.User{}, "email = ?", email)
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

// StaffSuperuserEmails lists the addresses of users that are both staff and superuser.
func (r *GormRepo) StaffSuperuserEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("is_staff = ? AND is_superuser = ? AND email <> ''", true, true).
		Order("id ASC").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}
