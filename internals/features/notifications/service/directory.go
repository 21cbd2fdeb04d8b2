package service

import (
	"context"

	userModel "campusku_backend/internals/features/users/user/model"
	"campusku_backend/internals/helpers/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDirectory reads recipients from the users table.
type UserDirectory struct {
	DB *gorm.DB
}

func (d UserDirectory) Recipient(ctx context.Context, userID uuid.UUID) (*Recipient, error) {
	var u userModel.UserModel
	err := d.DB.WithContext(ctx).
		Select("id", "email", "full_name", "user_name").
		First(&u, "id = ?", userID).Error
	if err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	name := u.FullName
	if name == "" {
		name = u.UserName
	}
	return &Recipient{Email: u.Email, Name: name}, nil
}
