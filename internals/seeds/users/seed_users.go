package users

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"campusku_backend/internals/configs"
	authHelper "campusku_backend/internals/features/users/auth/helper"
	"campusku_backend/internals/features/users/user/model"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

type UserSeed struct {
	UserName   string  `json:"user_name"`
	Email      string  `json:"email"`
	FullName   string  `json:"full_name"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	Department *string `json:"department"`
}

func LoadUserSeeds(filePath string) ([]UserSeed, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	var inputs []UserSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return inputs, nil
}

func SeedUsersFromJSON(ctx context.Context, db *gorm.DB, filePath string) error {
	log := configs.GetLogger()
	log.WithField("file", filePath).Info("📥 reading users")

	inputs, err := LoadUserSeeds(filePath)
	if err != nil {
		return err
	}

	db = db.WithContext(ctx)
	for _, data := range inputs {
		email := strings.ToLower(strings.TrimSpace(data.Email))

		var existing model.UserModel
		err := db.Unscoped().Where("LOWER(email) = ?", email).First(&existing).Error
		if err == nil {
			log.WithField("email", email).Info("user exists, skipped")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup user %s: %w", email, err)
		}

		u := model.UserModel{
			UserName:   data.UserName,
			Email:      email,
			FullName:   data.FullName,
			Password:   data.Password,
			Role:       data.Role,
			Department: data.Department,
			IsActive:   true,
		}
		if err := u.Validate(); err != nil {
			return fmt.Errorf("user %s: %w", email, err)
		}
		hashed, err := authHelper.HashPassword(data.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", email, err)
		}
		u.Password = hashed

		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("insert user %s: %w", email, err)
		}
		log.WithField("email", email).Info("✅ user inserted")
	}
	return nil
}
