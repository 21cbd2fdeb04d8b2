package model

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validate = validator.New()

// UserModel holds campus staff accounts (admins and faculty).
type UserModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserName   string         `gorm:"size:50;not null;uniqueIndex" json:"user_name" validate:"required,min=3,max=50"`
	Email      string         `gorm:"size:255;not null;uniqueIndex" json:"email" validate:"required,email"`
	FullName   string         `gorm:"size:150;not null" json:"full_name" validate:"required,max=150"`
	Password   string         `gorm:"not null" json:"-" validate:"required,min=8"`
	Role       string         `gorm:"type:varchar(20);not null;default:'FACULTY'" json:"role" validate:"required,oneof=ADMIN FACULTY"`
	Department *string        `gorm:"size:120" json:"department,omitempty"`
	Phone      *string        `gorm:"size:30" json:"phone,omitempty"`
	IsActive   bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) SetDefaultValues() {
	if strings.TrimSpace(u.Role) == "" {
		u.Role = "FACULTY"
	}
	u.Role = strings.ToUpper(strings.TrimSpace(u.Role))
}

func (u *UserModel) IsAdmin() bool { return u.Role == "ADMIN" }

// Validate checks the model against its validate tags.
func (u *UserModel) Validate() error {
	u.SetDefaultValues()
	if err := validate.Struct(u); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	parts := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			parts = append(parts, fieldErr.Field()+" is required")
		case "email":
			parts = append(parts, "invalid email format")
		case "min":
			parts = append(parts, fieldErr.Field()+" must be at least "+fieldErr.Param()+" characters")
		case "max":
			parts = append(parts, fieldErr.Field()+" must be at most "+fieldErr.Param()+" characters")
		case "oneof":
			parts = append(parts, fieldErr.Field()+" must be one of "+fieldErr.Param())
		default:
			parts = append(parts, fieldErr.Field()+" is invalid")
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
