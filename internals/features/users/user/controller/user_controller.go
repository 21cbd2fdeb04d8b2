package controller

import (
	"strconv"
	"strings"

	authHelper "campusku_backend/internals/features/users/auth/helper"
	"campusku_backend/internals/features/users/user/dto"
	"campusku_backend/internals/features/users/user/model"
	helper "campusku_backend/internals/helpers"
	"campusku_backend/internals/helpers/apperror"
	helperAuth "campusku_backend/internals/helpers/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewUserController(db *gorm.DB, v *validator.Validate) *UserController {
	return &UserController{DB: db, Validate: v}
}

// GET /api/admin/users?q=&role=&is_active=
func (uc *UserController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	db := uc.DB.WithContext(c.UserContext()).Model(&model.UserModel{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		s := "%" + q + "%"
		db = db.Where("user_name ILIKE ? OR email ILIKE ? OR full_name ILIKE ?", s, s, s)
	}
	if role := strings.ToUpper(strings.TrimSpace(c.Query("role"))); role != "" {
		db = db.Where("role = ?", role)
	}
	if v := strings.TrimSpace(c.Query("is_active")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "is_active must be a boolean")
		}
		db = db.Where("is_active = ?", active)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperror.FromDB(err, "user")
	}
	var users []model.UserModel
	if err := p.Apply(db.Order("full_name ASC")).Find(&users).Error; err != nil {
		return apperror.FromDB(err, "user")
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.FromModel(&users[i]))
	}
	return helper.JsonList(c, "Users fetched successfully", out, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

func (uc *UserController) GetByID(c *fiber.Ctx) error {
	u, err := uc.load(c)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromModel(u))
}

// POST /api/admin/users
func (uc *UserController) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := uc.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}
	if err := authHelper.CheckPasswordPolicy(req.Password); err != nil {
		return apperror.Validation("%s", err.Error())
	}

	u := req.ToModel()
	if err := u.Validate(); err != nil {
		return apperror.Validation("%s", err.Error())
	}
	hash, err := authHelper.HashPassword(req.Password)
	if err != nil {
		return apperror.Internal(err, "hash password")
	}
	u.Password = hash

	err = uc.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return apperror.FromDB(err, "user")
		}
		// is_active has a column default, so false needs an explicit write
		if !u.IsActive {
			return apperror.FromDB(tx.Model(u).Update("is_active", false).Error, "user")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "User created", dto.FromModel(u))
}

// PATCH /api/admin/users/:id
func (uc *UserController) Update(c *fiber.Ctx) error {
	u, err := uc.load(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := uc.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	if self, _ := helperAuth.GetUserIDFromToken(c); self == u.ID {
		if req.IsActive != nil && !*req.IsActive {
			return apperror.InvalidState("you cannot deactivate your own account")
		}
		if req.Role != nil && *req.Role != u.Role {
			return apperror.InvalidState("you cannot change your own role")
		}
	}

	changes := req.Apply()
	if req.Password != nil {
		if err := authHelper.CheckPasswordPolicy(*req.Password); err != nil {
			return apperror.Validation("%s", err.Error())
		}
		hash, err := authHelper.HashPassword(*req.Password)
		if err != nil {
			return apperror.Internal(err, "hash password")
		}
		changes["password"] = hash
	}

	db := uc.DB.WithContext(c.UserContext())
	if len(changes) > 0 {
		if err := db.Model(&model.UserModel{}).Where("id = ?", u.ID).Updates(changes).Error; err != nil {
			return apperror.FromDB(err, "user")
		}
	}
	if err := db.First(u, "id = ?", u.ID).Error; err != nil {
		return apperror.FromDB(err, "user")
	}
	return helper.JsonUpdated(c, "User updated", dto.FromModel(u))
}

// DELETE /api/admin/users/:id (soft delete)
func (uc *UserController) Delete(c *fiber.Ctx) error {
	u, err := uc.load(c)
	if err != nil {
		return err
	}
	if self, _ := helperAuth.GetUserIDFromToken(c); self == u.ID {
		return apperror.InvalidState("you cannot delete your own account")
	}
	if err := uc.DB.WithContext(c.UserContext()).Delete(u).Error; err != nil {
		return apperror.FromDB(err, "user")
	}
	return helper.JsonDeleted(c, "User deleted", fiber.Map{"id": u.ID})
}

func (uc *UserController) load(c *fiber.Ctx) (*model.UserModel, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
	}
	var u model.UserModel
	if err := uc.DB.WithContext(c.UserContext()).First(&u, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	return &u, nil
}
