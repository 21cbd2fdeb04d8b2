package controller

import (
	"strings"

	"campusku_backend/internals/features/campus/trainers/dto"
	"campusku_backend/internals/features/campus/trainers/model"
	helper "campusku_backend/internals/helpers"
	"campusku_backend/internals/helpers/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainerController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewTrainerController(db *gorm.DB, v *validator.Validate) *TrainerController {
	return &TrainerController{DB: db, Validate: v}
}

// GET /api/admin/trainers?q=&page=&per_page=
func (ctl *TrainerController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	db := ctl.DB.WithContext(c.UserContext()).Model(&model.TrainerModel{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		s := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(specialization,'')) LIKE ?", s, s)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperror.FromDB(err, "trainer")
	}
	var rows []model.TrainerModel
	if err := p.Apply(db.Order("name ASC")).Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "trainer")
	}

	out := make([]dto.TrainerResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.ToTrainerResponse(m))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

func (ctl *TrainerController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid trainer id")
	}
	var m model.TrainerModel
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return apperror.FromDB(err, "trainer")
	}
	return helper.JsonOK(c, "ok", dto.ToTrainerResponse(m))
}

func (ctl *TrainerController) Create(c *fiber.Ctx) error {
	var req dto.CreateTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	m := req.ToModel()
	if err := ctl.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		return apperror.FromDB(err, "trainer")
	}
	return helper.JsonCreated(c, "Trainer created", dto.ToTrainerResponse(m))
}

func (ctl *TrainerController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid trainer id")
	}
	var req dto.UpdateTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	db := ctl.DB.WithContext(c.UserContext())
	var m model.TrainerModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return apperror.FromDB(err, "trainer")
	}
	if changes := req.Apply(); len(changes) > 0 {
		if err := db.Model(&m).Updates(changes).Error; err != nil {
			return apperror.FromDB(err, "trainer")
		}
	}
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return apperror.FromDB(err, "trainer")
	}
	return helper.JsonUpdated(c, "Trainer updated", dto.ToTrainerResponse(m))
}

// Delete is a soft delete; sections keep their trainer_id.
func (ctl *TrainerController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid trainer id")
	}
	res := ctl.DB.WithContext(c.UserContext()).Delete(&model.TrainerModel{}, "id = ?", id)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "trainer")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("trainer not found")
	}
	return helper.JsonDeleted(c, "Trainer deleted", fiber.Map{"id": id})
}
