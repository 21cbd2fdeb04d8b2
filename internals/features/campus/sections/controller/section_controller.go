package controller

import (
	"strings"

	"campusku_backend/internals/features/campus/sections/dto"
	"campusku_backend/internals/features/campus/sections/model"
	"campusku_backend/internals/features/campus/sections/service"
	trainerModel "campusku_backend/internals/features/campus/trainers/model"
	helper "campusku_backend/internals/helpers"
	"campusku_backend/internals/helpers/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SectionController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewSectionController(db *gorm.DB, v *validator.Validate) *SectionController {
	return &SectionController{DB: db, Validate: v}
}

// GET /api/admin/sections?q=&trainer_id=
func (ctl *SectionController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	db := ctl.DB.WithContext(c.UserContext()).Model(&model.SectionModel{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if v := strings.TrimSpace(c.Query("trainer_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid trainer_id")
		}
		db = db.Where("trainer_id = ?", id)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperror.FromDB(err, "section")
	}
	var rows []model.SectionModel
	if err := p.Apply(db.Order("name ASC")).Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "section")
	}

	names, err := ctl.trainerNames(c, rows)
	if err != nil {
		return err
	}
	out := make([]dto.SectionResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.ToSectionResponse(m, lookup(names, m.TrainerID)))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

func (ctl *SectionController) GetByID(c *fiber.Ctx) error {
	m, err := ctl.load(c)
	if err != nil {
		return err
	}
	names, err := ctl.trainerNames(c, []model.SectionModel{*m})
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.ToSectionResponse(*m, lookup(names, m.TrainerID)))
}

func (ctl *SectionController) Create(c *fiber.Ctx) error {
	var req dto.CreateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}
	if err := ctl.ensureTrainer(c, req.TrainerID); err != nil {
		return err
	}

	m := model.SectionModel{Name: req.Name, TrainerID: req.TrainerID}
	if err := ctl.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		return apperror.FromDB(err, "section")
	}
	return helper.JsonCreated(c, "Section created", dto.ToSectionResponse(m, nil))
}

func (ctl *SectionController) Update(c *fiber.Ctx) error {
	m, err := ctl.load(c)
	if err != nil {
		return err
	}
	var req dto.UpdateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}
	if err := ctl.ensureTrainer(c, req.TrainerID); err != nil {
		return err
	}

	db := ctl.DB.WithContext(c.UserContext())
	if changes := req.Apply(); len(changes) > 0 {
		if err := db.Model(m).Updates(changes).Error; err != nil {
			return apperror.FromDB(err, "section")
		}
	}
	if err := db.First(m, "id = ?", m.ID).Error; err != nil {
		return apperror.FromDB(err, "section")
	}
	return helper.JsonUpdated(c, "Section updated", dto.ToSectionResponse(*m, nil))
}

// POST /api/admin/sections/:id/recount
func (ctl *SectionController) Recount(c *fiber.Ctx) error {
	m, err := ctl.load(c)
	if err != nil {
		return err
	}
	db := ctl.DB.WithContext(c.UserContext())
	if err := service.RecomputeStrength(db, m.ID); err != nil {
		return err
	}
	if err := db.First(m, "id = ?", m.ID).Error; err != nil {
		return apperror.FromDB(err, "section")
	}
	return helper.JsonOK(c, "Strength recomputed", dto.ToSectionResponse(*m, nil))
}

// Delete refuses while students or schedules still reference the section.
func (ctl *SectionController) Delete(c *fiber.Ctx) error {
	m, err := ctl.load(c)
	if err != nil {
		return err
	}
	db := ctl.DB.WithContext(c.UserContext())

	var students, schedules int64
	if err := db.Table("students").Where("section_id = ?", m.ID).Count(&students).Error; err != nil {
		return apperror.FromDB(err, "student")
	}
	if err := db.Table("section_schedules").Where("section_id = ?", m.ID).Count(&schedules).Error; err != nil {
		return apperror.FromDB(err, "schedule")
	}
	if students > 0 || schedules > 0 {
		return apperror.InvalidState("section still has %d students and %d schedules", students, schedules)
	}

	if err := db.Delete(m).Error; err != nil {
		return apperror.FromDB(err, "section")
	}
	return helper.JsonDeleted(c, "Section deleted", fiber.Map{"id": m.ID})
}

func (ctl *SectionController) load(c *fiber.Ctx) (*model.SectionModel, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid section id")
	}
	var m model.SectionModel
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "section")
	}
	return &m, nil
}

func (ctl *SectionController) ensureTrainer(c *fiber.Ctx, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := ctl.DB.WithContext(c.UserContext()).Model(&trainerModel.TrainerModel{}).
		Where("id = ?", *id).Count(&n).Error; err != nil {
		return apperror.FromDB(err, "trainer")
	}
	if n == 0 {
		return apperror.Validation("trainer %s does not exist", id.String())
	}
	return nil
}

func (ctl *SectionController) trainerNames(c *fiber.Ctx, rows []model.SectionModel) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		if r.TrainerID != nil {
			ids = append(ids, *r.TrainerID)
		}
	}
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var trainers []trainerModel.TrainerModel
	if err := ctl.DB.WithContext(c.UserContext()).Select("id", "name").
		Where("id IN ?", ids).Find(&trainers).Error; err != nil {
		return nil, apperror.FromDB(err, "trainer")
	}
	for _, t := range trainers {
		out[t.ID] = t.Name
	}
	return out, nil
}

func lookup(names map[uuid.UUID]string, id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	if n, ok := names[*id]; ok {
		return &n
	}
	return nil
}
