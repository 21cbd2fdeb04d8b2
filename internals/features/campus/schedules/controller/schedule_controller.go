package controller

import (
	"strconv"
	"strings"

	"campusku_backend/internals/features/campus/schedules/dto"
	"campusku_backend/internals/features/campus/schedules/model"
	"campusku_backend/internals/features/campus/schedules/service"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	helper "campusku_backend/internals/helpers"
	"campusku_backend/internals/helpers/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewScheduleController(db *gorm.DB, v *validator.Validate) *ScheduleController {
	return &ScheduleController{DB: db, Validate: v}
}

func orderSlots(db *gorm.DB) *gorm.DB {
	return db.Order("start_time ASC, id ASC")
}

// GET /api/admin/schedules?section_id=&active=
func (ctl *ScheduleController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	db := ctl.DB.WithContext(c.UserContext()).Model(&model.SectionScheduleModel{})
	if v := strings.TrimSpace(c.Query("section_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid section_id")
		}
		db = db.Where("section_id = ?", id)
	}
	if v := strings.TrimSpace(c.Query("active")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "active must be a boolean")
		}
		db = db.Where("is_active = ?", active)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperror.FromDB(err, "schedule")
	}
	var rows []model.SectionScheduleModel
	if err := p.Apply(db.Preload("TimeSlots", orderSlots).Order("created_at DESC")).Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "schedule")
	}

	out := make([]dto.ScheduleResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.ToScheduleResponse(m))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

func (ctl *ScheduleController) GetByID(c *fiber.Ctx) error {
	m, err := ctl.load(c, ctl.DB.WithContext(c.UserContext()))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.ToScheduleResponse(*m))
}

// Create stores the schedule and its slots in one transaction.
func (ctl *ScheduleController) Create(c *fiber.Ctx) error {
	var req dto.CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	var m model.SectionScheduleModel
	err := ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&sectionModel.SectionModel{}).Where("id = ?", req.SectionID).Count(&n).Error; err != nil {
			return apperror.FromDB(err, "section")
		}
		if n == 0 {
			return apperror.Validation("section %s does not exist", req.SectionID.String())
		}

		m = model.SectionScheduleModel{SectionID: req.SectionID, Title: req.Title, IsActive: true}
		if err := tx.Omit("TimeSlots").Create(&m).Error; err != nil {
			return apperror.FromDB(err, "schedule")
		}
		if req.IsActive != nil && !*req.IsActive {
			if err := tx.Model(&m).Update("is_active", false).Error; err != nil {
				return apperror.FromDB(err, "schedule")
			}
		}

		slots := make([]model.TimeSlotModel, 0, len(req.TimeSlots))
		for _, in := range req.TimeSlots {
			slots = append(slots, in.ToModel(m.ID, m.SectionID))
		}
		if err := prepareSlots(tx, slots); err != nil {
			return err
		}
		if len(slots) > 0 {
			if err := tx.Create(&slots).Error; err != nil {
				return apperror.FromDB(err, "time slot")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	out, err := ctl.reload(c, m.ID)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Schedule created", dto.ToScheduleResponse(*out))
}

func (ctl *ScheduleController) Update(c *fiber.Ctx) error {
	db := ctl.DB.WithContext(c.UserContext())
	m, err := ctl.load(c, db)
	if err != nil {
		return err
	}
	var req dto.UpdateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}
	if changes := req.Apply(); len(changes) > 0 {
		if err := db.Model(&model.SectionScheduleModel{}).Where("id = ?", m.ID).Updates(changes).Error; err != nil {
			return apperror.FromDB(err, "schedule")
		}
	}
	out, err := ctl.reload(c, m.ID)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Schedule updated", dto.ToScheduleResponse(*out))
}

// Delete refuses schedules whose slots already carry attendance; deactivate those instead.
func (ctl *ScheduleController) Delete(c *fiber.Ctx) error {
	db := ctl.DB.WithContext(c.UserContext())
	m, err := ctl.load(c, db)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table("attendance_sessions").
			Where("time_slot_id IN (?)", tx.Model(&model.TimeSlotModel{}).Select("id").Where("schedule_id = ?", m.ID)).
			Count(&n).Error; err != nil {
			return apperror.FromDB(err, "attendance session")
		}
		if n > 0 {
			return apperror.InvalidState("schedule has %d attendance sessions, deactivate it instead", n)
		}
		if err := tx.Where("schedule_id = ?", m.ID).Delete(&model.TimeSlotModel{}).Error; err != nil {
			return apperror.FromDB(err, "time slot")
		}
		return apperror.FromDB(tx.Delete(&model.SectionScheduleModel{}, "id = ?", m.ID).Error, "schedule")
	})
	if err != nil {
		return err
	}
	return helper.JsonDeleted(c, "Schedule deleted", fiber.Map{"id": m.ID})
}

/* ====================== TIME SLOTS ====================== */

// GET /api/admin/time-slots?section_id=&schedule_id=&faculty_id=
func (ctl *ScheduleController) ListTimeSlots(c *fiber.Ctx) error {
	db := ctl.DB.WithContext(c.UserContext()).Model(&model.TimeSlotModel{})
	for param, column := range map[string]string{
		"section_id":  "section_id",
		"schedule_id": "schedule_id",
		"faculty_id":  "incharge_faculty_id",
	} {
		v := strings.TrimSpace(c.Query(param))
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid "+param)
		}
		db = db.Where(column+" = ?", id)
	}

	var rows []model.TimeSlotModel
	if err := orderSlots(db).Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "time slot")
	}
	out := make([]dto.TimeSlotResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.ToTimeSlotResponse(m))
	}
	return helper.JsonList(c, "ok", out, nil)
}

// POST /api/admin/schedules/:id/time-slots
func (ctl *ScheduleController) AddTimeSlot(c *fiber.Ctx) error {
	var in dto.TimeSlotInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&in); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	var slot model.TimeSlotModel
	err := ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		sched, err := ctl.load(c, tx)
		if err != nil {
			return err
		}
		slot = in.ToModel(sched.ID, sched.SectionID)
		all := append(append([]model.TimeSlotModel{}, sched.TimeSlots...), slot)
		if err := prepareSlots(tx, all); err != nil {
			return err
		}
		slot = all[len(all)-1]
		return apperror.FromDB(tx.Create(&slot).Error, "time slot")
	})
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Time slot created", dto.ToTimeSlotResponse(slot))
}

// PATCH /api/admin/time-slots/:id
func (ctl *ScheduleController) UpdateTimeSlot(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid time slot id")
	}
	var req dto.UpdateTimeSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	var slot model.TimeSlotModel
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&slot, id).Error; err != nil {
			return apperror.FromDB(err, "time slot")
		}
		var siblings []model.TimeSlotModel
		if err := tx.Where("schedule_id = ? AND id <> ?", slot.ScheduleID, slot.ID).Find(&siblings).Error; err != nil {
			return apperror.FromDB(err, "time slot")
		}
		req.ApplyTo(&slot)
		all := append(siblings, slot)
		if err := prepareSlots(tx, all); err != nil {
			return err
		}
		slot = all[len(all)-1]
		return apperror.FromDB(tx.Save(&slot).Error, "time slot")
	})
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Time slot updated", dto.ToTimeSlotResponse(slot))
}

// DELETE /api/admin/time-slots/:id
func (ctl *ScheduleController) DeleteTimeSlot(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid time slot id")
	}
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table("attendance_sessions").Where("time_slot_id = ?", id).Count(&n).Error; err != nil {
			return apperror.FromDB(err, "attendance session")
		}
		if n > 0 {
			return apperror.InvalidState("time slot has %d attendance sessions", n)
		}
		res := tx.Delete(&model.TimeSlotModel{}, id)
		if res.Error != nil {
			return apperror.FromDB(res.Error, "time slot")
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("time slot not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return helper.JsonDeleted(c, "Time slot deleted", fiber.Map{"id": id})
}

/* ====================== helpers ====================== */

func (ctl *ScheduleController) load(c *fiber.Ctx, db *gorm.DB) (*model.SectionScheduleModel, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid schedule id")
	}
	var m model.SectionScheduleModel
	if err := db.Preload("TimeSlots", orderSlots).First(&m, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "schedule")
	}
	return &m, nil
}

func (ctl *ScheduleController) reload(c *fiber.Ctx, id uuid.UUID) (*model.SectionScheduleModel, error) {
	var m model.SectionScheduleModel
	if err := ctl.DB.WithContext(c.UserContext()).Preload("TimeSlots", orderSlots).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "schedule")
	}
	return &m, nil
}

// prepareSlots normalizes clock strings, checks overlaps and referenced faculty/rooms.
func prepareSlots(db *gorm.DB, slots []model.TimeSlotModel) error {
	if err := service.ValidateSlots(slots); err != nil {
		return err
	}
	faculty := map[uuid.UUID]struct{}{}
	rooms := map[uuid.UUID]struct{}{}
	for i := range slots {
		slots[i].StartTime, _ = service.NormalizeClock(slots[i].StartTime)
		slots[i].EndTime, _ = service.NormalizeClock(slots[i].EndTime)
		if id := slots[i].InchargeFacultyID; id != nil {
			faculty[*id] = struct{}{}
		}
		if id := slots[i].RoomID; id != nil {
			rooms[*id] = struct{}{}
		}
	}
	if err := ensureAll(db, "users", "incharge faculty", faculty); err != nil {
		return err
	}
	return ensureAll(db, "rooms", "room", rooms)
}

func ensureAll(db *gorm.DB, table, what string, ids map[uuid.UUID]struct{}) error {
	if len(ids) == 0 {
		return nil
	}
	list := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	var n int64
	if err := db.Table(table).Where("id IN ? AND deleted_at IS NULL", list).Count(&n).Error; err != nil {
		return apperror.FromDB(err, what)
	}
	if int(n) != len(list) {
		return apperror.Validation("unknown %s id", what)
	}
	return nil
}
