package controller

import (
	"strconv"
	"strings"

	"campusku_backend/internals/features/campus/rooms/dto"
	"campusku_backend/internals/features/campus/rooms/model"
	helper "campusku_backend/internals/helpers"
	"campusku_backend/internals/helpers/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewRoomController(db *gorm.DB, v *validator.Validate) *RoomController {
	return &RoomController{DB: db, Validate: v}
}

// GET /api/admin/rooms?q=&is_lab=&min_capacity=
func (ctl *RoomController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	db := ctl.DB.WithContext(c.UserContext()).Model(&model.RoomModel{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		s := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(block,'')) LIKE ?", s, s)
	}
	if v := strings.TrimSpace(c.Query("is_lab")); v != "" {
		isLab, err := strconv.ParseBool(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "is_lab must be a boolean")
		}
		db = db.Where("is_lab = ?", isLab)
	}
	if v := strings.TrimSpace(c.Query("min_capacity")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "min_capacity must be a number")
		}
		db = db.Where("capacity >= ?", n)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperror.FromDB(err, "room")
	}
	var rows []model.RoomModel
	if err := p.Apply(db.Order("name ASC")).Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "room")
	}

	out := make([]dto.RoomResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.ToRoomResponse(m))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

func (ctl *RoomController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid room id")
	}
	var m model.RoomModel
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return apperror.FromDB(err, "room")
	}
	return helper.JsonOK(c, "ok", dto.ToRoomResponse(m))
}

func (ctl *RoomController) Create(c *fiber.Ctx) error {
	var req dto.CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	m := req.ToModel()
	if err := ctl.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		return apperror.FromDB(err, "room")
	}
	return helper.JsonCreated(c, "Room created", dto.ToRoomResponse(m))
}

func (ctl *RoomController) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid room id")
	}
	var req dto.UpdateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	db := ctl.DB.WithContext(c.UserContext())
	var m model.RoomModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return apperror.FromDB(err, "room")
	}
	if changes := req.Apply(); len(changes) > 0 {
		if err := db.Model(&m).Updates(changes).Error; err != nil {
			return apperror.FromDB(err, "room")
		}
	}
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return apperror.FromDB(err, "room")
	}
	return helper.JsonUpdated(c, "Room updated", dto.ToRoomResponse(m))
}

func (ctl *RoomController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid room id")
	}
	db := ctl.DB.WithContext(c.UserContext())

	// slots keep working without a room
	if err := db.Table("time_slots").Where("room_id = ?", id).Update("room_id", nil).Error; err != nil {
		return apperror.FromDB(err, "time slot")
	}
	res := db.Delete(&model.RoomModel{}, "id = ?", id)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "room")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("room not found")
	}
	return helper.JsonDeleted(c, "Room deleted", fiber.Map{"id": id})
}
