package controller

import (
	"strings"

	"campusku_backend/internals/constants"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	sectionService "campusku_backend/internals/features/campus/sections/service"
	"campusku_backend/internals/features/campus/students/dto"
	"campusku_backend/internals/features/campus/students/model"
	"campusku_backend/internals/features/campus/students/service"
	helper "campusku_backend/internals/helpers"
	"campusku_backend/internals/helpers/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewStudentController(db *gorm.DB, v *validator.Validate) *StudentController {
	return &StudentController{DB: db, Validate: v}
}

// GET /api/admin/students?section_id=&q=
func (ctl *StudentController) List(c *fiber.Ctx) error {
	var sectionID *uuid.UUID
	if v := strings.TrimSpace(c.Query("section_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid section_id")
		}
		sectionID = &id
	}
	return ctl.list(c, sectionID)
}

// GET /api/admin/sections/:id/students
func (ctl *StudentController) ListBySection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid section id")
	}
	return ctl.list(c, &id)
}

func (ctl *StudentController) list(c *fiber.Ctx, sectionID *uuid.UUID) error {
	p := helper.ResolvePaging(c, 50, 500)

	db := ctl.DB.WithContext(c.UserContext()).Model(&model.StudentModel{})
	if sectionID != nil {
		db = db.Where("section_id = ?", *sectionID)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		s := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(reg_num) LIKE ?", s, s)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperror.FromDB(err, "student")
	}
	var rows []model.StudentModel
	if err := p.Apply(db.Order("reg_num ASC")).Find(&rows).Error; err != nil {
		return apperror.FromDB(err, "student")
	}

	out := make([]dto.StudentResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.ToStudentResponse(m))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

func (ctl *StudentController) GetByID(c *fiber.Ctx) error {
	m, err := ctl.load(c)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.ToStudentResponse(*m))
}

func (ctl *StudentController) Create(c *fiber.Ctx) error {
	var req dto.CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	m := req.ToModel()
	err := ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := ensureSection(tx, m.SectionID); err != nil {
			return err
		}
		if err := tx.Create(&m).Error; err != nil {
			return apperror.FromDB(err, "student")
		}
		return sectionService.RecomputeStrength(tx, m.SectionID)
	})
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Student created", dto.ToStudentResponse(m))
}

// Update moves the student between sections when section_id changes; both strengths are refreshed.
func (ctl *StudentController) Update(c *fiber.Ctx) error {
	m, err := ctl.load(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}

	oldSection := m.SectionID
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if req.SectionID != nil {
			if err := ensureSection(tx, *req.SectionID); err != nil {
				return err
			}
		}
		if changes := req.Apply(); len(changes) > 0 {
			if err := tx.Model(m).Updates(changes).Error; err != nil {
				return apperror.FromDB(err, "student")
			}
		}
		if req.SectionID != nil && *req.SectionID != oldSection {
			if err := sectionService.RecomputeStrength(tx, oldSection, *req.SectionID); err != nil {
				return err
			}
		}
		return apperror.FromDB(tx.First(m, "id = ?", m.ID).Error, "student")
	})
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Student updated", dto.ToStudentResponse(*m))
}

// Delete refuses students with attendance history.
func (ctl *StudentController) Delete(c *fiber.Ctx) error {
	m, err := ctl.load(c)
	if err != nil {
		return err
	}
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table("attendances").Where("student_id = ?", m.ID).Count(&n).Error; err != nil {
			return apperror.FromDB(err, "attendance")
		}
		if n > 0 {
			return apperror.InvalidState("student has %d attendance records", n)
		}
		if err := tx.Delete(m).Error; err != nil {
			return apperror.FromDB(err, "student")
		}
		return sectionService.RecomputeStrength(tx, m.SectionID)
	})
	if err != nil {
		return err
	}
	return helper.JsonDeleted(c, "Student deleted", fiber.Map{"id": m.ID})
}

// POST /api/admin/sections/:id/students/bulk
// Accepts a JSON body, or a multipart "file" field holding CSV or XLSX.
func (ctl *StudentController) BulkImport(c *fiber.Ctx) error {
	sectionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid section id")
	}

	var rows []service.RosterRow
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file cannot be read")
		}
		defer f.Close()

		switch constants.DetectRosterFileType(fh.Filename) {
		case constants.RosterFileCSV:
			rows, err = service.ParseRosterCSV(f)
		case constants.RosterFileXLSX:
			rows, err = service.ParseRosterXLSX(f)
		default:
			return fiber.NewError(fiber.StatusUnsupportedMediaType, "only .csv and .xlsx rosters are supported")
		}
		if err != nil {
			return err
		}
	} else {
		rows, err = service.ParseRosterJSON(c.Body())
		if err != nil {
			return err
		}
	}

	res, err := service.ImportRoster(c.UserContext(), ctl.DB, sectionID, rows)
	if err != nil {
		return err
	}
	status := fiber.StatusCreated
	if res.Failure > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{
		"success": res.Failure == 0,
		"message": "Roster processed",
		"data":    res,
	})
}

func (ctl *StudentController) load(c *fiber.Ctx) (*model.StudentModel, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid student id")
	}
	var m model.StudentModel
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "student")
	}
	return &m, nil
}

func ensureSection(db *gorm.DB, id uuid.UUID) error {
	var n int64
	if err := db.Model(&sectionModel.SectionModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperror.FromDB(err, "section")
	}
	if n == 0 {
		return apperror.Validation("section %s does not exist", id.String())
	}
	return nil
}
