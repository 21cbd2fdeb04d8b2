package controller

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campusku_backend/internals/features/attendance/dto"
	"campusku_backend/internals/features/attendance/service"
	helper "campusku_backend/internals/helpers"
	"campusku_backend/internals/helpers/apperror"
	helperAuth "campusku_backend/internals/helpers/auth"
	"campusku_backend/internals/helpers/dbtime"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AttendanceController struct {
	Svc      *service.Service
	Validate *validator.Validate
}

func NewAttendanceController(svc *service.Service) *AttendanceController {
	return &AttendanceController{Svc: svc, Validate: validator.New()}
}

/* ===============================
   Helpers
=================================*/

// bind parses and validates the body. A non-nil error is already written to c.
func (ctl *AttendanceController) bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validate.Struct(out); err != nil {
		_ = helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
		return errWritten
	}
	return nil
}

var errWritten = errors.New("response already written")

// respondErr finishes a handler whose bind/parse step failed.
func respondErr(err error) error {
	if errors.Is(err, errWritten) {
		return nil
	}
	return err
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" is not a valid id")
	}
	return id, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" is not a valid id")
	}
	return uint(n), nil
}

func (ctl *AttendanceController) dateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return nil, nil
	}
	t, err := dbtime.ParseDate(s, ctl.Svc.Location())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, name+" must be YYYY-MM-DD")
	}
	return &t, nil
}

func (ctl *AttendanceController) rangeQuery(c *fiber.Ctx) (service.DateRange, error) {
	var r service.DateRange
	from, err := ctl.dateQuery(c, "from")
	if err != nil {
		return r, err
	}
	to, err := ctl.dateQuery(c, "to")
	if err != nil {
		return r, err
	}
	if from != nil {
		r.From = *from
	}
	if to != nil {
		r.To = *to
	}
	return r, nil
}

/* ===============================
   Submission
=================================*/

// POST /api/attendance/submit
func (ctl *AttendanceController) Submit(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	var req dto.SubmitAttendanceRequest
	if err := ctl.bind(c, &req); err != nil {
		return respondErr(err)
	}
	req.Normalize()
	in, err := req.ToInput(ctl.Svc.Location())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date_time is not a valid date/time")
	}

	res, err := ctl.Svc.SubmitAttendance(c.Context(), caller, in)
	if err != nil {
		return err
	}
	msg := "Attendance submitted"
	if res.Replaced != nil {
		msg = "Attendance replaced"
	}
	return helper.JsonCreated(c, msg, res)
}

// POST /api/admin/attendance/override
func (ctl *AttendanceController) Override(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	var req dto.OverrideAttendanceRequest
	if err := ctl.bind(c, &req); err != nil {
		return respondErr(err)
	}
	req.Normalize()
	in, err := req.ToInput(ctl.Svc.Location())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date_time is not a valid date/time")
	}

	res, err := ctl.Svc.OverrideAttendance(c.Context(), caller, in)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Attendance overridden", res)
}

// POST /api/attendance/bulk-mark
func (ctl *AttendanceController) BulkMark(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	var req dto.BulkMarkRequest
	if err := ctl.bind(c, &req); err != nil {
		return respondErr(err)
	}
	in, err := req.ToInput(ctl.Svc.Location())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	res, err := ctl.Svc.BulkMarkAttendance(c.Context(), caller, in)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, fmt.Sprintf("%d of %d records applied", res.Success, res.Total), res)
}

// POST /api/attendance/batch
func (ctl *AttendanceController) Batch(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	var req dto.BatchSubmitRequest
	if err := ctl.bind(c, &req); err != nil {
		return respondErr(err)
	}
	in, err := req.ToInput(ctl.Svc.Location())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	res, err := ctl.Svc.SubmitBatch(c.Context(), caller, in)
	if err != nil {
		if res == nil || apperror.KindOf(err) == apperror.KindInternal {
			return err
		}
		// batch-level rejection keeps the batch result shape
		return c.Status(apperror.HTTPStatus(err)).JSON(res)
	}
	status := fiber.StatusCreated
	if !res.Success {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(res)
}

// POST /api/attendance/batch/validate
func (ctl *AttendanceController) ValidateBatch(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	var req dto.ValidateBatchRequest
	if err := ctl.bind(c, &req); err != nil {
		return respondErr(err)
	}

	if _, err := ctl.Svc.ValidateBatch(c.Context(), caller, req.SectionID, req.TimeSlotIDs); err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			return err
		}
		return helper.JsonOK(c, "invalid batch", dto.ValidateBatchResponse{Valid: false, Message: apperror.PublicMessage(err)})
	}
	return helper.JsonOK(c, "valid batch", dto.ValidateBatchResponse{Valid: true, Message: "Time slots can be submitted together"})
}

/* ===============================
   Faculty views
=================================*/

// GET /api/attendance/batchable?date=
func (ctl *AttendanceController) Batchable(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	date, err := ctl.dateQuery(c, "date")
	if err != nil {
		return err
	}
	groups, err := ctl.Svc.BatchableSlots(c.Context(), caller.ID, date)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", groups)
}

// GET /api/attendance/missed?date=
func (ctl *AttendanceController) Missed(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	date, err := ctl.dateQuery(c, "date")
	if err != nil {
		return err
	}
	missed, err := ctl.Svc.MissedSessions(c.Context(), caller.ID, date)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", missed)
}

// GET /api/attendance/sessions/me?from=&to=
func (ctl *AttendanceController) MySessions(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	r, err := ctl.rangeQuery(c)
	if err != nil {
		return err
	}
	sessions, err := ctl.Svc.FacultySessions(c.Context(), caller.ID, r)
	if err != nil {
		return err
	}

	p := helper.ResolvePaging(c, 20, 200)
	total := len(sessions)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return helper.JsonList(c, "ok", sessions[start:end], helper.BuildPaginationFromOffset(int64(total), p.Offset, p.Limit))
}

// PATCH /api/attendance/sessions/:id/late-reason
func (ctl *AttendanceController) UpdateLateReason(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.LateReasonRequest
	if err := ctl.bind(c, &req); err != nil {
		return respondErr(err)
	}
	sess, err := ctl.Svc.UpdateLateReason(c.Context(), caller, id, req.Reason)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Late submission reason updated", sess)
}

/* ===============================
   Reads
=================================*/

// GET /api/attendance/time-slots/:id?date=
func (ctl *AttendanceController) TimeSlotAttendance(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	date, err := ctl.dateQuery(c, "date")
	if err != nil {
		return err
	}
	res, err := ctl.Svc.TimeSlotAttendance(c.Context(), id, date)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /api/attendance/students/:id?from=&to=
func (ctl *AttendanceController) StudentAttendance(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	r, err := ctl.rangeQuery(c)
	if err != nil {
		return err
	}
	res, err := ctl.Svc.StudentAttendance(c.Context(), id, r)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /api/attendance/sections/:id/report?from=&to=
func (ctl *AttendanceController) SectionReport(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	r, err := ctl.rangeQuery(c)
	if err != nil {
		return err
	}
	rep, err := ctl.Svc.SectionReport(c.Context(), id, r)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", rep)
}

// GET /api/attendance/sections/:id/report/export?from=&to=
func (ctl *AttendanceController) ExportSectionReport(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	r, err := ctl.rangeQuery(c)
	if err != nil {
		return err
	}
	rep, err := ctl.Svc.SectionReport(c.Context(), id, r)
	if err != nil {
		return err
	}
	buf, err := BuildSectionReportXLSX(rep)
	if err != nil {
		return apperror.Internal(err, "build section report")
	}

	name := fmt.Sprintf("attendance_%s_%s_%s.xlsx", sanitizeFileName(rep.SectionName), rep.From, rep.To)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}

// POST /api/admin/attendance/archive
func (ctl *AttendanceController) Archive(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return err
	}
	var req dto.ArchiveRequest
	if err := ctl.bind(c, &req); err != nil {
		return respondErr(err)
	}
	res, err := ctl.Svc.ArchiveMonth(c.Context(), caller, req.Year, req.Month)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, fmt.Sprintf("Archived %d records", res.Archived), res)
}
