package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"campusku_backend/internals/features/attendance/repository/memstore"
	"campusku_backend/internals/features/attendance/service"
	schedModel "campusku_backend/internals/features/campus/schedules/model"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	studentModel "campusku_backend/internals/features/campus/students/model"
	helper "campusku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	app       *fiber.App
	faculty   uuid.UUID
	section   sectionModel.SectionModel
	first     schedModel.TimeSlotModel
	second    schedModel.TimeSlotModel
	gapped    schedModel.TimeSlotModel
	studentID uuid.UUID
}

func newTestEnv(t *testing.T, role string) *testEnv {
	t.Helper()
	store := memstore.New()
	env := &testEnv{faculty: uuid.New()}
	env.section = store.AddSection(sectionModel.SectionModel{Name: "CSE A"})
	sch := store.AddSchedule(schedModel.SectionScheduleModel{SectionID: env.section.ID, Title: "Default"})
	for i := 0; i < 3; i++ {
		st := store.AddStudent(studentModel.StudentModel{RegNum: fmt.Sprintf("R%02d", i), Name: fmt.Sprintf("S%d", i), SectionID: env.section.ID})
		if i == 0 {
			env.studentID = st.ID
		}
	}
	slot := func(start, end string) schedModel.TimeSlotModel {
		fid := env.faculty
		return store.AddTimeSlot(schedModel.TimeSlotModel{StartTime: start, EndTime: end, SectionID: env.section.ID, ScheduleID: sch.ID, InchargeFacultyID: &fid})
	}
	env.first = slot("09:00", "10:00")
	env.second = slot("10:00", "11:00")
	env.gapped = slot("11:30", "12:30")

	now := time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)
	svc := service.New(store, service.WithClock(func() time.Time { return now }))
	ctl := NewAttendanceController(svc)

	env.app = fiber.New(fiber.Config{ErrorHandler: helper.JsonFromError})
	env.app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", env.faculty.String())
		c.Locals("role", role)
		return c.Next()
	})
	env.app.Post("/submit", ctl.Submit)
	env.app.Post("/batch/validate", ctl.ValidateBatch)
	env.app.Get("/sections/:id/report/export", ctl.ExportSectionReport)
	env.app.Get("/students/:id", ctl.StudentAttendance)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, raw
}

func TestSubmitThenDuplicate(t *testing.T) {
	env := newTestEnv(t, "FACULTY")
	body := map[string]any{
		"time_slot_id":       env.first.ID,
		"absent_student_ids": []string{env.studentID.String()},
	}

	status, out, _ := env.do(t, "POST", "/submit", body)
	require.Equal(t, fiber.StatusCreated, status, out)
	data := out["data"].(map[string]any)
	session := data["session"].(map[string]any)
	assert.EqualValues(t, 3, session["total_students"])
	assert.EqualValues(t, 1, session["absent_count"])

	status, out, _ = env.do(t, "POST", "/submit", body)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_SUBMISSION", out["error_code"])
	assert.Equal(t, "Attendance already submitted for this time slot and date", out["message"])
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t, "FACULTY")

	status, out, _ := env.do(t, "POST", "/submit", map[string]any{"absent_student_ids": []string{}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, out["errors"], "TimeSlotID")

	status, out, _ = env.do(t, "POST", "/submit", map[string]any{
		"time_slot_id":  env.first.ID,
		"late_students": []map[string]any{{"student_id": env.studentID.String()}},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, out["message"], "feedback is required")

	status, _, _ = env.do(t, "POST", "/submit", map[string]any{"time_slot_id": env.first.ID, "date_time": "yesterday"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestSubmitRejectsOtherFaculty(t *testing.T) {
	env := newTestEnv(t, "FACULTY")
	env.faculty = uuid.New()

	status, out, _ := env.do(t, "POST", "/submit", map[string]any{"time_slot_id": env.first.ID})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, false, out["success"])
}

func TestValidateBatchEndpoint(t *testing.T) {
	env := newTestEnv(t, "FACULTY")

	_, out, _ := env.do(t, "POST", "/batch/validate", map[string]any{"time_slot_ids": []uint{env.first.ID, env.second.ID}})
	assert.Equal(t, true, out["data"].(map[string]any)["valid"])

	_, out, _ = env.do(t, "POST", "/batch/validate", map[string]any{"time_slot_ids": []uint{env.second.ID, env.gapped.ID}})
	data := out["data"].(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.Equal(t, "Selected time slots are not consecutive", data["message"])
}

func TestStudentAttendanceNotFound(t *testing.T) {
	env := newTestEnv(t, "ADMIN")
	status, _, _ := env.do(t, "GET", "/students/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _, _ = env.do(t, "GET", "/students/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestExportSectionReport(t *testing.T) {
	env := newTestEnv(t, "ADMIN")
	status, _, _ := env.do(t, "POST", "/submit", map[string]any{
		"time_slot_id":       env.first.ID,
		"absent_student_ids": []string{env.studentID.String()},
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, _, raw := env.do(t, "GET", "/sections/"+env.section.ID.String()+"/report/export?from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, fiber.StatusOK, status)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"CSE A", "2024-03-01 - 2024-03-31"}, rows[0])
	assert.Equal(t, "Reg. No", rows[1][0])
	assert.Equal(t, []string{"R00", "S0", "1", "1", "0", "0"}, rows[2])
	assert.Equal(t, "100", rows[3][5])
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "CSE_A_2024", sanitizeFileName(" CSE A/2024 "))
	assert.Equal(t, "section", sanitizeFileName(""))
}
