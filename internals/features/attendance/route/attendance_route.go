package route

import (
	"campusku_backend/internals/constants"
	"campusku_backend/internals/features/attendance/controller"
	"campusku_backend/internals/features/attendance/service"
	authMiddleware "campusku_backend/internals/middlewares/auth"

	"github.com/gofiber/fiber/v2"
)

// AttendanceRoutes mounts /attendance on an authenticated router.
func AttendanceRoutes(r fiber.Router, svc *service.Service) {
	ctl := controller.NewAttendanceController(svc)

	g := r.Group("/attendance", authMiddleware.OnlyRoles(constants.RoleErrorStaff("attendance"), constants.AllRoles...))

	g.Post("/submit", ctl.Submit)
	g.Post("/bulk-mark", ctl.BulkMark)
	g.Post("/batch", ctl.Batch)
	g.Post("/batch/validate", ctl.ValidateBatch)

	g.Get("/batchable", ctl.Batchable)
	g.Get("/missed", ctl.Missed)
	g.Get("/sessions/me", ctl.MySessions)
	g.Patch("/sessions/:id/late-reason", ctl.UpdateLateReason)

	g.Get("/time-slots/:id", ctl.TimeSlotAttendance)
	g.Get("/students/:id", ctl.StudentAttendance)
	g.Get("/sections/:id/report", ctl.SectionReport)
	g.Get("/sections/:id/report/export", ctl.ExportSectionReport)
}

// AttendanceAdminRoutes mounts the admin-only attendance actions on /api/admin.
func AttendanceAdminRoutes(admin fiber.Router, svc *service.Service) {
	ctl := controller.NewAttendanceController(svc)

	g := admin.Group("/attendance")
	g.Post("/override", ctl.Override)
	g.Post("/archive", ctl.Archive)
}
