package routes

import (
	"context"
	"log"
	"time"

	"campusku_backend/internals/configs"
	"campusku_backend/internals/constants"
	attendanceRoute "campusku_backend/internals/features/attendance/route"
	attendanceService "campusku_backend/internals/features/attendance/service"
	roomRoute "campusku_backend/internals/features/campus/rooms/route"
	scheduleRoute "campusku_backend/internals/features/campus/schedules/route"
	sectionRoute "campusku_backend/internals/features/campus/sections/route"
	studentRoute "campusku_backend/internals/features/campus/students/route"
	trainerRoute "campusku_backend/internals/features/campus/trainers/route"
	notifRoute "campusku_backend/internals/features/notifications/route"
	notifService "campusku_backend/internals/features/notifications/service"
	authRoute "campusku_backend/internals/features/users/auth/route"
	authService "campusku_backend/internals/features/users/auth/service"
	userRoute "campusku_backend/internals/features/users/user/route"
	authMiddleware "campusku_backend/internals/middlewares/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var startTime time.Time

// Deps carries everything the HTTP layer mounts.
type Deps struct {
	DB         *gorm.DB
	Auth       *authService.Service
	Attendance *attendanceService.Service
	Center     *notifService.Center
}

func protect(deps Deps, allowQuery bool) fiber.Handler {
	return authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret: configs.JWTSecret,
		BlacklistChecker: func(raw string) (bool, error) {
			return deps.Auth.IsRevoked(context.Background(), raw)
		},
		ActiveChecker: func(id uuid.UUID) error {
			return deps.Auth.CheckActive(context.Background(), id)
		},
		AllowCookieFallback: true,
		AllowQueryToken:     allowQuery,
	})
}

func SetupRoutes(app *fiber.App, deps Deps) {
	startTime = time.Now()

	BaseRoutes(app, deps.DB)

	// ===================== AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	api := app.Group("/api")
	authRoute.AuthRoutes(api, deps.Auth, protect(deps, false))

	// ===================== FACULTY + ADMIN =====================
	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api", protect(deps, false))
	attendanceRoute.AttendanceRoutes(private, deps.Attendance)

	// ===================== ADMIN =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := private.Group("/admin",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("admin endpoints"), constants.AdminOnly...),
	)
	attendanceRoute.AttendanceAdminRoutes(admin, deps.Attendance)
	notifRoute.NotificationAdminRoutes(admin, deps.Center)
	userRoute.UserAdminRoutes(admin, deps.DB)
	trainerRoute.TrainerAdminRoutes(admin, deps.DB)
	roomRoute.RoomAdminRoutes(admin, deps.DB)
	sectionRoute.SectionAdminRoutes(admin, deps.DB)
	studentRoute.StudentAdminRoutes(admin, deps.DB)
	scheduleRoute.ScheduleAdminRoutes(admin, deps.DB)

	// ===================== WEBSOCKET =====================
	log.Println("[INFO] Mounting notification socket...")
	notifRoute.NotificationSocketRoutes(app, deps.Center, protect(deps, true))
}
