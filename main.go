package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"campusku_backend/internals/configs"
	database "campusku_backend/internals/databases"
	attendanceRepo "campusku_backend/internals/features/attendance/repository"
	attendanceService "campusku_backend/internals/features/attendance/service"
	notifService "campusku_backend/internals/features/notifications/service"
	authRepo "campusku_backend/internals/features/users/auth/repository"
	scheduler "campusku_backend/internals/features/users/auth/scheduler"
	authService "campusku_backend/internals/features/users/auth/service"
	"campusku_backend/internals/helpers/locker"
	"campusku_backend/internals/helpers/mailer"
	middlewares "campusku_backend/internals/middlewares"
	routes "campusku_backend/internals/route"
	"campusku_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	log := configs.GetLogger()

	if len(os.Args) > 1 && os.Args[1] == "seed" {
		runSeeds()
		return
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          middlewares.ErrorHandler,
		DisableStartupMessage: true,
		BodyLimit:             10 * 1024 * 1024, // roster uploads
		ProxyHeader:           fiber.HeaderXForwardedFor,
	})

	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	if configs.GetEnv("AUTO_MIGRATE", "true") == "true" {
		if err := database.Migrate(database.DB); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
	}
	database.WarmUpQueries()

	configs.ConnectRedis()

	mail := mailer.New()

	capacity := 200
	if configs.Conf != nil {
		capacity = configs.Conf.GetInt("ACTIVITY_LOG_CAPACITY")
	}
	center := notifService.NewCenter(
		notifService.NewActivityLog(capacity),
		notifService.NewHub(),
		mail,
		notifService.UserDirectory{DB: database.DB},
	)

	attendanceOpts := []attendanceService.Option{
		attendanceService.WithLocation(configs.CampusLocation()),
		attendanceService.WithLocker(locker.New(configs.GetRedisLock())),
		attendanceService.WithNotifier(center),
		attendanceService.WithLogger(log),
	}
	if configs.Conf != nil {
		attendanceOpts = append(attendanceOpts, attendanceService.WithLockTTL(configs.Conf.GetDuration("SUBMISSION_LOCK_TTL")))
	}
	attendance := attendanceService.New(attendanceRepo.NewAttendanceRepository(database.DB), attendanceOpts...)

	auth := authService.New(
		authRepo.NewAuthRepository(database.DB),
		authService.NewOTPStore(configs.GetRedisDB()),
		mail,
		authService.ConfigFromEnv(),
	)

	// ⏱ cleanup cron once the DB is up
	cleanup, err := scheduler.StartCleanupScheduler(auth, configs.GetEnv("CLEANUP_CRON", scheduler.DefaultCleanupSpec))
	if err != nil {
		log.WithError(err).Fatal("cleanup scheduler")
	}

	routes.SetupRoutes(app, routes.Deps{
		DB:         database.DB,
		Auth:       auth,
		Attendance: attendance,
		Center:     center,
	})

	// 🔒 keep-alive and server timeouts
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	go func() {
		log.Infof("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	<-cleanup.Stop().Done()
	center.Wait()
	configs.CloseRedis()
	configs.FlushReports()
	database.Close()
}

// runSeeds migrates and loads the fixtures: `go run . seed`.
func runSeeds() {
	log := configs.GetLogger()
	db := configs.InitSeederDB()
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	if err := seeds.RunAllSeeds(context.Background(), db, configs.GetEnv("SEED_DIR", "internals/seeds")); err != nil {
		log.WithError(err).Fatal("seeding failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
