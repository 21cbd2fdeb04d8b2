package database

import (
	"fmt"
	"log"
	"time"

	"campusku_backend/internals/configs"
	attendanceModel "campusku_backend/internals/features/attendance/model"
	roomModel "campusku_backend/internals/features/campus/rooms/model"
	scheduleModel "campusku_backend/internals/features/campus/schedules/model"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	studentModel "campusku_backend/internals/features/campus/students/model"
	trainerModel "campusku_backend/internals/features/campus/trainers/model"
	authModel "campusku_backend/internals/features/users/auth/model"
	userModel "campusku_backend/internals/features/users/user/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Connecting to PostgreSQL...")

	// PreferSimpleProtocol keeps PgBouncer (transaction pooling) happy
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=campusku&options=-c statement_timeout=5000",
		configs.GetEnv("DB_USER"),
		configs.GetEnv("DB_PASSWORD"),
		configs.GetEnv("DB_HOST"),
		configs.GetEnv("DB_PORT", "5432"),
		configs.GetEnv("DB_NAME"),
		configs.GetEnv("DB_SSLMODE", "require"),
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:      configs.NewGormLogger(),
		PrepareStmt: false,
	})
	if err != nil {
		log.Fatalf("❌ DB connection failed: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	maxOpen, maxIdle := 20, 10
	if configs.Conf != nil {
		maxOpen = configs.Conf.GetInt("DB_MAX_OPEN_CONNS")
		maxIdle = configs.Conf.GetInt("DB_MAX_IDLE_CONNS")
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&userModel.UserModel{},
		&trainerModel.TrainerModel{},
		&roomModel.RoomModel{},
		&sectionModel.SectionModel{},
		&studentModel.StudentModel{},
		&scheduleModel.SectionScheduleModel{},
		&scheduleModel.TimeSlotModel{},
		&attendanceModel.AttendanceSessionModel{},
		&attendanceModel.AttendanceModel{},
		&attendanceModel.AttendanceArchiveModel{},
		&authModel.RefreshTokenModel{},
		&authModel.TokenBlacklistModel{},
	}
}

// constraints are raw DDL AutoMigrate cannot express; each statement is idempotent.
var constraints = []string{
	`DO $$ BEGIN
		ALTER TABLE attendance_sessions ADD CONSTRAINT ck_sessions_counts
			CHECK (present_count + absent_count = total_students AND late_count <= present_count);
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		ALTER TABLE attendances ADD CONSTRAINT ck_attendances_status
			CHECK (status IN ('PRESENT','ABSENT','LATE'));
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		ALTER TABLE students ADD CONSTRAINT fk_students_section
			FOREIGN KEY (section_id) REFERENCES sections(id) ON DELETE RESTRICT;
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE INDEX IF NOT EXISTS idx_attendances_student_date ON attendances (student_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_archives_student_date ON attendance_archives (student_id, date)`,
}

// Migrate runs AutoMigrate plus the raw constraints. Enabled with AUTO_MIGRATE=true.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("constraint: %w", err)
		}
	}
	return nil
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
			return
		}
		DB.Exec("SELECT 1 FROM time_slots LIMIT 1")
	}()
}

func ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
