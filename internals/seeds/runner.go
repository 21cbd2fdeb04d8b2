package seeds

import (
	"context"
	"path/filepath"

	"campusku_backend/internals/configs"
	campus "campusku_backend/internals/seeds/campus"
	users "campusku_backend/internals/seeds/users"

	"gorm.io/gorm"
)

// RunAllSeeds loads the fixture files under dir. Every seeder skips rows that already exist.
func RunAllSeeds(ctx context.Context, db *gorm.DB, dir string) error {
	log := configs.GetLogger()

	//* Users
	if err := users.SeedUsersFromJSON(ctx, db, filepath.Join(dir, "users", "data_users.json")); err != nil {
		return err
	}

	//* Campus
	if err := campus.SeedCampusFromJSON(ctx, db, filepath.Join(dir, "campus", "data_campus.json")); err != nil {
		return err
	}

	log.Info("✅ seeding finished")
	return nil
}
