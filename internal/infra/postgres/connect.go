package postgres

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/config"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
)

func Connect(cfg config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	log.Println("Connected to Postgres.")

	return db, nil
}

// Migrate creates the ledger schema. Beyond AutoMigrate, the partial unique
// index below is the store-side admission lock: a patient can hold at most
// one waiting/serving entry per admission-day, across branches, no matter how
// many processes race the insert.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Appointment{},
		&models.QueueEntry{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_active_patient_day
		 ON queue_entries (patient_id, admission_day)
		 WHERE status IN ('waiting', 'serving')`,
	).Error; err != nil {
		return fmt.Errorf("failed to create active-entry index: %w", err)
	}

	return nil
}

func Disconnect(db *gorm.DB) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	sqlDB.Close()

	log.Println("Connection to Postgres closed.")
}
