package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trackswift/internal/models"
)

// Connect opens the database named by driver/dsn, retrying while it comes
// up, and syncs the schema.
func Connect(driver, dsn string, retries int, log zerolog.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}
	if retries <= 0 {
		retries = 1
	}

	gormLevel := logger.Warn
	if log.GetLevel() <= zerolog.DebugLevel {
		gormLevel = logger.Info
	}

	var db *gorm.DB
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(gormLevel),
		})
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("of", retries).Msg("database not ready, retrying in 2 seconds")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", driver, retries, err)
	}
	log.Info().Str("driver", driver).Msg("connected to database")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info().Msg("database schema synced")
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates every table the server uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Vendor{},
		&models.Invoice{},
		&models.InventoryItem{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Expense{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
