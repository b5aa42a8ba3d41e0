package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mroshb/engage_app/internal/config"
	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	if cfg.DBDriver == config.DriverSQLite {
		db, err := open(sqlite.Open(cfg.GetDSN()), logLevel, false)
		if err != nil {
			return nil, err
		}
		if err := limitToOneWriter(db); err != nil {
			return nil, err
		}
		logger.Info("Database connected", "driver", cfg.DBDriver, "path", cfg.DBPath)
		return db, nil
	}

	db, err := open(postgres.Open(cfg.GetDSN()), logLevel, true)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected", "driver", cfg.DBDriver, "host", cfg.DBHost)
	return db, nil
}

// OpenSQLite opens a SQLite file with the same settings Connect uses.
func OpenSQLite(path string) (*gorm.DB, error) {
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: path}
	db, err := open(sqlite.Open(cfg.GetDSN()), gormlogger.Silent, false)
	if err != nil {
		return nil, err
	}
	if err := limitToOneWriter(db); err != nil {
		return nil, err
	}
	return db, nil
}

func open(dialector gorm.Dialector, logLevel gormlogger.LogLevel, prepareStmt bool) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true,
		PrepareStmt:            prepareStmt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// SQLite allows a single writer; one pooled connection serialises access
// instead of surfacing SQLITE_BUSY.
func limitToOneWriter(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Profile{},
		&models.CreditEntry{},
		&models.Goal{},
		&models.Task{},
		&models.StoreItem{},
		&models.CheckoutSession{},
		&models.Transaction{},
	)

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func SeedStoreItems(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.StoreItem{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count store items: %w", err)
	}
	if count > 0 {
		return nil
	}

	logger.Info("Seeding store items...")
	items := []models.StoreItem{
		{Name: "Coffee Voucher", Description: "One drink at the community cafe", Value: 15, Stock: 50},
		{Name: "Movie Ticket", Description: "Single admission, any showing", Value: 40, Stock: 20},
		{Name: "Gym Day Pass", Description: "Full-day access to the partner gym", Value: 25, Stock: 30},
		{Name: "Book", Description: "Pick any paperback from the shelf", Value: 30, Stock: 15},
	}

	return db.Create(&items).Error
}
