package database

import (
	"database/sql"
	"fmt"
	"strings"

	"hydrogen-admin/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

func New(databaseURL string) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), gormConfig())
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return migrate(db)
}

// NewFromSQL wraps an already opened lib/pq connection.
func NewFromSQL(sqlDB *sql.DB) (*Database, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return migrate(db)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
}

func migrate(db *gorm.DB) (*Database, error) {
	err := db.AutoMigrate(
		&models.Store{},
		&models.StoreDraft{},
		&models.PublishRun{},
		&models.RunRecord{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
