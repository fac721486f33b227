package data

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"

	"atlashub/pkg/database"
)

// DBConfig is the subset of connection settings the service exposes.
// An empty config means the service runs without a data backend.
type DBConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Configured reports whether any connection target is set.
func (c *DBConfig) Configured() bool {
	return c != nil && (c.DSN != "" || c.Host != "")
}

// NewDB opens the politics database. A nil return with nil error means
// no backend was configured; callers degrade gracefully.
func NewDB(config *DBConfig, logger log.Logger) (*gorm.DB, error) {
	if !config.Configured() {
		log.NewHelper(logger).Warn("no database configured, running without data backend")
		return nil, nil
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	db, err := database.NewDB(&database.Config{
		Driver:   "postgres",
		Source:   config.DSN,
		Host:     config.Host,
		Port:     config.Port,
		User:     config.User,
		Password: config.Password,
		Database: config.Database,
		SSLMode:  sslMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&PoliticianDO{},
		&MandateDO{},
	)
}
