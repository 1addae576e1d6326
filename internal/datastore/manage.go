package datastore

import (
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wayfarerhq/wayfarer-go/internal/errors"
	"github.com/wayfarerhq/wayfarer-go/internal/logging"
)

// Queries slower than this get logged at warn level.
const defaultSlowQueryThreshold = 200 * time.Millisecond

var dbLogger = logging.ForService("datastore")

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             defaultSlowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}

// performAutoMigration brings the schema up to date for whichever backend
// opened the connection.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&MediaItem{}, &Destination{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migration").
			Context("db_type", dbType).
			Build()
	}

	if debug {
		dbLogger.Debug("database connection initialized",
			"db_type", dbType,
			"connection", connectionInfo)
	}
	return nil
}
