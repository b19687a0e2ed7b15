// Package datastore opens the worker's persistent store and runs migrations.
package datastore

import (
	"github.com/agrotrace/agrobio-go/internal/conf"
	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
	"github.com/agrotrace/agrobio-go/internal/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the worker tables.
func Open(settings conf.DatastoreSettings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch settings.Dialect {
	case "sqlite":
		dialector = sqlite.Open(settings.DSN)
	case "mysql":
		dialector = mysql.Open(settings.DSN)
	default:
		return nil, errors.Newf("unsupported datastore dialect %q", settings.Dialect).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("dialect", settings.Dialect).
			Build()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, errors.Newf("failed to open %s datastore: %w", settings.Dialect, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if err := db.AutoMigrate(
		&entities.CachedResponse{},
		&entities.QueuedMutation{},
		&entities.GovAPIResponse{},
	); err != nil {
		return nil, errors.Newf("failed to migrate worker tables: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return db, nil
}

// IsMySQL reports whether the settings select the MySQL dialect. Repositories
// that emit dialect-specific SQL take this as a flag.
func IsMySQL(settings conf.DatastoreSettings) bool {
	return settings.Dialect == "mysql"
}
