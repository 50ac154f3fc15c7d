package db

import (
	"fmt"

	"go-hospital/internal/config"
	"go-hospital/internal/patient"
	"go-hospital/internal/user"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Models lists every table the application owns, in migration order.
func Models() []any {
	return []any{&user.AppRole{}, &user.AppUser{}, &patient.Patient{}}
}

// Open connects to the configured driver without migrating. A nil log
// discards gorm's output.
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(log)})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func Init(cfg *config.Config, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := Open(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Info("Database connected and migrated", zap.String("driver", cfg.Database.Driver))
	return nil
}
