package db

import (
	"context" // Context for connect retries
	"time"    // Retry intervals

	"wallet_auth/internal/config" // Importing configuration
	"wallet_auth/internal/domain" // Importing domain models

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry" // Connect-with-retry backoff
	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // PostgreSQL driver for GORM
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/logger"     // GORM logger levels
)

// Connect retry policy
const (
	connectBase     = 500 * time.Millisecond
	connectMaxDelay = 10 * time.Second
	connectAttempts = 8
)

// Dialector picks the GORM driver for the configured database
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, oops.Code("DB_UNSUPPORTED_DRIVER").Errorf("driver %q has no SQL dialect", cfg.DBDriver)
	}
}

// Open connects to the database, retrying while it comes up
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Warn // Quiet in production
	if !cfg.IsProd {
		logLevel = logger.Info // Log SQL in development
	}
	gormCfg := &gorm.Config{
		TranslateError: true, // Surface unique violations as gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(logLevel),
	}

	backoff := retry.WithMaxRetries(connectAttempts, retry.WithCappedDuration(connectMaxDelay, retry.NewExponential(connectBase)))
	var conn *gorm.DB
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		db, err := gorm.Open(dialector, gormCfg) // Open a connection to the database
		if err != nil {
			logrus.WithFields(logrus.Fields{"driver": cfg.DBDriver, "error": err.Error()}).Warn("Database not reachable, retrying")
			return retry.RetryableError(err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			logrus.WithFields(logrus.Fields{"driver": cfg.DBDriver, "error": err.Error()}).Warn("Database ping failed, retrying")
			return retry.RetryableError(err)
		}
		conn = db
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.DBDriver).Wrap(err)
	}
	return conn, nil
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return oops.Code("DB_MIGRATE_FAILED").Wrap(err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
