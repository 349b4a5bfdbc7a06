// Package database handles database connections and migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/config"
	"murmur/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database connection instance.
var DB *gorm.DB

var readDB *gorm.DB

// ConnectOptions tunes Connect for commands that manage the schema themselves.
type ConnectOptions struct {
	ApplySchema bool
}

// Connect opens the primary connection and applies the schema per DB_SCHEMA_MODE.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
}

// endpoint is one Postgres server the API talks to.
type endpoint struct {
	host, port, user, password string
}

func (e endpoint) dsn(cfg *config.Config) string {
	ssl := cfg.DBSSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		e.host, e.port, e.user, e.password, cfg.DBName, ssl)
}

// open connects to e with the slog query logger, query metrics and the
// configured pool limits.
func (e endpoint) open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(e.dsn(cfg)), &gorm.Config{
		Logger: NewQueryLogger(middleware.Logger, logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(QueryMetrics{}); err != nil {
		return nil, fmt.Errorf("register query metrics: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, fmt.Errorf("configure pool: %w", err)
	}
	return db, nil
}

// ConnectWithOptions opens the primary and, when DB_READ_HOST is set, a
// replica used for feed and listing reads. A replica that fails to open is
// logged and skipped.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	primary := endpoint{cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword}
	db, err := primary.open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	middleware.Logger.Info("database connected", slog.String("host", cfg.DBHost))

	if opts.ApplySchema {
		if err := ApplySchema(context.Background(), db, cfg); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		middleware.Logger.Info("database schema ready", slog.String("mode", cfg.DBSchemaMode))
	}

	readDB = nil
	if cfg.DBReadHost != "" {
		replica := endpoint{cfg.DBReadHost, cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword}
		if rdb, err := replica.open(cfg); err != nil {
			middleware.Logger.Warn("read replica unavailable, using primary", slog.String("error", err.Error()))
		} else {
			readDB = rdb
		}
	}

	DB = db
	return DB, nil
}

// configurePool applies the pool limits, defaulting to 25 open, 5 idle and a
// five minute lifetime.
func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	orDefault := func(v, def int) int {
		if v <= 0 {
			return def
		}
		return v
	}
	sqlDB.SetMaxOpenConns(orDefault(cfg.DBMaxOpenConns, 25))
	sqlDB.SetMaxIdleConns(orDefault(cfg.DBMaxIdleConns, 5))
	sqlDB.SetConnMaxLifetime(time.Duration(orDefault(cfg.DBConnMaxLifetimeMinutes, 5)) * time.Minute)
	return nil
}

// GetReadDB returns the replica connection, or nil when reads go to the primary.
func GetReadDB() *gorm.DB {
	return readDB
}

// SetReadDB overrides the replica connection. Passing nil routes reads to the primary.
func SetReadDB(db *gorm.DB) {
	readDB = db
}
