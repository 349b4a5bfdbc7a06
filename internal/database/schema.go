package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"murmur/internal/config"
	"murmur/internal/middleware"
	"murmur/internal/models"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// prodLikeEnvs never get AutoMigrate implicitly.
var prodLikeEnvs = []string{"production", "prod", "staging", "stage"}

// PersistentModels returns every gorm model whose table the engagement core owns.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.UserRole{},
		&models.Post{},
		&models.Reaction{},
		&models.Comment{},
		&models.Report{},
	}
}

// AutoMigrate creates or updates every engagement table from its gorm model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// schemaPlan is what ApplySchema will do for one configuration.
type schemaPlan struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	prodLike := slices.Contains(prodLikeEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch plan.Mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeHybrid:
		plan.RunSQL = true
		plan.RunAuto = !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.RunAuto = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// ApplySchema brings the database up to date according to DB_SCHEMA_MODE.
// SQL migrations always run before AutoMigrate so hand-written DDL wins.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// SchemaStatus is the report printed by `migrate status`.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	// MissingTables lists engagement tables that do not exist yet.
	MissingTables []string
	// Ledger is only filled when the plan runs SQL migrations.
	Ledger []LedgerEntry
}

// GetSchemaStatus reports the plan for cfg, the migration ledger and any missing tables.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.Mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.RunSQL,
		WillRunAutoMigrate: plan.RunAuto,
	}

	migrator := db.WithContext(ctx).Migrator()
	for _, model := range PersistentModels() {
		if migrator.HasTable(model) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		status.MissingTables = append(status.MissingTables, stmt.Schema.Table)
	}

	if !plan.RunSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).Applied(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = appliedVersions(applied)
	status.Ledger = LedgerEntries(applied, GetMigrations())
	for _, m := range GetMigrations() {
		if !slices.Contains(status.AppliedVersions, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
