package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"murmur/internal/middleware"

	"gorm.io/gorm"
)

// AppliedMigration is one row of the schema_migrations ledger.
// Checksum is the SHA-256 of the up script at the time it ran.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for AppliedMigration.
func (AppliedMigration) TableName() string {
	return "schema_migrations"
}

// Checksum fingerprints the up script so edits to an applied migration are caught.
func (m *Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.UpScript))
	return hex.EncodeToString(sum[:])
}

// MigrationStore records which migrations have run. Apply and Revert execute the
// script and update the ledger in one transaction.
type MigrationStore interface {
	Applied(ctx context.Context) ([]AppliedMigration, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

type migrationStore struct {
	db *gorm.DB
}

// NewMigrationStore creates a MigrationStore over db.
func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &migrationStore{db: db}
}

// Applied lists the ledger in version order. A missing ledger table reads as empty.
func (s *migrationStore) Applied(ctx context.Context) ([]AppliedMigration, error) {
	var rows []AppliedMigration
	if err := s.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return rows, nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

func (s *migrationStore) Apply(ctx context.Context, m Migration) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("apply %s: %w", m.String(), err)
		}
		row := AppliedMigration{Version: m.Version, Name: m.Name, Checksum: m.Checksum()}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("record %s: %w", m.String(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("Migration applied", slog.String("migration", m.String()))
	return nil
}

func (s *migrationStore) Revert(ctx context.Context, m Migration) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", m.String(), err)
		}
		return tx.Where("version = ?", m.Version).Delete(&AppliedMigration{}).Error
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("Migration rolled back", slog.String("migration", m.String()))
	return nil
}

// RunMigrations applies every embedded migration missing from the ledger, in version order.
// It refuses to run when the ledger holds versions this binary does not know or when an
// applied script has since been edited.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	store := NewMigrationStore(db)
	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	if err := verifyApplied(applied, migrations); err != nil {
		return err
	}

	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		done[row.Version] = true
	}
	for _, m := range migrations {
		if done[m.Version] {
			continue
		}
		if err := store.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func verifyApplied(applied []AppliedMigration, registered []Migration) error {
	byVersion := make(map[int]*Migration, len(registered))
	for i := range registered {
		byVersion[registered[i].Version] = &registered[i]
	}

	var unknown, edited []string
	for _, row := range applied {
		m, ok := byVersion[row.Version]
		switch {
		case !ok:
			unknown = append(unknown, fmt.Sprintf("%06d", row.Version))
		case row.Checksum != "" && row.Checksum != m.Checksum():
			edited = append(edited, m.String())
		}
	}
	sort.Strings(unknown)

	var errs []error
	if len(unknown) > 0 {
		errs = append(errs, fmt.Errorf("schema_migrations contains versions unknown to this build: %s",
			strings.Join(unknown, ", ")))
	}
	if len(edited) > 0 {
		errs = append(errs, fmt.Errorf("applied migrations were modified after running: %s",
			strings.Join(edited, ", ")))
	}
	return errors.Join(errs...)
}

// Ledger states reported by LedgerEntries.
const (
	LedgerApplied  = "applied"
	LedgerPending  = "pending"
	LedgerModified = "modified"
	LedgerUnknown  = "unknown"
)

// LedgerEntry pairs a migration version with its ledger row, if any.
type LedgerEntry struct {
	Version   int
	Name      string
	State     string
	Checksum  string
	AppliedAt *time.Time
}

// LedgerEntries merges the ledger with the registered migrations in version
// order. Applied rows whose checksum no longer matches the script are
// "modified"; rows for versions this build does not ship are "unknown".
func LedgerEntries(applied []AppliedMigration, registered []Migration) []LedgerEntry {
	rows := make(map[int]AppliedMigration, len(applied))
	for _, row := range applied {
		rows[row.Version] = row
	}

	out := make([]LedgerEntry, 0, len(registered)+len(applied))
	for _, m := range registered {
		e := LedgerEntry{Version: m.Version, Name: m.Name, State: LedgerPending, Checksum: m.Checksum()}
		if row, ok := rows[m.Version]; ok {
			at := row.AppliedAt
			e.AppliedAt = &at
			e.State = LedgerApplied
			if row.Checksum != "" && row.Checksum != e.Checksum {
				e.State = LedgerModified
			}
			delete(rows, m.Version)
		}
		out = append(out, e)
	}
	for _, row := range rows {
		at := row.AppliedAt
		out = append(out, LedgerEntry{
			Version: row.Version, Name: row.Name, State: LedgerUnknown, Checksum: row.Checksum, AppliedAt: &at,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

func appliedVersions(applied []AppliedMigration) []int {
	out := make([]int, 0, len(applied))
	for _, row := range applied {
		out = append(out, row.Version)
	}
	return out
}

// RollbackMigration reverts one applied migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	store := NewMigrationStore(db)
	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	for _, row := range applied {
		if row.Version == version {
			return store.Revert(ctx, *m)
		}
	}
	return fmt.Errorf("migration %s has not been applied", m.String())
}
