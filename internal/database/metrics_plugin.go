package database

import (
	"time"

	"murmur/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "murmur:query_start"

// QueryMetrics is a GORM plugin recording statement latency per operation and table.
type QueryMetrics struct{}

// Name implements gorm.Plugin.
func (QueryMetrics) Name() string {
	return "murmur:query_metrics"
}

// Initialize implements gorm.Plugin.
func (QueryMetrics) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		if err := h.before("metrics:before_"+h.op, startTimer); err != nil {
			return err
		}
		if err := h.after("metrics:after_"+h.op, observe(h.op)); err != nil {
			return err
		}
	}
	return nil
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observe(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		observability.DatabaseQueryLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
	}
}
