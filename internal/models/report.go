package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportStatus is the moderation state of a report. Pending is initial, resolved is terminal.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusResolved ReportStatus = "resolved"
)

// ParseReportStatus defaults to pending when s is empty.
func ParseReportStatus(s string) (ReportStatus, error) {
	switch ReportStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReportStatusPending:
		return ReportStatusPending, nil
	case ReportStatusResolved:
		return ReportStatusResolved, nil
	default:
		return "", NewValidationError(fmt.Sprintf("Unknown report status %q", s))
	}
}

// Report flags a post for administrator review. Reports outlive the post they reference.
type Report struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PostID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"post_id"`
	ReporterID uuid.UUID    `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reason     string       `gorm:"type:text;not null" json:"reason"`
	Status     ReportStatus `gorm:"size:16;not null;default:'pending';index:idx_reports_status_created,priority:1" json:"status"`
	CreatedAt  time.Time    `gorm:"index:idx_reports_status_created,priority:2" json:"created_at"`
	ResolvedBy *uuid.UUID   `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
}

func (r *Report) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = ReportStatusPending
	}
	return nil
}

// ReportView pairs a report with the current projection of its post.
// PostRemoved is set when the post no longer exists.
type ReportView struct {
	Report
	Post        *PostView `json:"post,omitempty"`
	PostRemoved bool      `json:"post_removed"`
}
