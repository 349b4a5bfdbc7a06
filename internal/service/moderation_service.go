package service

import (
	"context"
	"log/slog"
	"time"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ModerationService runs the report lifecycle and administrator content removal.
type ModerationService struct {
	uow       repository.UnitOfWork
	repos     *repository.Repositories
	projector *Projector
	isAdmin   AdminChecker
	notifier  *notifications.Notifier
	logger    *observability.ServiceLogger
	now       func() time.Time
}

// NewModerationService returns a new ModerationService. notifier may be nil.
func NewModerationService(
	uow repository.UnitOfWork,
	repos *repository.Repositories,
	isAdmin AdminChecker,
	notifier *notifications.Notifier,
) *ModerationService {
	return &ModerationService{
		uow:       uow,
		repos:     repos,
		projector: NewProjector(repos.Reactions, repos.Profiles),
		isAdmin:   isAdmin,
		notifier:  notifier,
		logger:    observability.NewServiceLogger("ModerationService"),
		now:       time.Now,
	}
}

// SubmitReport files a pending report against an existing post. Repeat reports are kept.
func (s *ModerationService) SubmitReport(
	ctx context.Context,
	postID, reporterID uuid.UUID,
	reason string,
) (report *models.Report, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "ModerationService", "SubmitReport",
		attribute.String("post.id", postID.String()),
	)
	defer func() { span.End(err) }()

	if err = requireActor(reporterID); err != nil {
		return nil, err
	}
	reason, err = cleanText(reason, "Reason", maxReasonLen)
	if err != nil {
		return nil, err
	}
	if _, err = s.repos.Posts.GetByID(ctx, postID); err != nil {
		err = translate(err, "Post", postID)
		return nil, err
	}

	report = &models.Report{
		PostID:     postID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     models.ReportStatusPending,
	}
	if err = s.repos.Reports.Create(ctx, report); err != nil {
		err = translate(err, "Report", report.ID)
		return nil, err
	}

	observability.ModerationActionsTotal.WithLabelValues(notifications.EventReportSubmitted).Inc()
	s.publish(ctx, notifications.ModerationEvent{
		Type:     notifications.EventReportSubmitted,
		PostID:   postID,
		ReportID: &report.ID,
		ActorID:  reporterID,
		Reason:   reason,
	})
	s.logger.LogCall(ctx, "SubmitReport", slog.Any("report_id", report.ID), slog.Any("post_id", postID))
	return report, nil
}

// ResolveReport moves a pending report to resolved. Resolving a resolved report is a no-op.
func (s *ModerationService) ResolveReport(ctx context.Context, reportID, adminID uuid.UUID) (report *models.Report, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "ModerationService", "ResolveReport",
		attribute.String("report.id", reportID.String()),
	)
	defer func() { span.End(err) }()

	if err = requireAdmin(ctx, s.isAdmin, adminID, "resolve reports"); err != nil {
		return nil, err
	}

	report, err = s.repos.Reports.GetByID(ctx, reportID)
	if err != nil {
		err = translate(err, "Report", reportID)
		return nil, err
	}
	if report.Status == models.ReportStatusResolved {
		return report, nil
	}

	changed, err := s.repos.Reports.MarkResolved(ctx, reportID, adminID, s.now().UTC())
	if err != nil {
		err = translate(err, "Report", reportID)
		return nil, err
	}
	if report, err = s.repos.Reports.GetByID(ctx, reportID); err != nil {
		err = translate(err, "Report", reportID)
		return nil, err
	}
	if !changed {
		// Another administrator resolved it first.
		return report, nil
	}

	observability.ModerationActionsTotal.WithLabelValues(notifications.EventReportResolved).Inc()
	s.publish(ctx, notifications.ModerationEvent{
		Type:     notifications.EventReportResolved,
		PostID:   report.PostID,
		ReportID: &report.ID,
		ActorID:  adminID,
	})
	s.logger.LogCall(ctx, "ResolveReport", slog.Any("report_id", reportID))
	return report, nil
}

// RemoveReportedPost deletes a post with its reactions and comments. Reports against it are kept.
func (s *ModerationService) RemoveReportedPost(ctx context.Context, postID, adminID uuid.UUID) (err error) {
	span, ctx := observability.StartServiceSpan(ctx, "ModerationService", "RemoveReportedPost",
		attribute.String("post.id", postID.String()),
	)
	defer func() { span.End(err) }()

	if err = requireAdmin(ctx, s.isAdmin, adminID, "remove posts"); err != nil {
		return err
	}
	if err = removePostCascade(ctx, s.uow, postID); err != nil {
		err = translate(err, "Post", postID)
		return err
	}
	cache.InvalidateTopicStats(ctx)

	observability.ModerationActionsTotal.WithLabelValues(notifications.EventPostRemoved).Inc()
	s.publish(ctx, notifications.ModerationEvent{
		Type:    notifications.EventPostRemoved,
		PostID:  postID,
		ActorID: adminID,
	})
	s.logger.LogCall(ctx, "RemoveReportedPost", slog.Any("post_id", postID))
	return nil
}

// ListReports returns one status partition newest first. Each entry carries the current
// projection of its post, or PostRemoved when the post is gone.
func (s *ModerationService) ListReports(
	ctx context.Context,
	adminID uuid.UUID,
	status models.ReportStatus,
	limit, offset int,
) ([]*models.ReportView, error) {
	if err := requireAdmin(ctx, s.isAdmin, adminID, "review reports"); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	reports, err := s.repos.Reports.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}

	postIDs := make([]uuid.UUID, 0, len(reports))
	for _, r := range reports {
		postIDs = append(postIDs, r.PostID)
	}
	posts, err := s.repos.Posts.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}

	live := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		live = append(live, p)
	}
	projected, err := s.projector.ProjectPosts(ctx, live, adminID)
	if err != nil {
		return nil, err
	}
	viewByPost := make(map[uuid.UUID]*models.PostView, len(projected))
	for _, v := range projected {
		viewByPost[v.ID] = v
	}

	views := make([]*models.ReportView, 0, len(reports))
	for _, r := range reports {
		view := &models.ReportView{Report: *r}
		if pv, ok := viewByPost[r.PostID]; ok {
			view.Post = pv
		} else {
			view.PostRemoved = true
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ModerationService) publish(ctx context.Context, event notifications.ModerationEvent) {
	if err := s.notifier.PublishModerationEvent(ctx, event); err != nil {
		s.logger.LogWarn(ctx, "publish:"+event.Type, err)
	}
}
