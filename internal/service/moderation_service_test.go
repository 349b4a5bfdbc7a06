package service

import (
	"context"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, uuid.New(), false)
	reporter := uuid.New()

	report, err := f.moderation.SubmitReport(ctx, post.ID, reporter, "  spam  ")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, "spam", report.Reason)
	assert.Equal(t, reporter, report.ReporterID)
	assert.Nil(t, report.ResolvedBy)

	_, err = f.moderation.SubmitReport(ctx, post.ID, reporter, "spam again")
	require.NoError(t, err, "repeat reports by the same user are accepted")

	_, err = f.moderation.SubmitReport(ctx, post.ID, uuid.Nil, "spam")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = f.moderation.SubmitReport(ctx, post.ID, reporter, " ")
	assertCode(t, err, models.CodeValidation)

	_, err = f.moderation.SubmitReport(ctx, uuid.New(), reporter, "spam")
	assertCode(t, err, models.CodeNotFound)

	pending, err := f.repos.Reports.CountByStatus(ctx, models.ReportStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)
}

func TestResolveReport_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateAdmin(t, f.db, "mod")
	post := f.createPost(t, uuid.New(), false)

	report, err := f.moderation.SubmitReport(ctx, post.ID, uuid.New(), "rude")
	require.NoError(t, err)

	first, err := f.moderation.ResolveReport(ctx, report.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, first.Status)
	require.NotNil(t, first.ResolvedBy)
	assert.Equal(t, admin, *first.ResolvedBy)
	require.NotNil(t, first.ResolvedAt)

	second, err := f.moderation.ResolveReport(ctx, report.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, second.Status)
	assert.True(t, first.ResolvedAt.Equal(*second.ResolvedAt), "second resolve changes nothing")
}

func TestResolveReport_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, f.db, "user")
	admin := testutil.CreateAdmin(t, f.db, "mod")
	post := f.createPost(t, uuid.New(), false)

	report, err := f.moderation.SubmitReport(ctx, post.ID, user, "rude")
	require.NoError(t, err)

	_, err = f.moderation.ResolveReport(ctx, report.ID, user)
	assertCode(t, err, models.CodeForbidden)

	_, err = f.moderation.ResolveReport(ctx, report.ID, uuid.Nil)
	assertCode(t, err, models.CodeUnauthorized)

	_, err = f.moderation.ResolveReport(ctx, uuid.New(), admin)
	assertCode(t, err, models.CodeNotFound)

	got, err := f.repos.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, got.Status)
}

func TestRemoveReportedPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := testutil.CreateProfile(t, f.db, "author")
	user := testutil.CreateProfile(t, f.db, "user")
	admin := testutil.CreateAdmin(t, f.db, "mod")
	post := f.createPost(t, author, false)

	_, err := f.reactions.SetReaction(ctx, post.ID, user, models.ReactionLike)
	require.NoError(t, err)
	_, err = f.comments.AddComment(ctx, AddCommentInput{PostID: post.ID, UserID: user, Content: "hmm"})
	require.NoError(t, err)
	report, err := f.moderation.SubmitReport(ctx, post.ID, user, "off topic")
	require.NoError(t, err)

	err = f.moderation.RemoveReportedPost(ctx, post.ID, user)
	assertCode(t, err, models.CodeForbidden)
	_, err = f.posts.GetPost(ctx, post.ID, user)
	require.NoError(t, err, "forbidden removal leaves the post")

	require.NoError(t, f.moderation.RemoveReportedPost(ctx, post.ID, admin))

	_, err = f.posts.GetPost(ctx, post.ID, user)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.comments.ListComments(ctx, post.ID, user)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.reactions.SetReaction(ctx, post.ID, user, models.ReactionDislike)
	assertCode(t, err, models.CodeNotFound)

	feed, err := f.posts.ListFeed(ctx, ListFeedInput{ViewerID: user})
	require.NoError(t, err)
	assert.Empty(t, feed)

	var reactions, comments int64
	require.NoError(t, f.db.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&reactions).Error)
	require.NoError(t, f.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	assert.Zero(t, reactions)
	assert.Zero(t, comments)

	kept, err := f.repos.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err, "reports survive removal of their post")
	assert.Equal(t, post.ID, kept.PostID)

	err = f.moderation.RemoveReportedPost(ctx, post.ID, admin)
	assertCode(t, err, models.CodeNotFound)
}

func TestListReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := testutil.CreateProfile(t, f.db, "author")
	user := testutil.CreateProfile(t, f.db, "user")
	admin := testutil.CreateAdmin(t, f.db, "mod")
	first := f.createPost(t, author, false)
	second := f.createPost(t, author, true)

	r1, err := f.moderation.SubmitReport(ctx, first.ID, user, "spam")
	require.NoError(t, err)
	r2, err := f.moderation.SubmitReport(ctx, second.ID, user, "spam")
	require.NoError(t, err)

	_, err = f.moderation.ListReports(ctx, user, models.ReportStatusPending, 0, 0)
	assertCode(t, err, models.CodeForbidden)

	_, err = f.moderation.ResolveReport(ctx, r1.ID, admin)
	require.NoError(t, err)

	pending, err := f.moderation.ListReports(ctx, admin, models.ReportStatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, r2.ID, pending[0].ID)
	require.NotNil(t, pending[0].Post)
	assert.Equal(t, models.AnonymousLabel, pending[0].Post.AuthorName)
	assert.False(t, pending[0].PostRemoved)

	resolved, err := f.moderation.ListReports(ctx, admin, models.ReportStatusResolved, 0, 0)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, r1.ID, resolved[0].ID)
	assert.Equal(t, "author", resolved[0].Post.AuthorName)

	require.NoError(t, f.moderation.RemoveReportedPost(ctx, second.ID, admin))
	pending, err = f.moderation.ListReports(ctx, admin, models.ReportStatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].PostRemoved)
	assert.Nil(t, pending[0].Post)
}

func TestModeration_PublishesEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	notifier := notifications.NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan notifications.ModerationEvent, 8)
	require.NoError(t, notifier.StartModerationSubscriber(ctx, func(e notifications.ModerationEvent) {
		events <- e
	}))

	f := newFixtureWithNotifier(t, notifier)
	admin := testutil.CreateAdmin(t, f.db, "mod")
	reporter := uuid.New()
	post := f.createPost(t, uuid.New(), false)

	report, err := f.moderation.SubmitReport(ctx, post.ID, reporter, "spam")
	require.NoError(t, err)
	_, err = f.moderation.ResolveReport(ctx, report.ID, admin)
	require.NoError(t, err)
	_, err = f.moderation.ResolveReport(ctx, report.ID, admin)
	require.NoError(t, err)
	require.NoError(t, f.moderation.RemoveReportedPost(ctx, post.ID, admin))

	want := []string{
		notifications.EventReportSubmitted,
		notifications.EventReportResolved,
		notifications.EventPostRemoved,
	}
	for _, typ := range want {
		select {
		case e := <-events:
			assert.Equal(t, typ, e.Type)
			assert.Equal(t, post.ID, e.PostID)
			assert.False(t, e.OccurredAt.IsZero())
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
	select {
	case e := <-events:
		t.Fatalf("unexpected extra event %s", e.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestModeration_PublishFailureDoesNotFailOperation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	f := newFixtureWithNotifier(t, notifications.NewNotifier(rdb))
	post := f.createPost(t, uuid.New(), false)

	report, err := f.moderation.SubmitReport(context.Background(), post.ID, uuid.New(), "spam")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)
}
