package server

import (
	"net/http"
	"testing"

	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createPost(t *testing.T, token string, anonymous bool) models.PostView {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/posts", map[string]any{
		"content": "streetlights out on the main road", "topic": "security", "is_anonymous": anonymous,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.PostView](t, resp)
}

func TestPostHandlers(t *testing.T) {
	env := newTestEnv(t, nil)
	author := testutil.CreateProfile(t, env.db, "alice")
	token := testutil.SignToken(t, author)

	created := env.createPost(t, token, false)
	assert.Equal(t, models.TopicSecurity, created.Topic)
	assert.Equal(t, "alice", created.AuthorName)
	assert.True(t, created.IsOwn)

	t.Run("get as guest", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/posts/"+created.ID.String(), nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		view := decode[models.PostView](t, resp)
		assert.False(t, view.IsOwn)
		assert.Equal(t, "alice", view.AuthorName)
	})

	t.Run("invalid token on public route falls back to guest", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/posts/"+created.ID.String(), nil, "garbage")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, decode[models.PostView](t, resp).IsOwn)
	})

	t.Run("feed", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/posts?topic=security&limit=5", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		feed := decode[[]models.PostView](t, resp)
		require.Len(t, feed, 1)
		assert.True(t, feed[0].IsOwn)

		resp = env.do(t, http.MethodGet, "/api/posts?topic=health", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decode[[]models.PostView](t, resp))

		resp = env.do(t, http.MethodGet, "/api/posts?topic=weather", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("create validation", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/posts", map[string]any{"content": "  ", "topic": "other"}, token)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, resp).Code)
	})

	t.Run("topic stats", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/topics/stats", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		stats := decode[models.TopicStats](t, resp)
		assert.Equal(t, int64(1), stats.TotalPosts)
		assert.Len(t, stats.Topics, len(models.AllTopics))
	})

	t.Run("delete by stranger then owner", func(t *testing.T) {
		stranger := testutil.SignToken(t, uuid.New())
		resp := env.do(t, http.MethodDelete, "/api/posts/"+created.ID.String(), nil, stranger)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = env.do(t, http.MethodDelete, "/api/posts/"+created.ID.String(), nil, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = env.do(t, http.MethodGet, "/api/posts/"+created.ID.String(), nil, "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, resp).Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/posts/123", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSetReactionHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	author := testutil.SignToken(t, uuid.New())
	viewerID := uuid.New()
	viewer := testutil.SignToken(t, viewerID)
	post := env.createPost(t, author, true)
	path := "/api/posts/" + post.ID.String() + "/reaction"

	resp := env.do(t, http.MethodPut, path, map[string]any{"kind": "like"}, viewer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[models.ReactionResult](t, resp)
	assert.Equal(t, int64(1), res.LikesCount)
	assert.Equal(t, models.ReactionLike, res.ViewerReaction)

	resp = env.do(t, http.MethodPut, path, map[string]any{"kind": "dislike"}, viewer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = decode[models.ReactionResult](t, resp)
	assert.Equal(t, int64(0), res.LikesCount)
	assert.Equal(t, int64(1), res.DislikesCount)

	resp = env.do(t, http.MethodGet, "/api/posts/"+post.ID.String(), nil, viewer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[models.PostView](t, resp)
	assert.Equal(t, models.ReactionDislike, view.ViewerReaction)
	assert.Equal(t, models.AnonymousLabel, view.AuthorName)

	resp = env.do(t, http.MethodPut, path, map[string]any{"kind": "dislike"}, viewer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = decode[models.ReactionResult](t, resp)
	assert.Equal(t, int64(0), res.DislikesCount)
	assert.Equal(t, models.ReactionNone, res.ViewerReaction)

	resp = env.do(t, http.MethodPut, path, map[string]any{"kind": nil}, viewer)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPut, path, map[string]any{"kind": "love"}, viewer)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, resp).Code)

	resp = env.do(t, http.MethodPut, "/api/posts/"+uuid.NewString()+"/reaction", map[string]any{"kind": "like"}, viewer)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, path, map[string]any{"kind": "like"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCommentHandlers(t *testing.T) {
	env := newTestEnv(t, nil)
	ownerID := testutil.CreateProfile(t, env.db, "owner")
	owner := testutil.SignToken(t, ownerID)
	admin := testutil.SignToken(t, testutil.CreateAdmin(t, env.db, "mod"))
	stranger := testutil.SignToken(t, uuid.New())
	post := env.createPost(t, owner, false)
	commentsPath := "/api/posts/" + post.ID.String() + "/comments"

	resp := env.do(t, http.MethodPost, commentsPath, map[string]any{"content": "me too"}, owner)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	thread := decode[models.CommentThread](t, resp)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, int64(1), thread.CommentsCount)
	first := thread.Comments[0]

	resp = env.do(t, http.MethodPost, commentsPath, map[string]any{"content": "anon", "is_anonymous": true}, stranger)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, commentsPath, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	thread = decode[models.CommentThread](t, resp)
	require.Len(t, thread.Comments, 2)
	assert.Equal(t, "owner", thread.Comments[0].AuthorName)
	assert.Equal(t, models.AnonymousLabel, thread.Comments[1].AuthorName)
	second := thread.Comments[1]

	resp = env.do(t, http.MethodDelete, "/api/comments/"+first.ID.String(), nil, stranger)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/comments/"+first.ID.String(), nil, owner)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	thread = decode[models.CommentThread](t, resp)
	assert.Equal(t, int64(1), thread.CommentsCount)

	resp = env.do(t, http.MethodDelete, "/api/comments/"+second.ID.String(), nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), decode[models.CommentThread](t, resp).CommentsCount)

	resp = env.do(t, http.MethodDelete, "/api/comments/"+second.ID.String(), nil, admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, commentsPath, map[string]any{"content": ""}, owner)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/posts/"+uuid.NewString()+"/comments", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestModerationHandlers(t *testing.T) {
	env := newTestEnv(t, nil)
	author := testutil.SignToken(t, testutil.CreateProfile(t, env.db, "author"))
	reporter := testutil.SignToken(t, testutil.CreateProfile(t, env.db, "reporter"))
	adminID := testutil.CreateAdmin(t, env.db, "mod")
	admin := testutil.SignToken(t, adminID)

	first := env.createPost(t, author, false)
	second := env.createPost(t, author, false)

	resp := env.do(t, http.MethodPost, "/api/posts/"+first.ID.String()+"/reports", map[string]any{"reason": "spam"}, reporter)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	r1 := decode[models.Report](t, resp)
	assert.Equal(t, models.ReportStatusPending, r1.Status)

	resp = env.do(t, http.MethodPost, "/api/posts/"+second.ID.String()+"/reports", map[string]any{"reason": "rude"}, reporter)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/posts/"+first.ID.String()+"/reports", map[string]any{"reason": ""}, reporter)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/admin/reports/"+r1.ID.String()+"/resolve", nil, reporter)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/admin/reports/"+r1.ID.String()+"/resolve", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resolved := decode[models.Report](t, resp)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, adminID, *resolved.ResolvedBy)

	resp = env.do(t, http.MethodPost, "/api/admin/reports/"+r1.ID.String()+"/resolve", nil, admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "resolving again is a no-op")

	resp = env.do(t, http.MethodGet, "/api/admin/reports?status=pending", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decode[[]models.ReportView](t, resp)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].PostID)
	require.NotNil(t, pending[0].Post)

	resp = env.do(t, http.MethodGet, "/api/admin/reports?status=archived", nil, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/admin/posts/"+second.ID.String(), nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/posts/"+second.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/posts/"+second.ID.String()+"/comments", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/reports", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending = decode[[]models.ReportView](t, resp)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].PostRemoved)

	resp = env.do(t, http.MethodDelete, "/api/admin/posts/"+second.ID.String(), nil, admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
