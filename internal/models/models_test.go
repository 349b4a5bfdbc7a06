package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReactionKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ReactionKind
		wantErr bool
	}{
		{"like", ReactionLike, false},
		{" Dislike ", ReactionDislike, false},
		{"", ReactionNone, false},
		{"none", ReactionNone, false},
		{"love", ReactionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReactionKind(tt.in)
			if tt.wantErr {
				assert.True(t, IsCode(err, CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReactionKind_JSON(t *testing.T) {
	var body struct {
		Kind ReactionKind `json:"kind"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"kind":"dislike"}`), &body))
	assert.Equal(t, ReactionDislike, body.Kind)

	require.NoError(t, json.Unmarshal([]byte(`{"kind":null}`), &body))
	assert.Equal(t, ReactionNone, body.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":3}`), &body))

	out, err := json.Marshal(ReactionResult{ViewerReaction: ReactionNone})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"viewer_reaction":null`)

	out, err = json.Marshal(ReactionResult{ViewerReaction: ReactionLike})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"viewer_reaction":"like"`)
}

func TestReactionKind_ValueScan(t *testing.T) {
	v, err := ReactionDislike.Value()
	require.NoError(t, err)
	assert.Equal(t, "dislike", v)

	_, err = ReactionNone.Value()
	assert.Error(t, err)

	var k ReactionKind
	require.NoError(t, k.Scan([]byte("like")))
	assert.Equal(t, ReactionLike, k)
	assert.Error(t, k.Scan(42))
}

func TestParseTopic(t *testing.T) {
	got, err := ParseTopic("  Health ")
	require.NoError(t, err)
	assert.Equal(t, TopicHealth, got)

	_, err = ParseTopic("")
	assert.True(t, IsCode(err, CodeValidation))

	_, err = ParseTopic("sports")
	assert.True(t, IsCode(err, CodeValidation))

	assert.Len(t, AllTopics, 11)
}

func TestParseReportStatus(t *testing.T) {
	s, err := ParseReportStatus("")
	require.NoError(t, err)
	assert.Equal(t, ReportStatusPending, s)

	s, err = ParseReportStatus("RESOLVED")
	require.NoError(t, err)
	assert.Equal(t, ReportStatusResolved, s)

	_, err = ParseReportStatus("dismissed")
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewUnauthorizedError("x"), fiber.StatusUnauthorized},
		{NewForbiddenError("x"), fiber.StatusForbidden},
		{NewValidationError("x"), fiber.StatusBadRequest},
		{NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{NewPersistenceError(errors.New("conn reset")), fiber.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", NewForbiddenError("x")), fiber.StatusForbidden},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := NewPersistenceError(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, CodePersistence))
	assert.False(t, IsCode(cause, CodePersistence))
}
