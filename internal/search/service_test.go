package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumflow/internal/events"
	"forumflow/internal/logger"
	"forumflow/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewIndex(), nil, logger.NopLogger())
}

func seed(svc *Service, n int) {
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		svc.index.Upsert(topicPayload(fmt.Sprintf("t-%d", i), "seeded topic", "body text"), now.Add(time.Duration(i)*time.Second))
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := newTestService(t)

	for _, q := range []string{"", "   ", "\t"} {
		_, err := svc.Search(context.Background(), q, Filters{}, 10, 0)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Equal(t, `Query parameter "q" is required`, errors.ToErrorResponse(err).Error)
	}
}

func TestSearchRejectsInvalidContentType(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Search(context.Background(), "query", Filters{ContentType: "comment"}, 10, 0)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "Invalid content type", errors.ToErrorResponse(err).Error)
}

func TestSearchClampsLimit(t *testing.T) {
	svc := newTestService(t)
	seed(svc, 150)

	// Zero limit falls back to the default page size.
	resp, err := svc.Search(context.Background(), "seeded", Filters{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 20)
	assert.Equal(t, 150, resp.Total)

	// Oversized limit is capped, not rejected.
	resp, err = svc.Search(context.Background(), "seeded", Filters{}, 5000, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 100)
	assert.Equal(t, 150, resp.Total)
}

func TestSearchNegativeOffset(t *testing.T) {
	svc := newTestService(t)
	seed(svc, 3)

	resp, err := svc.Search(context.Background(), "seeded", Filters{}, 10, -5)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
}

func TestSuggestValidationAndClamp(t *testing.T) {
	svc := newTestService(t)
	now := time.Now().UTC()
	for i := 0; i < 30; i++ {
		svc.index.Upsert(topicPayload(fmt.Sprintf("t-%d", i), fmt.Sprintf("seeded title %d", i), "body"), now)
	}

	_, err := svc.Suggest(context.Background(), " ", "", 10)
	assert.True(t, errors.IsValidation(err))

	_, err = svc.Suggest(context.Background(), "see", "comment", 10)
	assert.True(t, errors.IsValidation(err))

	suggestions, err := svc.Suggest(context.Background(), "see", "", 500)
	require.NoError(t, err)
	assert.Len(t, suggestions, 20)

	suggestions, err = svc.Suggest(context.Background(), "see", "", 0)
	require.NoError(t, err)
	assert.Len(t, suggestions, 10)
}

func TestGetByID(t *testing.T) {
	svc := newTestService(t)
	svc.index.Upsert(topicPayload("t-1", "Go concurrency", "body"), time.Now().UTC())

	doc, err := svc.GetByID(context.Background(), "topic", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Go concurrency", doc.Title)

	_, err = svc.GetByID(context.Background(), "topic", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "Content not found", errors.ToErrorResponse(err).Error)

	_, err = svc.GetByID(context.Background(), "comment", "t-1")
	assert.True(t, errors.IsValidation(err))
}

func TestHandlersMaintainIndex(t *testing.T) {
	svc := newTestService(t)
	handlers := svc.Handlers()
	ctx := context.Background()

	require.NoError(t, handlers.ContentCreated(ctx, topicPayload("t-1", "Created title", "body")))
	doc, err := svc.GetByID(ctx, "topic", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Created title", doc.Title)

	require.NoError(t, handlers.ContentUpdated(ctx, events.ContentPayload{
		ContentType: "topic",
		ContentID:   "t-1",
		Title:       strptr("Updated title"),
	}))
	doc, err = svc.GetByID(ctx, "topic", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated title", doc.Title)
	assert.Equal(t, "body", doc.Body)

	require.NoError(t, handlers.ContentDeleted(ctx, events.ContentPayload{
		ContentType: "topic",
		ContentID:   "t-1",
	}))
	_, err = svc.GetByID(ctx, "topic", "t-1")
	assert.True(t, errors.IsNotFound(err))
}

func TestNilCacheIsSafe(t *testing.T) {
	svc := NewService(NewIndex(), nil, logger.NopLogger())
	seed(svc, 1)

	resp, err := svc.Search(context.Background(), "seeded", Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
}
