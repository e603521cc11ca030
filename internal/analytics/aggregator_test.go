package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumflow/internal/events"
	"forumflow/internal/logger"
)

func newTestAggregator(t *testing.T) (*Aggregator, *Store) {
	t.Helper()
	store := NewStore(100)
	return NewAggregator(store, logger.NopLogger()), store
}

func TestAggregatorCountsUsers(t *testing.T) {
	agg, store := newTestAggregator(t)
	handlers := agg.Handlers()
	ctx := context.Background()

	require.NoError(t, handlers.UserRegistered(ctx, events.UserPayload{UserID: "u-1"}))
	require.NoError(t, handlers.UserLogin(ctx, events.UserPayload{UserID: "u-1"}))
	require.NoError(t, handlers.UserLogin(ctx, events.UserPayload{UserID: "u-1"}))

	assert.Equal(t, int64(1), store.Counter(CounterUsersRegistered, nil).Count)
	assert.Equal(t, int64(2), store.Counter(CounterUsersLogin, nil).Count)
}

func TestAggregatorTopicCreated(t *testing.T) {
	agg, store := newTestAggregator(t)
	handlers := agg.Handlers()
	ctx := context.Background()

	require.NoError(t, handlers.TopicCreated(ctx, events.TopicPayload{TopicID: "t-1", ForumID: "f-1"}))
	require.NoError(t, handlers.TopicCreated(ctx, events.TopicPayload{TopicID: "t-2", ForumID: "f-1"}))
	require.NoError(t, handlers.TopicCreated(ctx, events.TopicPayload{TopicID: "t-3"}))

	assert.Equal(t, int64(3), store.Counter(CounterTopicsCreated, nil).Count)
	assert.Equal(t, int64(2), store.Counter(CounterTopicsCreatedForum, map[string]string{"forumId": "f-1"}).Count)
	assert.Len(t, store.Series(SeriesTopicsCreated, SeriesQuery{}), 3)
}

func TestAggregatorTopicViewed(t *testing.T) {
	agg, store := newTestAggregator(t)
	handlers := agg.Handlers()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, handlers.TopicViewed(ctx, events.TopicViewPayload{TopicID: "t-1"}))
	}

	assert.Equal(t, int64(3), store.Counter(CounterTopicsViewed, nil).Count)
	assert.Equal(t, int64(3), store.Counter(CounterTopicViewsByTopic, map[string]string{"topicId": "t-1"}).Count)
}

func TestAggregatorPostCreated(t *testing.T) {
	agg, store := newTestAggregator(t)
	handlers := agg.Handlers()
	ctx := context.Background()

	require.NoError(t, handlers.PostCreated(ctx, events.PostPayload{
		PostID: "p-1", TopicID: "t-1", ForumID: "f-1",
	}))

	assert.Equal(t, int64(1), store.Counter(CounterPostsCreated, nil).Count)
	assert.Equal(t, int64(1), store.Counter(CounterPostsCreatedForum, map[string]string{"forumId": "f-1"}).Count)
	assert.Equal(t, int64(1), store.Counter(CounterPostsCreatedTopic, map[string]string{"topicId": "t-1"}).Count)
	assert.Len(t, store.Series(SeriesPostsCreated, SeriesQuery{}), 1)
}

func TestAggregatorContentUpdatedSplitsByType(t *testing.T) {
	agg, store := newTestAggregator(t)
	handlers := agg.Handlers()
	ctx := context.Background()

	require.NoError(t, handlers.ContentUpdated(ctx, events.ContentPayload{ContentType: "topic", ContentID: "t-1"}))
	require.NoError(t, handlers.ContentUpdated(ctx, events.ContentPayload{ContentType: "post", ContentID: "p-1"}))
	require.NoError(t, handlers.ContentUpdated(ctx, events.ContentPayload{ContentType: "post", ContentID: "p-2"}))

	assert.Equal(t, int64(1), store.Counter(CounterTopicsUpdated, nil).Count)
	assert.Equal(t, int64(2), store.Counter(CounterPostsUpdated, nil).Count)
}

func TestAggregatorSearchAndModeration(t *testing.T) {
	agg, store := newTestAggregator(t)
	handlers := agg.Handlers()
	ctx := context.Background()

	require.NoError(t, handlers.SearchPerformed(ctx, events.SearchPayload{Query: "go"}))
	require.NoError(t, handlers.ContentModerated(ctx, events.ContentPayload{ContentType: "post", ContentID: "p-1"}))

	assert.Equal(t, int64(1), store.Counter(CounterSearches, nil).Count)
	assert.Equal(t, int64(1), store.Counter(CounterContentModerated, nil).Count)
}

func TestAggregatorRecordsEnvelopes(t *testing.T) {
	agg, store := newTestAggregator(t)
	handlers := agg.Handlers()
	ctx := context.Background()

	require.NoError(t, handlers.Envelope(ctx, events.Envelope{ID: "e-1", EventName: "topic.viewed"}))
	require.NoError(t, handlers.Envelope(ctx, events.Envelope{ID: "e-2", EventName: "user.login"}))

	recent := store.RecentEvents(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "e-2", recent[0].ID)
	assert.Equal(t, "e-1", recent[1].ID)
}
