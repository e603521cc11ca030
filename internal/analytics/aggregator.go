package analytics

import (
	"context"
	"time"

	"forumflow/internal/constants"
	"forumflow/internal/events"
	"forumflow/internal/logger"
	"forumflow/internal/runtime"
)

// Aggregator maps domain events onto counter increments and
// time-series points. It is the only writer of its Store.
type Aggregator struct {
	store  *Store
	logger logger.Logger
}

func NewAggregator(store *Store, log logger.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: log,
	}
}

func (a *Aggregator) Store() *Store {
	return a.store
}

// Handlers wires the aggregation rules into the consumer runtime.
// Every known envelope also lands in the recent-event log.
func (a *Aggregator) Handlers() runtime.HandlerSet {
	return runtime.HandlerSet{
		Envelope: func(ctx context.Context, env events.Envelope) error {
			a.store.RecordEvent(env)
			return nil
		},
		UserRegistered: func(ctx context.Context, p events.UserPayload) error {
			a.store.Inc(CounterUsersRegistered, nil)
			return nil
		},
		UserLogin: func(ctx context.Context, p events.UserPayload) error {
			a.store.Inc(CounterUsersLogin, nil)
			return nil
		},
		TopicCreated: func(ctx context.Context, p events.TopicPayload) error {
			a.store.Inc(CounterTopicsCreated, nil)
			if p.ForumID != "" {
				a.store.Inc(CounterTopicsCreatedForum, map[string]string{"forumId": p.ForumID})
			}
			a.store.Append(SeriesTopicsCreated, time.Now().UTC(), 1)
			return nil
		},
		TopicViewed: func(ctx context.Context, p events.TopicViewPayload) error {
			a.store.Inc(CounterTopicsViewed, nil)
			if p.TopicID != "" {
				a.store.Inc(CounterTopicViewsByTopic, map[string]string{"topicId": p.TopicID})
			}
			return nil
		},
		PostCreated: func(ctx context.Context, p events.PostPayload) error {
			a.store.Inc(CounterPostsCreated, nil)
			if p.ForumID != "" {
				a.store.Inc(CounterPostsCreatedForum, map[string]string{"forumId": p.ForumID})
			}
			if p.TopicID != "" {
				a.store.Inc(CounterPostsCreatedTopic, map[string]string{"topicId": p.TopicID})
			}
			a.store.Append(SeriesPostsCreated, time.Now().UTC(), 1)
			return nil
		},
		SearchPerformed: func(ctx context.Context, p events.SearchPayload) error {
			a.store.Inc(CounterSearches, nil)
			return nil
		},
		ContentUpdated: func(ctx context.Context, p events.ContentPayload) error {
			switch p.ContentType {
			case constants.ContentTypeTopic:
				a.store.Inc(CounterTopicsUpdated, nil)
			case constants.ContentTypePost:
				a.store.Inc(CounterPostsUpdated, nil)
			}
			return nil
		},
		ContentModerated: func(ctx context.Context, p events.ContentPayload) error {
			a.store.Inc(CounterContentModerated, nil)
			return nil
		},
	}
}
