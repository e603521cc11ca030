package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

// TopicForumEvents carries every domain event emitted after a forum
// mutation commits. Both derived-store consumers read it with their
// own group IDs.
const (
	TopicForumEvents = "forum.events"
)

const (
	GroupSearchIndexer       = "search-indexer"
	GroupAnalyticsAggregator = "analytics-aggregator"
)

const (
	PublishTimeout  = 2 * time.Second
	ShutdownTimeout = 5 * time.Second
)

const (
	MaxSearchLimit      = 100
	DefaultSearchLimit  = 20
	MaxSuggestLimit     = 20
	DefaultSuggestLimit = 10
	DefaultEventsLimit  = 50
	MaxEventsLimit      = 500
	DefaultEventLogSize = 1000
)

const (
	ContentTypeTopic = "topic"
	ContentTypePost  = "post"
	ContentTypeUser  = "user"
)
