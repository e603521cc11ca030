// Package analytics maintains counters, time series and a bounded
// recent-event log derived from the forum event stream, and serves the
// rollup query surface. State lives for the process lifetime only;
// counters reset on restart.
package analytics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"forumflow/internal/events"
	"forumflow/pkg/metrics"
)

// Counter names fed by the event handlers.
const (
	CounterUsersRegistered    = "users_registered_total"
	CounterUsersLogin         = "users_login_total"
	CounterTopicsCreated      = "topics_created_total"
	CounterTopicsCreatedForum = "topics_created_by_forum"
	CounterTopicsViewed       = "topics_viewed_total"
	CounterTopicViewsByTopic  = "topic_views_by_topic"
	CounterTopicsUpdated      = "topics_updated_total"
	CounterPostsCreated       = "posts_created_total"
	CounterPostsCreatedForum  = "posts_created_by_forum"
	CounterPostsCreatedTopic  = "posts_created_by_topic"
	CounterPostsUpdated       = "posts_updated_total"
	CounterContentModerated   = "content_moderated_total"
	CounterSearches           = "searches_total"
)

// Time-series metric names.
const (
	SeriesTopicsCreated = "topics_created"
	SeriesPostsCreated  = "posts_created"
)

type Counter struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Count  int64             `json:"count"`
}

type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Store holds all aggregation state behind one RWMutex. Increments
// from concurrently scaled-out partitions serialise on the lock, so no
// update is ever lost; readers get cloned values, never live maps.
type Store struct {
	mu          sync.RWMutex
	counters    map[string]*Counter
	series      map[string][]Point
	eventLog    []events.Envelope
	eventHead   int
	eventLogLen int
	totalEvents int64
}

func NewStore(eventLogSize int) *Store {
	if eventLogSize <= 0 {
		eventLogSize = 1
	}
	return &Store{
		counters: make(map[string]*Counter),
		series:   make(map[string][]Point),
		eventLog: make([]events.Envelope, eventLogSize),
	}
}

// counterKey builds the identity of a counter: its name plus labels in
// sorted order, so label insertion order never splits a counter.
func counterKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('{')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte('}')
	}
	return b.String()
}

// Inc increments a counter, creating it lazily on first use.
func (s *Store) Inc(name string, labels map[string]string) {
	key := counterKey(name, labels)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok {
		c = &Counter{Name: name, Labels: cloneLabels(labels)}
		s.counters[key] = c
		metrics.AnalyticsCounters.Set(float64(len(s.counters)))
	}
	c.Count++
}

// Counter reads one counter. Unknown counters read as zero rather than
// erroring; readers must tolerate empty state anyway.
func (s *Store) Counter(name string, labels map[string]string) Counter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.counters[counterKey(name, labels)]; ok {
		return cloneCounter(c)
	}
	return Counter{Name: name, Labels: cloneLabels(labels)}
}

// Counters lists counters whose name contains the prefix string,
// case-insensitively. An empty prefix lists everything.
func (s *Store) Counters(prefix string) []Counter {
	prefix = strings.ToLower(prefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Counter, 0, len(s.counters))
	for _, c := range s.counters {
		if prefix != "" && !strings.Contains(strings.ToLower(c.Name), prefix) {
			continue
		}
		out = append(out, cloneCounter(c))
	}
	sortCounters(out)
	return out
}

// CountersByLabel lists counters carrying the given label value, used
// for the forum- and topic-scoped rollups.
func (s *Store) CountersByLabel(label, value string) []Counter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Counter
	for _, c := range s.counters {
		if c.Labels[label] == value {
			out = append(out, cloneCounter(c))
		}
	}
	sortCounters(out)
	return out
}

// Append adds a time-series point. Points arrive in processing order,
// which is chronological per partition; the slice stays append-only.
func (s *Store) Append(metric string, ts time.Time, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[metric] = append(s.series[metric], Point{Timestamp: ts, Value: value})
}

// SeriesQuery bounds a time-series read. Zero times do not filter.
type SeriesQuery struct {
	Start time.Time
	End   time.Time
	Limit int
}

// Series returns points in chronological order. When Limit is set the
// most recent points within the window are kept, still returned
// oldest-first.
func (s *Store) Series(metric string, q SeriesQuery) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[metric]
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if !q.Start.IsZero() && p.Timestamp.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && p.Timestamp.After(q.End) {
			continue
		}
		out = append(out, p)
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

// RecordEvent appends the envelope to the bounded recent-event log,
// evicting the oldest entry once full.
func (s *Store) RecordEvent(env events.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventLog[s.eventHead] = env
	s.eventHead = (s.eventHead + 1) % len(s.eventLog)
	if s.eventLogLen < len(s.eventLog) {
		s.eventLogLen++
	}
	s.totalEvents++
}

// RecentEvents returns up to limit envelopes, most recent first.
func (s *Store) RecentEvents(limit int) []events.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > s.eventLogLen {
		limit = s.eventLogLen
	}

	out := make([]events.Envelope, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.eventHead - 1 - i + len(s.eventLog)*2) % len(s.eventLog)
		out = append(out, s.eventLog[idx])
	}
	return out
}

// Totals reports store-wide sizes for the metrics endpoint.
func (s *Store) Totals() (counters, series int, totalEvents int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counters), len(s.series), s.totalEvents
}

func cloneLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func cloneCounter(c *Counter) Counter {
	return Counter{
		Name:   c.Name,
		Labels: cloneLabels(c.Labels),
		Count:  c.Count,
	}
}

func sortCounters(cs []Counter) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Name != cs[j].Name {
			return cs[i].Name < cs[j].Name
		}
		return counterKey(cs[i].Name, cs[i].Labels) < counterKey(cs[j].Name, cs[j].Labels)
	})
}
