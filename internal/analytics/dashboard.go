package analytics

import (
	"time"
)

// Dashboard is the fixed-shape rollup served by the dashboard
// endpoint.
type Dashboard struct {
	Overview Overview           `json:"overview"`
	Activity Activity           `json:"activity"`
	Trends   map[string][]Point `json:"trends"`
	Meta     Meta               `json:"meta"`
}

type Overview struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalLogins   int64 `json:"totalLogins"`
	TotalTopics   int64 `json:"totalTopics"`
	TotalPosts    int64 `json:"totalPosts"`
	TotalSearches int64 `json:"totalSearches"`
}

type Activity struct {
	TopicViews       int64 `json:"topicViews"`
	TopicsUpdated    int64 `json:"topicsUpdated"`
	PostsUpdated     int64 `json:"postsUpdated"`
	ContentModerated int64 `json:"contentModerated"`
}

type Meta struct {
	TotalCounters int       `json:"totalCounters"`
	TotalEvents   int64     `json:"totalEvents"`
	Timestamp     time.Time `json:"timestamp"`
}

const dashboardTrendPoints = 50

func (s *Store) Dashboard() Dashboard {
	return Dashboard{
		Overview: Overview{
			TotalUsers:    s.Counter(CounterUsersRegistered, nil).Count,
			TotalLogins:   s.Counter(CounterUsersLogin, nil).Count,
			TotalTopics:   s.Counter(CounterTopicsCreated, nil).Count,
			TotalPosts:    s.Counter(CounterPostsCreated, nil).Count,
			TotalSearches: s.Counter(CounterSearches, nil).Count,
		},
		Activity: Activity{
			TopicViews:       s.Counter(CounterTopicsViewed, nil).Count,
			TopicsUpdated:    s.Counter(CounterTopicsUpdated, nil).Count,
			PostsUpdated:     s.Counter(CounterPostsUpdated, nil).Count,
			ContentModerated: s.Counter(CounterContentModerated, nil).Count,
		},
		Trends: map[string][]Point{
			SeriesTopicsCreated: s.Series(SeriesTopicsCreated, SeriesQuery{Limit: dashboardTrendPoints}),
			SeriesPostsCreated:  s.Series(SeriesPostsCreated, SeriesQuery{Limit: dashboardTrendPoints}),
		},
		Meta: s.meta(),
	}
}

func (s *Store) meta() Meta {
	counters, _, totalEvents := s.Totals()
	return Meta{
		TotalCounters: counters,
		TotalEvents:   totalEvents,
		Timestamp:     time.Now().UTC(),
	}
}
