package analytics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumflow/internal/events"
	"forumflow/internal/logger"
)

func newAnalyticsRouter(t *testing.T, store *Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(store, logger.NopLogger()).RegisterRoutes(router)
	return router
}

func getJSON(t *testing.T, router *gin.Engine, target string) map[string]interface{} {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, target)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMetricsEndpoint(t *testing.T) {
	store := NewStore(10)
	store.Inc(CounterTopicsCreated, nil)
	store.Append(SeriesTopicsCreated, time.Now().UTC(), 1)
	store.RecordEvent(events.Envelope{ID: "e-1"})
	router := newAnalyticsRouter(t, store)

	body := getJSON(t, router, "/api/analytics/metrics")
	assert.Equal(t, float64(1), body["totalCounters"])
	assert.Equal(t, float64(1), body["totalTimeSeries"])
	assert.Equal(t, float64(1), body["totalEvents"])
}

func TestCountersEndpoint(t *testing.T) {
	store := NewStore(10)
	store.Inc(CounterTopicsCreated, nil)
	store.Inc(CounterPostsCreated, nil)
	router := newAnalyticsRouter(t, store)

	body := getJSON(t, router, "/api/analytics/counters")
	counters, ok := body["counters"].([]interface{})
	require.True(t, ok)
	assert.Len(t, counters, 2)

	body = getJSON(t, router, "/api/analytics/counters?prefix=topics")
	counters = body["counters"].([]interface{})
	require.Len(t, counters, 1)
}

func TestCounterEndpointWithLabels(t *testing.T) {
	store := NewStore(10)
	store.Inc(CounterTopicsCreatedForum, map[string]string{"forumId": "f-1"})
	store.Inc(CounterTopicsCreatedForum, map[string]string{"forumId": "f-1"})
	router := newAnalyticsRouter(t, store)

	body := getJSON(t, router, "/api/analytics/counter/"+CounterTopicsCreatedForum+"?forumId=f-1")
	assert.Equal(t, CounterTopicsCreatedForum, body["name"])
	assert.Equal(t, float64(2), body["count"])

	// Unknown counters read as zero rather than 404.
	body = getJSON(t, router, "/api/analytics/counter/never_seen")
	assert.Equal(t, float64(0), body["count"])
}

func TestTimeSeriesEndpoint(t *testing.T) {
	store := NewStore(10)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.Append(SeriesPostsCreated, base.Add(time.Duration(i)*time.Minute), 1)
	}
	router := newAnalyticsRouter(t, store)

	body := getJSON(t, router, "/api/analytics/timeseries/"+SeriesPostsCreated)
	assert.Equal(t, SeriesPostsCreated, body["name"])
	data := body["data"].([]interface{})
	assert.Len(t, data, 5)

	body = getJSON(t, router, "/api/analytics/timeseries/"+SeriesPostsCreated+"?limit=2")
	assert.Len(t, body["data"].([]interface{}), 2)

	start := base.Add(3 * time.Minute).Format(time.RFC3339)
	body = getJSON(t, router, "/api/analytics/timeseries/"+SeriesPostsCreated+"?startTime="+start)
	assert.Len(t, body["data"].([]interface{}), 2)
}

func TestEventsEndpoint(t *testing.T) {
	store := NewStore(100)
	for i := 0; i < 10; i++ {
		store.RecordEvent(events.Envelope{ID: fmt.Sprintf("e-%d", i), EventName: "topic.viewed"})
	}
	router := newAnalyticsRouter(t, store)

	body := getJSON(t, router, "/api/analytics/events?limit=3")
	assert.Equal(t, float64(3), body["count"])
	eventList := body["events"].([]interface{})
	require.Len(t, eventList, 3)
	first := eventList[0].(map[string]interface{})
	assert.Equal(t, "e-9", first["id"])
}

func TestEventsEndpointEmptyIsArray(t *testing.T) {
	router := newAnalyticsRouter(t, NewStore(10))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/events", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"events":[]`)
}

func TestDashboardEndpoint(t *testing.T) {
	store := NewStore(10)
	store.Inc(CounterUsersRegistered, nil)
	store.Inc(CounterTopicsCreated, nil)
	router := newAnalyticsRouter(t, store)

	body := getJSON(t, router, "/api/analytics/dashboard")
	overview := body["overview"].(map[string]interface{})
	assert.Equal(t, float64(1), overview["totalUsers"])
	assert.Equal(t, float64(1), overview["totalTopics"])
	assert.Contains(t, body, "activity")
	assert.Contains(t, body, "trends")
	assert.Contains(t, body, "meta")
}

func TestScopedMetricsEndpoints(t *testing.T) {
	store := NewStore(10)
	store.Inc(CounterTopicsCreatedForum, map[string]string{"forumId": "f-1"})
	store.Inc(CounterPostsCreatedForum, map[string]string{"forumId": "f-1"})
	store.Inc(CounterPostsCreatedTopic, map[string]string{"topicId": "t-1"})
	router := newAnalyticsRouter(t, store)

	body := getJSON(t, router, "/api/analytics/forum/f-1/metrics")
	assert.Equal(t, "f-1", body["forumId"])
	assert.Len(t, body["counters"].([]interface{}), 2)

	body = getJSON(t, router, "/api/analytics/topic/t-1/metrics")
	assert.Equal(t, "t-1", body["topicId"])
	assert.Len(t, body["counters"].([]interface{}), 1)
}
