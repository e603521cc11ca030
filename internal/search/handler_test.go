package search

import (
	"encoding/json"
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

type stubBroker struct{ connected bool }

func (s stubBroker) Connected() bool { return s.connected }

func newTestRouter(t *testing.T, svc *Service, broker BrokerStatus) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc, broker, logger.NopLogger()).RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSearchEndpointRequiresQuery(t *testing.T) {
	router := newTestRouter(t, newTestService(t), stubBroker{connected: true})

	for _, target := range []string{"/api/search", "/api/search?q=", "/api/search?q=%20%20"} {
		w := doRequest(router, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		body := decodeBody(t, w)
		assert.Equal(t, `Query parameter "q" is required`, body["error"])
	}
}

func TestSearchEndpointInvalidContentType(t *testing.T) {
	router := newTestRouter(t, newTestService(t), stubBroker{connected: true})

	w := doRequest(router, http.MethodGet, "/api/search?q=kafka&type=comment")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Invalid content type", body["error"])
}

func TestSearchEndpointReturnsPage(t *testing.T) {
	svc := newTestService(t)
	svc.index.Upsert(topicPayload("t-1", "Kafka pipelines", "broker things"), time.Now().UTC())
	router := newTestRouter(t, svc, stubBroker{connected: true})

	w := doRequest(router, http.MethodGet, "/api/search?q=kafka")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "kafka", body["query"])
	assert.Equal(t, float64(1), body["total"])
	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, results, 1)
}

func TestScopedSearchEndpointsForceType(t *testing.T) {
	svc := newTestService(t)
	now := time.Now().UTC()
	svc.index.Upsert(topicPayload("t-1", "shared term", "body"), now)
	svc.index.Upsert(events.ContentPayload{
		ContentType: "post",
		ContentID:   "p-1",
		Title:       strptr("shared term"),
	}, now)
	router := newTestRouter(t, svc, stubBroker{connected: true})

	w := doRequest(router, http.MethodGet, "/api/search/topics?q=shared")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])

	w = doRequest(router, http.MethodGet, "/api/search/posts?q=shared")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])
}

func TestSuggestionsEndpoint(t *testing.T) {
	svc := newTestService(t)
	svc.index.Upsert(topicPayload("t-1", "Kafka pipelines", "body"), time.Now().UTC())
	router := newTestRouter(t, svc, stubBroker{connected: true})

	w := doRequest(router, http.MethodGet, "/api/search/suggestions?q=kaf")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	suggestions, ok := body["suggestions"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"Kafka pipelines"}, suggestions)

	// No matches is an empty array, never null.
	w = doRequest(router, http.MethodGet, "/api/search/suggestions?q=zzz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"suggestions":[]`)
}

func TestGetContentEndpoint(t *testing.T) {
	svc := newTestService(t)
	svc.index.Upsert(topicPayload("t-1", "Kafka pipelines", "body"), time.Now().UTC())
	router := newTestRouter(t, svc, stubBroker{connected: true})

	w := doRequest(router, http.MethodGet, "/api/search/content/topic/t-1")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["found"])
	content, ok := body["content"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Kafka pipelines", content["title"])

	w = doRequest(router, http.MethodGet, "/api/search/content/topic/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Content not found", decodeBody(t, w)["error"])

	w = doRequest(router, http.MethodGet, "/api/search/content/comment/t-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid content type", decodeBody(t, w)["error"])
}

func TestHealthEndpoint(t *testing.T) {
	svc := newTestService(t)

	t.Run("healthy when index and broker are up", func(t *testing.T) {
		router := newTestRouter(t, svc, stubBroker{connected: true})
		w := doRequest(router, http.MethodGet, "/api/search/health")
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "connected", body["elasticsearch"])
		assert.Equal(t, "connected", body["kafka"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("degraded when broker is down", func(t *testing.T) {
		router := newTestRouter(t, svc, stubBroker{connected: false})
		w := doRequest(router, http.MethodGet, "/api/search/health")
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "connected", body["elasticsearch"])
		assert.Equal(t, "disconnected", body["kafka"])
	})
}
