package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"forumflow/internal/constants"
	"forumflow/internal/events"
	"forumflow/internal/logger"
)

type Handler struct {
	store  *Store
	logger logger.Logger
}

func NewHandler(store *Store, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/analytics")
	{
		api.GET("/metrics", h.Metrics)
		api.GET("/counters", h.ListCounters)
		api.GET("/counter/:name", h.GetCounter)
		api.GET("/timeseries/:name", h.GetTimeSeries)
		api.GET("/events", h.RecentEvents)
		api.GET("/dashboard", h.Dashboard)
		api.GET("/forum/:forumId/metrics", h.ForumMetrics)
		api.GET("/topic/:topicId/metrics", h.TopicMetrics)
	}
}

func (h *Handler) Metrics(c *gin.Context) {
	counters, series, totalEvents := h.store.Totals()
	c.JSON(http.StatusOK, gin.H{
		"totalCounters":   counters,
		"totalTimeSeries": series,
		"totalEvents":     totalEvents,
	})
}

func (h *Handler) ListCounters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"counters": h.store.Counters(c.Query("prefix")),
	})
}

// GetCounter reads one counter; every query parameter is a label.
// Unknown counters read as zero.
func (h *Handler) GetCounter(c *gin.Context) {
	labels := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			labels[key] = values[0]
		}
	}

	counter := h.store.Counter(c.Param("name"), labels)
	if counter.Labels == nil {
		counter.Labels = map[string]string{}
	}
	c.JSON(http.StatusOK, counter)
}

// GetTimeSeries returns points in chronological order; limit keeps the
// most recent points within the window.
func (h *Handler) GetTimeSeries(c *gin.Context) {
	query := SeriesQuery{
		Start: parseTime(c.Query("startTime")),
		End:   parseTime(c.Query("endTime")),
		Limit: intQuery(c, "limit"),
	}

	name := c.Param("name")
	c.JSON(http.StatusOK, gin.H{
		"name": name,
		"data": h.store.Series(name, query),
	})
}

func (h *Handler) RecentEvents(c *gin.Context) {
	limit := intQuery(c, "limit")
	if limit <= 0 {
		limit = constants.DefaultEventsLimit
	}
	if limit > constants.MaxEventsLimit {
		limit = constants.MaxEventsLimit
	}

	recent := h.store.RecentEvents(limit)
	if recent == nil {
		recent = []events.Envelope{}
	}
	c.JSON(http.StatusOK, gin.H{
		"events": recent,
		"count":  len(recent),
	})
}

func (h *Handler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Dashboard())
}

func (h *Handler) ForumMetrics(c *gin.Context) {
	forumID := c.Param("forumId")
	counters := h.store.CountersByLabel("forumId", forumID)
	if counters == nil {
		counters = []Counter{}
	}
	c.JSON(http.StatusOK, gin.H{
		"forumId":  forumID,
		"counters": counters,
	})
}

func (h *Handler) TopicMetrics(c *gin.Context) {
	topicID := c.Param("topicId")
	counters := h.store.CountersByLabel("topicId", topicID)
	if counters == nil {
		counters = []Counter{}
	}
	c.JSON(http.StatusOK, gin.H{
		"topicId":  topicID,
		"counters": counters,
	})
}

// parseTime accepts RFC3339 or Unix seconds; anything else means no
// bound.
func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
