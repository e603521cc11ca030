package search

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"forumflow/internal/constants"
	"forumflow/internal/logger"
	"forumflow/pkg/errors"
)

// BrokerStatus is what the handler needs to know about the consumer's
// broker connection for the health endpoint.
type BrokerStatus interface {
	Connected() bool
}

type Handler struct {
	service *Service
	broker  BrokerStatus
	logger  logger.Logger
}

func NewHandler(service *Service, broker BrokerStatus, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		broker:  broker,
		logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/search")
	{
		api.GET("", h.Search)
		api.GET("/suggestions", h.Suggest)
		api.GET("/content/:type/:id", h.GetContent)
		api.GET("/topics", h.SearchTopics)
		api.GET("/posts", h.SearchPosts)
		api.GET("/health", h.Health)
	}
}

// Search godoc
// @Summary  Full-text search over indexed forum content
// @Produce  json
// @Param    q        query  string  true   "Search query"
// @Param    type     query  string  false  "Content type filter (topic|post|user)"
// @Param    forumId  query  string  false  "Forum filter"
// @Param    authorId query  string  false  "Author filter"
// @Param    limit    query  int     false  "Page size, capped at 100"
// @Param    offset   query  int     false  "Page offset"
// @Router   /api/search [get]
func (h *Handler) Search(c *gin.Context) {
	h.search(c, Filters{
		ContentType: c.Query("type"),
		ForumID:     c.Query("forumId"),
		AuthorID:    c.Query("authorId"),
	})
}

func (h *Handler) SearchTopics(c *gin.Context) {
	h.search(c, Filters{
		ContentType: constants.ContentTypeTopic,
		ForumID:     c.Query("forumId"),
		AuthorID:    c.Query("authorId"),
	})
}

func (h *Handler) SearchPosts(c *gin.Context) {
	h.search(c, Filters{
		ContentType: constants.ContentTypePost,
		ForumID:     c.Query("forumId"),
		AuthorID:    c.Query("authorId"),
	})
}

func (h *Handler) search(c *gin.Context, filters Filters) {
	limit := intQuery(c, "limit")
	offset := intQuery(c, "offset")

	resp, err := h.service.Search(c.Request.Context(), c.Query("q"), filters, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Suggest(c *gin.Context) {
	limit := intQuery(c, "limit")

	suggestions, err := h.service.Suggest(c.Request.Context(), c.Query("q"), c.Query("type"), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (h *Handler) GetContent(c *gin.Context) {
	doc, err := h.service.GetByID(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"found":   true,
		"content": doc,
	})
}

// Health reports the pipeline view from this service: healthy iff the
// index and the broker are both reachable, degraded when only the
// index is, unhealthy otherwise.
func (h *Handler) Health(c *gin.Context) {
	indexConnected := h.service.Healthy()
	brokerConnected := h.broker != nil && h.broker.Connected()

	status := "unhealthy"
	switch {
	case indexConnected && brokerConnected:
		status = "healthy"
	case indexConnected:
		status = "degraded"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":        status,
		"elasticsearch": connectedWord(indexConnected),
		"kafka":         connectedWord(brokerConnected),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	status := errors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorwCtx(c.Request.Context(), "Request error",
			"error", err,
			"path", c.Request.URL.Path,
		)
	}
	c.JSON(status, errors.ToErrorResponse(err))
}

func connectedWord(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
