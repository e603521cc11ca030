package search

import (
	"context"
	"strings"
	"time"

	"forumflow/internal/constants"
	"forumflow/internal/events"
	"forumflow/internal/logger"
	"forumflow/internal/runtime"
	"forumflow/pkg/errors"
	"forumflow/pkg/metrics"
)

var (
	errQueryRequired      = errors.ErrValidation.WithMessage(`Query parameter "q" is required`)
	errInvalidContentType = errors.ErrValidation.WithMessage("Invalid content type")
	errContentNotFound    = errors.ErrNotFound.WithMessage("Content not found")
)

// Response is the page returned by Search.
type Response struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// Service validates caller input, applies limit clamps, and fronts the
// index (optionally through the Redis result cache). It also exposes
// the consumer handlers that keep the index up to date.
type Service struct {
	index  *Index
	cache  *Cache
	logger logger.Logger
}

func NewService(index *Index, cache *Cache, log logger.Logger) *Service {
	return &Service{
		index:  index,
		cache:  cache,
		logger: log,
	}
}

func (s *Service) Search(ctx context.Context, query string, filters Filters, limit, offset int) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		metrics.SearchQueriesTotal.WithLabelValues("rejected").Inc()
		return Response{}, errQueryRequired
	}
	if filters.ContentType != "" && !ValidContentType(filters.ContentType) {
		metrics.SearchQueriesTotal.WithLabelValues("rejected").Inc()
		return Response{}, errInvalidContentType
	}

	limit = clamp(limit, constants.DefaultSearchLimit, constants.MaxSearchLimit)
	if offset < 0 {
		offset = 0
	}

	if resp, ok := s.cache.Get(ctx, query, filters, limit, offset); ok {
		metrics.SearchQueriesTotal.WithLabelValues("ok").Inc()
		return resp, nil
	}

	results, total := s.index.Search(query, filters, limit, offset)
	resp := Response{
		Query:   query,
		Results: results,
		Total:   total,
	}
	s.cache.Set(ctx, query, filters, limit, offset, resp)

	metrics.SearchQueriesTotal.WithLabelValues("ok").Inc()
	return resp, nil
}

func (s *Service) Suggest(ctx context.Context, prefix, contentType string, limit int) ([]string, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, errQueryRequired
	}
	if contentType != "" && !ValidContentType(contentType) {
		return nil, errInvalidContentType
	}

	limit = clamp(limit, constants.DefaultSuggestLimit, constants.MaxSuggestLimit)
	return s.index.Suggest(prefix, contentType, limit), nil
}

func (s *Service) GetByID(ctx context.Context, contentType, contentID string) (Document, error) {
	if !ValidContentType(contentType) {
		return Document{}, errInvalidContentType
	}

	doc, found := s.index.Get(contentType, contentID)
	if !found {
		return Document{}, errContentNotFound
	}
	return doc, nil
}

// Healthy is false only when the index reports red.
func (s *Service) Healthy() bool {
	return s.index.Health() != HealthRed
}

func (s *Service) IndexHealth() IndexHealth {
	return s.index.Health()
}

func (s *Service) DocCount() int {
	return s.index.DocCount()
}

// Handlers wires the index-maintenance side of the service into the
// consumer runtime.
func (s *Service) Handlers() runtime.HandlerSet {
	return runtime.HandlerSet{
		ContentCreated: func(ctx context.Context, p events.ContentPayload) error {
			s.index.Upsert(p, time.Now().UTC())
			s.afterWrite(ctx, "indexed", p)
			return nil
		},
		ContentUpdated: func(ctx context.Context, p events.ContentPayload) error {
			s.index.Merge(p, time.Now().UTC())
			s.afterWrite(ctx, "merged", p)
			return nil
		},
		ContentDeleted: func(ctx context.Context, p events.ContentPayload) error {
			s.index.Delete(p.ContentType, p.ContentID)
			s.afterWrite(ctx, "removed", p)
			return nil
		},
	}
}

func (s *Service) afterWrite(ctx context.Context, action string, p events.ContentPayload) {
	s.cache.Bump()
	metrics.IndexedDocuments.Set(float64(s.index.DocCount()))
	s.logger.DebugwCtx(ctx, "Document "+action,
		"content_type", p.ContentType,
		"content_id", p.ContentID,
	)
}

func clamp(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
