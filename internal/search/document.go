// Package search maintains the full-text read model derived from
// content-lifecycle events and serves the search query surface.
package search

import (
	"fmt"
	"time"

	"forumflow/internal/constants"
	"forumflow/internal/events"
)

// Document is one indexed piece of forum content. Documents are owned
// exclusively by the search consumer; nothing else writes the index.
type Document struct {
	ContentType string    `json:"contentType"`
	ContentID   string    `json:"contentId"`
	ForumID     string    `json:"forumId,omitempty"`
	AuthorID    string    `json:"authorId,omitempty"`
	Title       string    `json:"title,omitempty"`
	Body        string    `json:"body,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DocumentID is the deterministic index key for a piece of content.
func DocumentID(contentType, contentID string) string {
	return fmt.Sprintf("%s:%s", contentType, contentID)
}

func ValidContentType(contentType string) bool {
	switch contentType {
	case constants.ContentTypeTopic, constants.ContentTypePost, constants.ContentTypeUser:
		return true
	}
	return false
}

func documentFromPayload(p events.ContentPayload, now time.Time) Document {
	doc := Document{
		ContentType: p.ContentType,
		ContentID:   p.ContentID,
		ForumID:     p.ForumID,
		AuthorID:    p.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Body != nil {
		doc.Body = *p.Body
	}
	if p.Tags != nil {
		doc.Tags = append([]string(nil), p.Tags...)
	}
	return doc
}
