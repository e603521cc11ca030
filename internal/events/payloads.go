package events

// Event is one member of the closed set of domain events. PartitionKey
// returns the entity's natural id so the broker routes all events for
// one entity to the same partition, preserving their relative order.
type Event interface {
	Kind() Kind
	PartitionKey() string
}

// ContentPayload is carried by every content-lifecycle event. It is
// denormalised far enough that the search indexer can build a document
// without calling back into the primary store.
//
// Title, Body and Tags are pointers/nilable so a partial update can
// tell "absent" apart from "set to empty".
type ContentPayload struct {
	ContentType string                 `json:"contentType"`
	ContentID   string                 `json:"contentId"`
	ForumID     string                 `json:"forumId,omitempty"`
	AuthorID    string                 `json:"authorId,omitempty"`
	Title       *string                `json:"title,omitempty"`
	Body        *string                `json:"body,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func (p ContentPayload) PartitionKey() string { return p.ContentID }

type UserPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (p UserPayload) PartitionKey() string { return p.UserID }

type TopicPayload struct {
	TopicID  string `json:"topicId"`
	ForumID  string `json:"forumId,omitempty"`
	AuthorID string `json:"authorId,omitempty"`
	Title    string `json:"title,omitempty"`
}

func (p TopicPayload) PartitionKey() string { return p.TopicID }

type TopicViewPayload struct {
	TopicID   string `json:"topicId"`
	ViewerID  string `json:"viewerId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

func (p TopicViewPayload) PartitionKey() string { return p.TopicID }

type PostPayload struct {
	PostID   string `json:"contentId"`
	TopicID  string `json:"topicId,omitempty"`
	ForumID  string `json:"forumId,omitempty"`
	AuthorID string `json:"authorId,omitempty"`
}

func (p PostPayload) PartitionKey() string { return p.PostID }

type SearchPayload struct {
	Query        string `json:"query"`
	ResultsCount int    `json:"resultsCount"`
	SearchType   string `json:"searchType,omitempty"`
	UserID       string `json:"userId,omitempty"`
}

// Search events have no entity to order against; keying by the
// searching user keeps one user's history in sequence.
func (p SearchPayload) PartitionKey() string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.Query
}

type ContentCreated struct{ ContentPayload }

func (ContentCreated) Kind() Kind { return KindContentCreated }

type ContentUpdated struct{ ContentPayload }

func (ContentUpdated) Kind() Kind { return KindContentUpdated }

type ContentDeleted struct{ ContentPayload }

func (ContentDeleted) Kind() Kind { return KindContentDeleted }

type ContentModerated struct{ ContentPayload }

func (ContentModerated) Kind() Kind { return KindContentModerated }

type UserRegistered struct{ UserPayload }

func (UserRegistered) Kind() Kind { return KindUserRegistered }

type UserLogin struct{ UserPayload }

func (UserLogin) Kind() Kind { return KindUserLogin }

type TopicCreated struct{ TopicPayload }

func (TopicCreated) Kind() Kind { return KindTopicCreated }

type TopicViewed struct{ TopicViewPayload }

func (TopicViewed) Kind() Kind { return KindTopicViewed }

type PostCreated struct{ PostPayload }

func (PostCreated) Kind() Kind { return KindPostCreated }

type SearchPerformed struct{ SearchPayload }

func (SearchPerformed) Kind() Kind { return KindSearchPerformed }
