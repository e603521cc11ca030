package events

// Kind enumerates every event name the pipeline dispatches on. The set
// is closed: the dispatcher switches exhaustively over it, and names
// outside the set are skipped by consumers rather than guessed at.
type Kind int

const (
	KindUnknown Kind = iota
	KindContentCreated
	KindContentUpdated
	KindContentDeleted
	KindContentModerated
	KindUserRegistered
	KindUserLogin
	KindTopicCreated
	KindTopicViewed
	KindPostCreated
	KindSearchPerformed
)

var kindNames = map[Kind]string{
	KindContentCreated:   "content.created",
	KindContentUpdated:   "content.updated",
	KindContentDeleted:   "content.deleted",
	KindContentModerated: "content.moderated",
	KindUserRegistered:   "user.registered",
	KindUserLogin:        "user.login",
	KindTopicCreated:     "topic.created",
	KindTopicViewed:      "topic.viewed",
	KindPostCreated:      "post.created",
	KindSearchPerformed:  "search.performed",
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// Name returns the dotted <entity>.<verb> wire name.
func (k Kind) Name() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindOf maps a wire event name to its Kind. The second return is
// false for names outside the closed set.
func KindOf(name string) (Kind, bool) {
	k, ok := namesToKind[name]
	return k, ok
}
