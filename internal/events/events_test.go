package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNames(t *testing.T) {
	tests := []struct {
		kind Kind
		name string
	}{
		{KindContentCreated, "content.created"},
		{KindContentUpdated, "content.updated"},
		{KindContentDeleted, "content.deleted"},
		{KindContentModerated, "content.moderated"},
		{KindUserRegistered, "user.registered"},
		{KindUserLogin, "user.login"},
		{KindTopicCreated, "topic.created"},
		{KindTopicViewed, "topic.viewed"},
		{KindPostCreated, "post.created"},
		{KindSearchPerformed, "search.performed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.Name())

			kind, ok := KindOf(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestKindOfUnknownName(t *testing.T) {
	_, ok := KindOf("order.shipped")
	assert.False(t, ok)

	_, ok = KindOf("")
	assert.False(t, ok)
}

func TestWrapEnvelope(t *testing.T) {
	title := "Hello"
	ev := ContentCreated{ContentPayload: ContentPayload{
		ContentType: "topic",
		ContentID:   "t-1",
		ForumID:     "f-1",
		Title:       &title,
	}}

	env, err := Wrap(ev)
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "content.created", env.EventName)
	assert.False(t, env.EmittedAt.IsZero())

	payload, err := DecodeContent(env)
	require.NoError(t, err)
	assert.Equal(t, "t-1", payload.ContentID)
	require.NotNil(t, payload.Title)
	assert.Equal(t, "Hello", *payload.Title)
}

func TestWrapUniqueIDs(t *testing.T) {
	ev := TopicViewed{TopicViewPayload: TopicViewPayload{TopicID: "t-1"}}

	first, err := Wrap(ev)
	require.NoError(t, err)
	second, err := Wrap(ev)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestDecodeRoundTrip(t *testing.T) {
	env, err := Wrap(UserRegistered{UserPayload: UserPayload{
		UserID:   "u-1",
		Username: "alice",
	}})
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, env.EventName, decoded.EventName)

	payload, err := DecodeUser(decoded)
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.Username)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

// An update payload must keep "field absent" distinct from "field set
// to empty": absent fields decode as nil, empty ones as zero values.
func TestContentPayloadAbsentVsEmpty(t *testing.T) {
	absent, err := DecodeContent(Envelope{
		EventName: "content.updated",
		Payload:   json.RawMessage(`{"contentType":"post","contentId":"p-1"}`),
	})
	require.NoError(t, err)
	assert.Nil(t, absent.Title)
	assert.Nil(t, absent.Body)
	assert.Nil(t, absent.Tags)

	empty, err := DecodeContent(Envelope{
		EventName: "content.updated",
		Payload:   json.RawMessage(`{"contentType":"post","contentId":"p-1","title":"","tags":[]}`),
	})
	require.NoError(t, err)
	require.NotNil(t, empty.Title)
	assert.Equal(t, "", *empty.Title)
	require.NotNil(t, empty.Tags)
	assert.Len(t, empty.Tags, 0)
}

func TestPartitionKeys(t *testing.T) {
	assert.Equal(t, "c-1", ContentCreated{ContentPayload{ContentID: "c-1"}}.PartitionKey())
	assert.Equal(t, "u-1", UserLogin{UserPayload{UserID: "u-1"}}.PartitionKey())
	assert.Equal(t, "t-1", TopicCreated{TopicPayload{TopicID: "t-1"}}.PartitionKey())
	assert.Equal(t, "p-1", PostCreated{PostPayload{PostID: "p-1"}}.PartitionKey())

	withUser := SearchPerformed{SearchPayload{Query: "go", UserID: "u-2"}}
	assert.Equal(t, "u-2", withUser.PartitionKey())
	anonymous := SearchPerformed{SearchPayload{Query: "go"}}
	assert.Equal(t, "go", anonymous.PartitionKey())
}
