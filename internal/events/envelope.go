// Package events defines the wire format for forum domain events and
// the closed set of event kinds the pipeline understands.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the JSON wire message carrying one domain event. It is
// immutable once published; consumers must not mutate a decoded
// envelope before re-logging it.
type Envelope struct {
	ID        string          `json:"id"`
	EventName string          `json:"eventName"`
	EmittedAt time.Time       `json:"emittedAt"`
	Payload   json.RawMessage `json:"payload"`
}

// Wrap builds an Envelope for the given event. The payload is the
// event's own fields, serialised as a JSON object.
func Wrap(ev Event) (Envelope, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", ev.Kind().Name(), err)
	}
	return Envelope{
		ID:        uuid.NewString(),
		EventName: ev.Kind().Name(),
		EmittedAt: time.Now().UTC(),
		Payload:   body,
	}, nil
}

// Decode unmarshals an envelope from its wire form.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return env, nil
}

func decodePayload[T any](env Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal %s payload: %w", env.EventName, err)
	}
	return payload, nil
}

func DecodeContent(env Envelope) (ContentPayload, error) {
	return decodePayload[ContentPayload](env)
}

func DecodeUser(env Envelope) (UserPayload, error) {
	return decodePayload[UserPayload](env)
}

func DecodeTopic(env Envelope) (TopicPayload, error) {
	return decodePayload[TopicPayload](env)
}

func DecodeTopicView(env Envelope) (TopicViewPayload, error) {
	return decodePayload[TopicViewPayload](env)
}

func DecodePost(env Envelope) (PostPayload, error) {
	return decodePayload[PostPayload](env)
}

func DecodeSearch(env Envelope) (SearchPayload, error) {
	return decodePayload[SearchPayload](env)
}
