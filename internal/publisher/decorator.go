package publisher

import (
	"context"

	"forumflow/internal/events"
)

// AfterCommit wraps a service-layer mutation so that its event is
// published only once the mutation has succeeded. The publish cannot
// fail the mutation: the wrapped function's error is the mutation's
// own, and publishing is fire and forget.
//
// This is the explicit seam replacing resolver hooking: mutation
// handlers return a typed result and eventFor derives the event from
// it, so there is no name-based dispatch anywhere.
func AfterCommit[T any](p *Publisher, mutation func(context.Context) (T, error), eventFor func(T) events.Event) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		result, err := mutation(ctx)
		if err != nil {
			return result, err
		}
		p.Publish(ctx, eventFor(result))
		return result, nil
	}
}
