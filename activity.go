package yamdb

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignUp            ActivityEventType = "auth.signup"
	ActivityEventCodeIssued        ActivityEventType = "auth.code.issued"
	ActivityEventTokenIssued       ActivityEventType = "auth.token.issued"
	ActivityEventTokenFailure      ActivityEventType = "auth.token.failure"
	ActivityEventUserStatusChanged ActivityEventType = "user.status.changed"
	ActivityEventUserRoleChanged   ActivityEventType = "user.role.changed"
	ActivityEventUserDeleted       ActivityEventType = "user.deleted"
)

// ActorRef identifies who or what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActorRefFrom builds a reference for an authenticated actor, or the system
// reference when actor is nil.
func ActorRefFrom(actor *Actor) ActorRef {
	if !actor.IsAuthenticated() {
		return ActorRef{Type: "system"}
	}
	return ActorRef{ID: actor.ID.String(), Type: "user"}
}

// ActivityEvent captures audit friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserID     string
	FromStatus UserStatus
	ToStatus   UserStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// LoggerActivitySink writes every event to a Logger.
func LoggerActivitySink(logger Logger) ActivitySink {
	if logger == nil {
		logger = defLogger{}
	}
	return ActivitySinkFunc(func(_ context.Context, event ActivityEvent) error {
		logger.Info("activity",
			"event", event.EventType,
			"actor", event.Actor.ID,
			"user", event.UserID,
			"metadata", event.Metadata,
		)
		return nil
	})
}

// recordActivity stamps and publishes an event. Sink failures are logged and
// never surface to the caller.
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, now func() time.Time, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = stampNow(now)
	}

	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil && logger != nil {
		logger.Warn("activity sink error: %v", err)
	}
}
