package session

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported tracking categories.
type ActivityEventType string

const (
	ActivityEventSignInSuccess        ActivityEventType = "session.signin.success"
	ActivityEventSignInFailure        ActivityEventType = "session.signin.failure"
	ActivityEventSignUpSuccess        ActivityEventType = "session.signup.success"
	ActivityEventSignUpFailure        ActivityEventType = "session.signup.failure"
	ActivityEventSignOut              ActivityEventType = "session.signout"
	ActivityEventSignOutFailure       ActivityEventType = "session.signout.failure"
	ActivityEventPasswordResetSent    ActivityEventType = "session.password.reset"
	ActivityEventPasswordResetFailure ActivityEventType = "session.password.reset.failure"
	ActivityEventPhaseChanged         ActivityEventType = "session.phase.changed"
)

// ActivityEvent captures tracking-friendly information about an action.
// Action/TrackingLabel/ComponentName mirror what presentational components
// report on user interactions; the container fills the rest.
type ActivityEvent struct {
	EventType     ActivityEventType
	Action        string
	TrackingLabel string
	ComponentName string
	UserID        string
	FromPhase     Phase
	ToPhase       Phase
	Metadata      map[string]any
	OccurredAt    time.Time
}

// ActivitySink consumes activity events for tracking/telemetry purposes.
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

// NormalizeActivitySink substitutes a no-op sink for nil.
func NormalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
