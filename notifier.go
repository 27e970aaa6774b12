package auth

import (
	"context"
	"time"
)

// EventType enumerates the notification events emitted by the flow.
type EventType string

const (
	EventAfterSignup      EventType = "users.after_signup"
	EventSendVerification EventType = "users.send_verification"
	EventSendRecovery     EventType = "users.send_recovery"
)

// Event carries the user a notification concerns. Consumed out-of-process by
// a mailer; delivery is never this package's concern.
type Event struct {
	Type       EventType
	User       *User
	Metadata   map[string]any
	OccurredAt time.Time
}

// Notifier consumes notification events. Implementations run best-effort;
// errors are logged by the flow and never surfaced to callers.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Event) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
