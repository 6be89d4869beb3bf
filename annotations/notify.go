package annotations

import (
	"context"

	"github.com/tailored-agentic-units/annotations/observability"
)

// Notification is a user-facing message raised by an operation that failed
// without affecting editing state.
type Notification struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	Level       string `json:"level"`
	AutoDismiss int    `json:"autoDismiss,omitempty"`
	Position    string `json:"position,omitempty"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// observerNotifier reports notifications as events.
type observerNotifier struct {
	observer observability.Observer
}

func (o observerNotifier) Notify(ctx context.Context, n Notification) {
	observability.Emit(ctx, o.observer, EventNotification, observability.LevelError, "annotations.Notifier", map[string]any{
		"title":   n.Title,
		"message": n.Message,
		"level":   n.Level,
	})
}
