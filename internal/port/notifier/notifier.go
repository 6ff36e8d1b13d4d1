// Package notifier defines the outcome-notification port. Notifications
// carry human-readable outcome messages only, never business logic; the
// consuming presentation layer renders them as toasts.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Level    string `json:"level"`  // "info", "success", "warning", "error"
	Source   string `json:"source"` // e.g. "lead.converted", "project.duplicated"
	TenantID string `json:"tenant_id,omitempty"`
}

// Notifier is the port interface for delivering notifications.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "nats").
	Name() string

	// Send delivers a notification.
	Send(ctx context.Context, notification Notification) error
}
