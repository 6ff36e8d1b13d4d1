package service

import (
	"context"
	"log/slog"

	"github.com/atelierhq/atelier/internal/middleware"
	"github.com/atelierhq/atelier/internal/port/notifier"
	"github.com/atelierhq/atelier/internal/resilience"
)

// NotificationService dispatches outcome notifications to all registered
// notifiers. Delivery is best effort: a notifier failure is logged, never
// surfaced to the caller, and never blocks the operation that produced it.
type NotificationService struct {
	notifiers []notifier.Notifier
	breaker   *resilience.Breaker
}

// NewNotificationService creates a NotificationService. The breaker shields
// the service from a wedged broker; it may be nil.
func NewNotificationService(notifiers []notifier.Notifier, breaker *resilience.Breaker) *NotificationService {
	return &NotificationService{notifiers: notifiers, breaker: breaker}
}

// Notify sends a notification to all registered notifiers, stamping the
// tenant from the request context when the payload has none.
func (s *NotificationService) Notify(ctx context.Context, n notifier.Notification) {
	if n.TenantID == "" {
		n.TenantID = middleware.TenantIDFromContext(ctx)
	}

	for _, provider := range s.notifiers {
		send := func() error { return provider.Send(ctx, n) }
		var err error
		if s.breaker != nil {
			err = s.breaker.Execute(send)
		} else {
			err = send()
		}
		if err != nil {
			slog.Warn("notification send failed",
				"provider", provider.Name(),
				"source", n.Source,
				"error", err,
			)
			continue
		}
		slog.Debug("notification sent", "provider", provider.Name(), "source", n.Source)
	}
}
