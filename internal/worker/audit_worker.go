package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-auth/internal/events"
)

// StartAuditWorker subscribes an audit logger to the issuance events so
// every registration and login outcome leaves a structured trail.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	audit := logger.Named("audit")

	record := func(_ context.Context, event events.Event) error {
		audit.Info(string(event.Type),
			zap.String("event_id", event.ID),
			zap.String("subject", event.Subject),
			zap.String("role", string(event.Role)),
			zap.Time("at", event.Timestamp),
			zap.String("reason", event.Reason),
		)
		return nil
	}

	dispatcher.Subscribe(events.EventUserRegistered, record)
	dispatcher.Subscribe(events.EventLoginSucceeded, record)
	dispatcher.Subscribe(events.EventLoginDenied, record)
}
