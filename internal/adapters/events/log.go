// Package events delivers domain events to collaborators outside the engine.
package events

import (
	"context"
	"log/slog"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
)

// secretPayloadKeys are never written to logs.
var secretPayloadKeys = map[string]struct{}{
	"code": {},
	"pin":  {},
}

// LogPublisher writes events to the request logger. It is the default when no broker is configured.
type LogPublisher struct{}

var _ portssvc.EventPublisher = LogPublisher{}

func (LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	middleware.GetLoggerFromCtx(ctx).Info("Domain event",
		slog.String("event_type", event.Type),
		slog.String("key", event.Key),
		slog.Time("occurred_at", event.OccurredAt),
		slog.Any("payload", Redact(event.Payload)),
	)
	return nil
}

// Redact returns a copy of payload with secret values masked.
func Redact(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if _, secret := secretPayloadKeys[k]; secret {
			out[k] = "******"
			continue
		}
		out[k] = v
	}
	return out
}

// FanOut publishes to every publisher and returns the first error.
type FanOut []portssvc.EventPublisher

func (f FanOut) Publish(ctx context.Context, event domain.Event) error {
	var firstErr error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
