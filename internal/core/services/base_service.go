package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SscSPs/digital_bank_ledger/internal/core/domain"
	"github.com/SscSPs/digital_bank_ledger/internal/core/guard"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
	"github.com/SscSPs/digital_bank_ledger/internal/platform/clock"
	"github.com/SscSPs/digital_bank_ledger/internal/platform/metrics"
	"github.com/google/uuid"
)

// BaseService provides common functionality for all services
type BaseService struct {
	clock        clock.Clock
	metrics      *metrics.Metrics
	publisher    portssvc.EventPublisher
	accountLocks *guard.KeyedLocker
}

// Option is a functional option shared by every service constructor.
type Option func(*BaseService)

// WithClock overrides the wall clock.
func WithClock(c clock.Clock) Option {
	return func(s *BaseService) {
		s.clock = c
	}
}

// WithMetrics records service outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BaseService) {
		s.metrics = m
	}
}

// WithPublisher sends domain events to p.
func WithPublisher(p portssvc.EventPublisher) Option {
	return func(s *BaseService) {
		s.publisher = p
	}
}

// WithAccountLocker shares one account lock table between services that move the same balances.
func WithAccountLocker(l *guard.KeyedLocker) Option {
	return func(s *BaseService) {
		s.accountLocks = l
	}
}

func newBaseService(options ...Option) BaseService {
	base := BaseService{}
	for _, option := range options {
		option(&base)
	}
	if base.clock == nil {
		base.clock = clock.RealClock{}
	}
	if base.accountLocks == nil {
		base.accountLocks = guard.NewKeyedLocker()
	}
	return base
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// publish hands an event to the publisher. Delivery failures are logged, never returned.
func (s *BaseService) publish(ctx context.Context, eventType, key string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	event := domain.Event{Type: eventType, Key: key, OccurredAt: s.clock.Now(), Payload: payload}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to publish event", slog.String("event_type", eventType), slog.String("key", key))
	}
}

var groupNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://ledger.digital-bank/groups"))

// deterministicID derives a stable UUIDv5 so that retried operations reuse the same id.
func deterministicID(parts ...string) string {
	return uuid.NewSHA1(groupNamespace, []byte(strings.Join(parts, ":"))).String()
}
