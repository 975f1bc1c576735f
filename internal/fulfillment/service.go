package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/events"
	"github.com/shoplane/shoplane/internal/orders"
	"github.com/shoplane/shoplane/internal/redisx"
)

// Service consumes payment and refund events and moves the order: a captured
// payment marks it paid, a failed payment cancels it (releasing its
// reservations), a refund marks it refunded.
type Service struct {
	orders *orders.Service
	rdb    *redis.Client
	group  string
	log    *zap.Logger
}

func NewService(ord *orders.Service, rdb *redis.Client, group string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{orders: ord, rdb: rdb, group: group, log: log}
}

// orderRef is the slice of every payment/refund payload this worker needs.
type orderRef struct {
	TenantID string `json:"tenant_id"`
	OrderID  string `json:"order_id"`
}

// Handle is the consumer handler for payment.captured, payment.failed and
// refund.created. A non-nil return skips the commit so the message is
// redelivered; business rejections are logged and committed.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	env, err := events.DecodeEnvelope(m.Value)
	if err != nil {
		// malformed messages never heal, drop them
		s.log.Warn("bad envelope", zap.String("topic", m.Topic), zap.Error(err))
		return nil
	}

	var to orders.Status
	switch env.EventType {
	case events.EventPaymentCaptured:
		to = orders.StatusPaid
	case events.EventPaymentFailed:
		to = orders.StatusCancelled
	case events.EventRefundCreated:
		to = orders.StatusRefunded
	default:
		return nil
	}

	seen, err := s.seen(ctx, env.EventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	ref, err := events.UnwrapPayload[orderRef](env.Payload)
	if err != nil || ref.TenantID == "" || ref.OrderID == "" {
		s.log.Warn("bad payload",
			zap.String("event_id", env.EventID),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		return nil
	}

	if err := s.move(ctx, ref, to, env.EventType); err != nil {
		// release the dedup mark so the redelivery is not skipped
		s.forget(ctx, env.EventID)
		return err
	}
	return nil
}

func (s *Service) move(ctx context.Context, ref orderRef, to orders.Status, eventType string) error {
	_, err := s.orders.UpdateStatus(ctx, ref.TenantID, ref.OrderID, orders.UpdateStatusInput{Status: to})
	if err == nil {
		s.log.Info("order moved",
			zap.String("tenant_id", ref.TenantID),
			zap.String("order_id", ref.OrderID),
			zap.String("event_type", eventType),
			zap.String("to", string(to)))
		return nil
	}
	if errors.Is(err, orders.ErrNotFound) {
		s.log.Warn("order not found",
			zap.String("tenant_id", ref.TenantID),
			zap.String("order_id", ref.OrderID),
			zap.String("event_type", eventType))
		return nil
	}
	var te *orders.TransitionError
	if errors.As(err, &te) {
		// duplicate delivery or an operator moved the order first
		s.log.Warn("transition rejected",
			zap.String("tenant_id", ref.TenantID),
			zap.String("order_id", ref.OrderID),
			zap.String("from", string(te.From)),
			zap.String("to", string(te.To)))
		return nil
	}
	var se *orders.StockShortfallError
	if errors.As(err, &se) {
		// reserved stock vanished between checkout and capture; retrying
		// cannot restore it
		s.log.Error("stock shortfall on capture",
			zap.String("tenant_id", ref.TenantID),
			zap.String("order_id", ref.OrderID),
			zap.Int("lines", len(se.Shortfalls)))
		return nil
	}
	return err
}

func (s *Service) seen(ctx context.Context, eventID string) (bool, error) {
	if s.rdb == nil {
		return false, nil
	}
	return redisx.Seen(ctx, s.rdb, s.dedupKey(eventID), redisx.TTLDedup)
}

func (s *Service) forget(ctx context.Context, eventID string) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, s.dedupKey(eventID)).Err()
}

func (s *Service) dedupKey(eventID string) string {
	return fmt.Sprintf(redisx.KeyDedup, s.group, eventID)
}
