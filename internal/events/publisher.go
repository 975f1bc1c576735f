package events

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/shoplane/shoplane/internal/kafka"
)

// Publisher emits domain events. Implementations must not block the caller
// beyond enqueueing.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

// KafkaPublisher wraps the async producer and stamps the envelope.
type KafkaPublisher struct {
	Producer *kafka.Producer
	Source   string
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) {
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Source,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: key,
		Payload:       MustMarshal(payload),
	}
	p.Producer.Publish(TopicFor(eventType), PartitionKey(key), MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// NopPublisher drops everything. Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) {}

// Recorder keeps published events in memory for assertions.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	EventType string
	Key       string
	Payload   any
}

func (r *Recorder) Publish(_ context.Context, eventType, key string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{EventType: eventType, Key: key, Payload: payload})
}

// ByType returns the recorded events matching eventType.
func (r *Recorder) ByType(eventType string) []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Recorded
	for _, e := range r.Events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
