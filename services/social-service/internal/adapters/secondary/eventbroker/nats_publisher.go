package eventbroker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/metrics"
)

const (
	SubjectPostCreated         = "social.post.created"
	SubjectNotificationCreated = "social.notification.created"
)

// MsgPublisher est le sous-ensemble de *nats.Conn utilisé ici.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// BreakerSettings : au-delà de FailureThreshold échecs consécutifs, le circuit s'ouvre
// et les publications sont rejetées immédiatement pendant Timeout.
type BreakerSettings struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

type NatsPublisher struct {
	nc      MsgPublisher
	breaker *gobreaker.CircuitBreaker[any]
}

func NewNatsPublisher(nc MsgPublisher, bs BreakerSettings) *NatsPublisher {
	if bs.FailureThreshold == 0 {
		bs.FailureThreshold = 5
	}
	if bs.Timeout <= 0 {
		bs.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "nats-publisher",
		MaxRequests: 1,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			slog.Warn("⚡ Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &NatsPublisher{nc: nc, breaker: gobreaker.NewCircuitBreaker[any](settings)}
}

// Structures des events (Contract implicite avec les consommateurs)
type PostCreatedEvent struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationCreatedEvent struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	Verb        string    `json:"verb"`
	TargetKind  string    `json:"target_kind,omitempty"`
	TargetID    string    `json:"target_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *NatsPublisher) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	return p.publish(ctx, SubjectPostCreated, PostCreatedEvent{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		CreatedAt: post.CreatedAt,
	})
}

func (p *NatsPublisher) PublishNotificationCreated(ctx context.Context, n *domain.Notification) error {
	event := NotificationCreatedEvent{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Verb:        string(n.Verb),
		CreatedAt:   n.CreatedAt,
	}
	if n.Target != nil {
		event.TargetKind = string(n.Target.Kind)
		event.TargetID = n.Target.ID
	}
	return p.publish(ctx, SubjectNotificationCreated, event)
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	// Injection du trace context dans les headers NATS
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.nc.PublishMsg(msg)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordEventPublished(subject, "rejected")
		return fmt.Errorf("%w: event broker circuit open", domain.ErrStorageUnavailable)
	case err != nil:
		metrics.RecordEventPublished(subject, "failure")
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	metrics.RecordEventPublished(subject, "success")
	slog.Debug("📢 Event published", "subject", subject)
	return nil
}

// State expose l'état du circuit (health checks).
func (p *NatsPublisher) State() gobreaker.State {
	return p.breaker.State()
}
