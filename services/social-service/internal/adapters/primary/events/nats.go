package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
)

const (
	SubjectUserRegistered = "identity.user.registered"
	SubjectUserDeleted    = "identity.user.deleted"
	queueGroup            = "social-service"
	handlerTimeout        = 30 * time.Second
)

// UserRegisteredEvent : payload publié par l'identity-service à l'inscription
type UserRegisteredEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// UserDeletedEvent : payload publié par l'identity-service
type UserDeletedEvent struct {
	UserID string `json:"user_id"`
}

type EventHandler struct {
	accounts ports.AccountService
}

func NewEventHandler(accounts ports.AccountService) *EventHandler {
	return &EventHandler{accounts: accounts}
}

// Subscribe branche les handlers. Le queue group répartit les messages entre instances.
func (h *EventHandler) Subscribe(nc *nats.Conn) ([]*nats.Subscription, error) {
	handlers := map[string]nats.MsgHandler{
		SubjectUserRegistered: h.HandleUserRegistered,
		SubjectUserDeleted:    h.HandleUserDeleted,
	}

	subs := make([]*nats.Subscription, 0, len(handlers))
	for subject, handler := range handlers {
		sub, err := nc.QueueSubscribe(subject, queueGroup, handler)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// HandleUserRegistered alimente la projection locale des comptes (cible des follows).
func (h *EventHandler) HandleUserRegistered(msg *nats.Msg) {
	ctx, span := startSpan(msg, "process_user_registered")
	defer span.End()

	var event UserRegisteredEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil || event.UserID == "" {
		span.SetStatus(codes.Error, "invalid event")
		slog.Error("❌ Invalid event format", "subject", msg.Subject, "error", err)
		return
	}
	span.SetAttributes(attribute.String("user.id", event.UserID))

	username := event.Username
	if username == "" {
		username = event.Email
	}

	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	if err := h.accounts.RegisterAccount(ctx, &domain.Account{ID: event.UserID, Username: username}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "register failed")
		slog.Error("❌ Account projection failed", "user_id", event.UserID, "error", err)
		return
	}
	slog.Info("👤 Account registered", "user_id", event.UserID)
}

// HandleUserDeleted : nettoyage des arêtes et du compte supprimé.
// Sans ce nettoyage, les arêtes restent orphelines (mode de défaillance connu).
func (h *EventHandler) HandleUserDeleted(msg *nats.Msg) {
	ctx, span := startSpan(msg, "process_user_deleted")
	defer span.End()

	var event UserDeletedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil || event.UserID == "" {
		span.SetStatus(codes.Error, "invalid event")
		slog.Error("❌ Invalid event format", "subject", msg.Subject, "error", err)
		return
	}
	span.SetAttributes(attribute.String("user.id", event.UserID))

	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	removed, err := h.accounts.DeleteAccount(ctx, event.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cleanup failed")
		slog.Error("❌ Graph cleanup failed", "user_id", event.UserID, "error", err)
		return
	}
	slog.Info("🧹 Graph cleaned after account deletion", "user_id", event.UserID, "edges_removed", removed)
}

// startSpan reprend le contexte de trace propagé dans les headers NATS
func startSpan(msg *nats.Msg, name string) (context.Context, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Header))
	return otel.Tracer("social-service").Start(ctx, name, trace.WithSpanKind(trace.SpanKindConsumer))
}
