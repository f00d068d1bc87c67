package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/metrics"
)

const (
	SubjectEngagementRefreshed = "engagement.refreshed"
	SubjectUserRegistered      = "identity.user.registered"

	// Every replica joins the same queue group so each event is applied once.
	QueueGroup = "discovery-service"
)

var tracer = otel.Tracer("discovery-service")

// EngagementRefreshedEvent is published by the external poller that reads
// view/like counts from the video platforms.
type EngagementRefreshedEvent struct {
	ContentID string `json:"content_id"`
	ViewCount int64  `json:"view_count"`
	LikeCount int64  `json:"like_count"`
}

type UserRegisteredEvent struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// EventHandler applies inbound events straight to the store ports. The feed
// core only ever reads what these write.
type EventHandler struct {
	engagement ports.EngagementWriter
	authors    ports.AuthorDirectory
	timeout    time.Duration
}

func NewEventHandler(engagement ports.EngagementWriter, authors ports.AuthorDirectory) *EventHandler {
	return &EventHandler{engagement: engagement, authors: authors, timeout: 10 * time.Second}
}

// Subscribe wires both handlers on nc and returns the subscriptions so main can drain them.
func (h *EventHandler) Subscribe(nc *nats.Conn) ([]*nats.Subscription, error) {
	handlers := map[string]nats.MsgHandler{
		SubjectEngagementRefreshed: h.HandleEngagementRefreshed,
		SubjectUserRegistered:      h.HandleUserRegistered,
	}

	subs := make([]*nats.Subscription, 0, len(handlers))
	for subject, handler := range handlers {
		sub, err := nc.QueueSubscribe(subject, QueueGroup, handler)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Drain stops new deliveries on subs and lets handlers already running finish.
// It does not wait; closing the connection with nc.Drain does.
func Drain(subs []*nats.Subscription) {
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			slog.Error("Failed to drain subscription", "subject", sub.Subject, "error", err)
		}
	}
}

func (h *EventHandler) HandleEngagementRefreshed(msg *nats.Msg) {
	ctx, span, cancel := h.startSpan(msg, "process_engagement_refreshed")
	defer cancel()
	defer span.End()

	var event EngagementRefreshedEvent
	err := h.decode(msg, &event)
	if err == nil {
		span.SetAttributes(attribute.String("content_id", event.ContentID))
		err = h.applyEngagement(ctx, event)
	}
	h.finish(span, msg.Subject, err)
}

func (h *EventHandler) HandleUserRegistered(msg *nats.Msg) {
	ctx, span, cancel := h.startSpan(msg, "process_user_registered")
	defer cancel()
	defer span.End()

	var event UserRegisteredEvent
	err := h.decode(msg, &event)
	if err == nil {
		span.SetAttributes(attribute.String("user_id", event.UserID))
		err = h.applyUser(ctx, event)
	}
	h.finish(span, msg.Subject, err)
}

func (h *EventHandler) applyEngagement(ctx context.Context, e EngagementRefreshedEvent) error {
	if strings.TrimSpace(e.ContentID) == "" {
		return domain.Invalid("content_id", "required")
	}
	if e.ViewCount < 0 || e.LikeCount < 0 {
		return domain.Invalid("counts", "must not be negative")
	}
	err := h.engagement.UpdateEngagement(ctx, e.ContentID, domain.Engagement{ViewCount: e.ViewCount, LikeCount: e.LikeCount})
	if errors.Is(err, domain.ErrNotFound) {
		// Deleted since the poll, or a text post. Nothing to refresh.
		slog.Debug("Engagement for unknown content dropped", "content_id", e.ContentID)
		return nil
	}
	return err
}

func (h *EventHandler) applyUser(ctx context.Context, e UserRegisteredEvent) error {
	if strings.TrimSpace(e.UserID) == "" {
		return domain.Invalid("user_id", "required")
	}
	if strings.TrimSpace(e.Username) == "" {
		slog.Warn("User registered without username, projection not updated", "user_id", e.UserID)
		return nil
	}
	return h.authors.UpsertAuthor(ctx, e.UserID, e.Username)
}

// startSpan continues the producer's trace from the NATS headers.
func (h *EventHandler) startSpan(msg *nats.Msg, name string) (context.Context, trace.Span, context.CancelFunc) {
	ctx := context.Background()
	if msg.Header != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindConsumer))
	return ctx, span, cancel
}

func (h *EventHandler) decode(msg *nats.Msg, v any) error {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return domain.Invalid("payload", err.Error())
	}
	return nil
}

func (h *EventHandler) finish(span trace.Span, subject string, err error) {
	metrics.RecordEventConsumed(subject, err)
	if err != nil {
		span.RecordError(err)
		slog.Error("❌ Event handling failed", "subject", subject, "error", err)
		return
	}
	slog.Debug("📨 Event applied", "subject", subject)
}
