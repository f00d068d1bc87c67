package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/metrics"
)

const (
	StreamName = "DISCOVERY"

	SubjectContentCreated = "content.created"
	SubjectContentDeleted = "content.deleted"
	SubjectLikeCreated    = "interaction.like.created"
	SubjectFollowCreated  = "interaction.follow.created"
	SubjectCommentCreated = "interaction.comment.created"
	SubjectReportCreated  = "moderation.report.created"
)

var streamSubjects = []string{"content.>", "interaction.>", "moderation.>"}

var _ ports.EventPublisher = (*NatsBroker)(nil)

// publisher is the slice of jetstream.JetStream we use. Tests swap it out.
type publisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type NatsBroker struct {
	js publisher
}

// NewNatsBroker makes sure the stream exists (idempotent) and returns a publisher on it.
func NewNatsBroker(ctx context.Context, nc *nats.Conn) (*NatsBroker, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: streamSubjects,
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{js: js}, nil
}

// --- EVENT PAYLOADS ---

type ContentCreatedEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ContentDeletedEvent struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
}

type InteractionCreatedEvent struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id"`
	Kind        string    `json:"kind"`
	TargetType  string    `json:"target_type"`
	TargetID    string    `json:"target_id"`
	Reason      string    `json:"reason,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentCreatedEvent feeds comment notifications. The text is not carried.
type CommentCreatedEvent struct {
	ID        string    `json:"id"`
	ContentID string    `json:"content_id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *NatsBroker) PublishContentCreated(ctx context.Context, item *domain.ContentItem) error {
	return n.publish(ctx, SubjectContentCreated, ContentCreatedEvent{
		ID:        item.ID,
		Kind:      string(item.Kind),
		Title:     item.Title,
		AuthorID:  item.AuthorID,
		CreatedAt: item.CreatedAt,
	})
}

func (n *NatsBroker) PublishContentDeleted(ctx context.Context, contentID, authorID string) error {
	return n.publish(ctx, SubjectContentDeleted, ContentDeletedEvent{ID: contentID, AuthorID: authorID})
}

// PublishInteractionCreated only knows the public kinds. Hides and blocks
// have no subject and are refused here as well.
func (n *NatsBroker) PublishInteractionCreated(ctx context.Context, in *domain.Interaction) error {
	subject, ok := interactionSubject(in.Kind)
	if !ok {
		return fmt.Errorf("no event for interaction kind %q", in.Kind)
	}

	event := InteractionCreatedEvent{
		ID:         in.ID,
		ActorID:    in.ActorID,
		Kind:       string(in.Kind),
		TargetType: string(in.Target.Type),
		TargetID:   in.Target.ID,
		CreatedAt:  in.CreatedAt,
	}
	if in.Report != nil {
		event.Reason = string(in.Report.Reason)
		event.Description = in.Report.Description
	}
	return n.publish(ctx, subject, event)
}

func (n *NatsBroker) PublishCommentCreated(ctx context.Context, c *domain.Comment) error {
	return n.publish(ctx, SubjectCommentCreated, CommentCreatedEvent{
		ID:        c.ID,
		ContentID: c.ContentID,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
	})
}

func interactionSubject(kind domain.InteractionKind) (string, bool) {
	switch kind {
	case domain.InteractionLike:
		return SubjectLikeCreated, true
	case domain.InteractionFollow:
		return SubjectFollowCreated, true
	case domain.InteractionReport:
		return SubjectReportCreated, true
	}
	return "", false
}

func (n *NatsBroker) publish(ctx context.Context, subject string, event any) (err error) {
	defer func() { metrics.RecordEventPublished(subject, err) }()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	// Trace context travels in the NATS headers.
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	ack, err := n.js.PublishMsg(ctx, msg)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	slog.Debug("📢 Event published", "subject", subject, "seq", ack.Sequence)
	return nil
}
