package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

var _ ports.InteractionService = (*InteractionService)(nil)

type InteractionService struct {
	ledger    ports.InteractionRepository
	publisher ports.EventPublisher
	throttle  ports.WriteThrottle
	settings  Settings
}

func NewInteractionService(ledger ports.InteractionRepository, pub ports.EventPublisher, throttle ports.WriteThrottle, settings Settings) *InteractionService {
	return &InteractionService{
		ledger:    ledger,
		publisher: pub,
		throttle:  throttle,
		settings:  settings,
	}
}

// Create is a guarded create-or-reject. A duplicate (actor, kind, target)
// comes back from the store as domain.ErrConflict; nothing is overwritten.
func (s *InteractionService) Create(ctx context.Context, viewer domain.ViewerContext, kind domain.InteractionKind, targetID string, report *domain.ReportDetails) (*domain.Interaction, error) {
	ctx, span := tracer.Start(ctx, "interaction.create", trace.WithAttributes(
		attribute.String("actor_id", viewer.UserID),
		attribute.String("kind", string(kind)),
	))
	defer span.End()

	if viewer.IsAnonymous() {
		return nil, domain.ErrUnauthenticated
	}

	in, err := domain.NewInteraction(viewer.UserID, kind, targetID, report)
	if err != nil {
		return nil, err
	}

	if err := s.allow(ctx, viewer.UserID); err != nil {
		return nil, err
	}

	// 1. Store (source of truth, unique index decides)
	if err := s.ledger.Create(ctx, in); err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, in.Target.ID, err)
	}

	// 2. Best effort notification. Hides and blocks stay silent.
	if kind == domain.InteractionLike || kind == domain.InteractionFollow || kind == domain.InteractionReport {
		if err := s.publisher.PublishInteractionCreated(ctx, in); err != nil {
			slog.Error("Failed to publish interaction event", "kind", kind, "interaction_id", in.ID, "error", err)
		}
	}

	return in, nil
}

// Withdraw removes the viewer's own record for (kind, target).
func (s *InteractionService) Withdraw(ctx context.Context, viewer domain.ViewerContext, kind domain.InteractionKind, targetID string) error {
	ctx, span := tracer.Start(ctx, "interaction.withdraw", trace.WithAttributes(
		attribute.String("actor_id", viewer.UserID),
		attribute.String("kind", string(kind)),
	))
	defer span.End()

	if viewer.IsAnonymous() {
		return domain.ErrUnauthenticated
	}
	if !kind.Valid() {
		return domain.Invalid("kind", "unknown interaction kind")
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return domain.Invalid("target", "required")
	}

	if err := s.allow(ctx, viewer.UserID); err != nil {
		return err
	}

	target := domain.Target{Type: kind.TargetType(), ID: targetID}
	return s.ledger.DeleteByTarget(ctx, viewer.UserID, kind, target)
}

// DeleteRecord deletes by ledger id; only the actor who owns it may.
func (s *InteractionService) DeleteRecord(ctx context.Context, viewer domain.ViewerContext, recordID string) error {
	ctx, span := tracer.Start(ctx, "interaction.delete_record")
	defer span.End()

	if viewer.IsAnonymous() {
		return domain.ErrUnauthenticated
	}
	if strings.TrimSpace(recordID) == "" {
		return domain.Invalid("id", "required")
	}

	rec, err := s.ledger.FindByID(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.ActorID != viewer.UserID {
		return domain.ErrUnauthorized
	}
	return s.ledger.DeleteByID(ctx, recordID)
}

// State reports what the viewer did to one item. Anonymous viewers did nothing.
func (s *InteractionService) State(ctx context.Context, viewer domain.ViewerContext, contentID string) (domain.InteractionState, error) {
	if viewer.IsAnonymous() {
		return domain.InteractionState{}, nil
	}
	if strings.TrimSpace(contentID) == "" {
		return domain.InteractionState{}, domain.Invalid("id", "required")
	}
	return readWithRetry(ctx, s.settings.ReadRetryBackoff, "interaction_state",
		func(ctx context.Context) (domain.InteractionState, error) {
			return s.ledger.State(ctx, viewer.UserID, contentID)
		})
}

func (s *InteractionService) allow(ctx context.Context, actorID string) error {
	return allowWrite(ctx, s.throttle, actorID)
}

// allowWrite fails open: a throttle outage must not block writes.
func allowWrite(ctx context.Context, throttle ports.WriteThrottle, actorID string) error {
	if throttle == nil {
		return nil
	}
	ok, err := throttle.Allow(ctx, actorID)
	if err != nil {
		slog.Warn("Write throttle unavailable", "actor_id", actorID, "error", err)
		return nil
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}
