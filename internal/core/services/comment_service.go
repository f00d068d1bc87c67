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

var _ ports.CommentService = (*CommentService)(nil)

// CommentService writes and lists comments. Listings drop comments by
// authors the viewer blocked, using the same exclusions as the feed.
type CommentService struct {
	comments   ports.CommentRepository
	content    ports.ContentRepository
	visibility *VisibilityFilter
	publisher  ports.EventPublisher
	throttle   ports.WriteThrottle
	settings   Settings
}

func NewCommentService(comments ports.CommentRepository, content ports.ContentRepository, visibility *VisibilityFilter,
	pub ports.EventPublisher, throttle ports.WriteThrottle, settings Settings) *CommentService {
	return &CommentService{
		comments:   comments,
		content:    content,
		visibility: visibility,
		publisher:  pub,
		throttle:   throttle,
		settings:   settings,
	}
}

func (s *CommentService) Create(ctx context.Context, viewer domain.ViewerContext, contentID, text string) (*domain.Comment, error) {
	ctx, span := tracer.Start(ctx, "comment.create", trace.WithAttributes(
		attribute.String("author_id", viewer.UserID),
		attribute.String("content_id", contentID),
	))
	defer span.End()

	if viewer.IsAnonymous() {
		return nil, domain.ErrUnauthenticated
	}

	c, err := domain.NewComment(viewer.UserID, contentID, text)
	if err != nil {
		return nil, err
	}
	c.AuthorUsername = viewer.Username

	// Comments share the interaction write budget.
	if err := allowWrite(ctx, s.throttle, viewer.UserID); err != nil {
		return nil, err
	}

	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("comment on %s: %w", c.ContentID, err)
	}

	if err := s.publisher.PublishCommentCreated(ctx, c); err != nil {
		slog.Error("Failed to publish comment event", "comment_id", c.ID, "error", err)
	}
	return c, nil
}

// List pages through one item's comments, newest first.
func (s *CommentService) List(ctx context.Context, viewer domain.ViewerContext, q ports.CommentQuery) (*domain.CommentPage, error) {
	ctx, span := tracer.Start(ctx, "comment.list", trace.WithAttributes(
		attribute.String("viewer_id", viewer.UserID),
		attribute.String("content_id", q.ContentID),
	))
	defer span.End()

	contentID := strings.TrimSpace(q.ContentID)
	if contentID == "" {
		return nil, domain.Invalid("content_id", "required")
	}

	page, size, err := s.settings.resolvePage(q.Page, false)
	if err != nil {
		return nil, err
	}

	// A missing item is a 404, not an empty thread.
	if _, err := readWithRetry(ctx, s.settings.ReadRetryBackoff, "get_content",
		func(ctx context.Context) (*domain.ContentItem, error) {
			return s.content.FindByID(ctx, contentID)
		}); err != nil {
		return nil, err
	}

	ex, err := readWithRetry(ctx, s.settings.ReadRetryBackoff, "exclusions",
		func(ctx context.Context) (domain.Exclusions, error) {
			return s.visibility.ComputeExclusions(ctx, viewer)
		})
	if err != nil {
		return nil, err
	}

	cq := domain.CommentQuery{ContentID: contentID, Offset: offset(page, size), Limit: size}
	type result struct {
		items []*domain.Comment
		total int
	}
	res, err := readWithRetry(ctx, s.settings.ReadRetryBackoff, "list_comments",
		func(ctx context.Context) (result, error) {
			items, total, err := s.comments.List(ctx, cq, ex)
			return result{items: items, total: total}, err
		})
	if err != nil {
		return nil, err
	}

	meta := domain.NewPageMeta(res.total, page, size)
	if page > meta.TotalPages {
		return nil, domain.Invalid("page", "page out of range")
	}
	if res.items == nil {
		res.items = []*domain.Comment{}
	}
	return &domain.CommentPage{Items: res.items, Meta: meta}, nil
}

// Delete is author-only, like content deletion.
func (s *CommentService) Delete(ctx context.Context, viewer domain.ViewerContext, commentID string) error {
	ctx, span := tracer.Start(ctx, "comment.delete")
	defer span.End()

	if viewer.IsAnonymous() {
		return domain.ErrUnauthenticated
	}
	if strings.TrimSpace(commentID) == "" {
		return domain.Invalid("id", "required")
	}

	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != viewer.UserID {
		return domain.ErrUnauthorized
	}
	return s.comments.Delete(ctx, commentID)
}
