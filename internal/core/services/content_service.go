package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

var _ ports.ContentService = (*ContentService)(nil)

type ContentService struct {
	repo      ports.ContentRepository
	authors   ports.AuthorDirectory
	publisher ports.EventPublisher
	settings  Settings
}

func NewContentService(repo ports.ContentRepository, authors ports.AuthorDirectory, pub ports.EventPublisher, settings Settings) *ContentService {
	return &ContentService{repo: repo, authors: authors, publisher: pub, settings: settings}
}

func (s *ContentService) Create(ctx context.Context, viewer domain.ViewerContext, cmd ports.CreateContentCmd) (*domain.ContentItem, error) {
	ctx, span := tracer.Start(ctx, "content.create")
	defer span.End()

	if viewer.IsAnonymous() {
		return nil, domain.ErrUnauthenticated
	}

	item, err := domain.NewContentItem(viewer.UserID, cmd.Kind, cmd.Title, cmd.Body, cmd.BannerURL, cmd.Payload)
	if err != nil {
		return nil, err
	}
	item.AuthorUsername = viewer.Username

	// Search matches on usernames, so keep the projection fresh.
	if viewer.Username != "" {
		if err := s.authors.UpsertAuthor(ctx, viewer.UserID, viewer.Username); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishContentCreated(ctx, item); err != nil {
		slog.Error("Failed to publish content.created", "content_id", item.ID, "error", err)
	}
	return item, nil
}

func (s *ContentService) Get(ctx context.Context, id string) (*domain.ContentItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Invalid("id", "required")
	}
	return readWithRetry(ctx, s.settings.ReadRetryBackoff, "get_content",
		func(ctx context.Context) (*domain.ContentItem, error) {
			return s.repo.FindByID(ctx, id)
		})
}

// Delete is author-only. The item's interactions go with it.
func (s *ContentService) Delete(ctx context.Context, viewer domain.ViewerContext, id string) error {
	ctx, span := tracer.Start(ctx, "content.delete")
	defer span.End()

	if viewer.IsAnonymous() {
		return domain.ErrUnauthenticated
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if item.AuthorID != viewer.UserID {
		return domain.ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.publisher.PublishContentDeleted(ctx, id, item.AuthorID); err != nil {
		slog.Error("Failed to publish content.deleted", "content_id", id, "error", err)
	}
	return nil
}
