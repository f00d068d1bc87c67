package services

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

var tracer = otel.Tracer("discovery-service")

var _ ports.FeedService = (*FeedService)(nil)

// FeedService assembles listings. Per request:
// Received -> FilterComputed -> CandidatesFetched -> Scored -> Paginated -> Responded.
// Nothing is kept between requests.
type FeedService struct {
	content    ports.ContentRepository
	visibility *VisibilityFilter
	scorer     *RelevanceScorer
	settings   Settings
}

func NewFeedService(content ports.ContentRepository, visibility *VisibilityFilter, scorer *RelevanceScorer, settings Settings) *FeedService {
	return &FeedService{
		content:    content,
		visibility: visibility,
		scorer:     scorer,
		settings:   settings,
	}
}

// Home lists everything visible to the viewer, newest first. No scoring.
func (s *FeedService) Home(ctx context.Context, viewer domain.ViewerContext, q ports.HomeQuery) (*domain.FeedPage, error) {
	ctx, span := tracer.Start(ctx, "feed.home", trace.WithAttributes(
		attribute.String("viewer_id", viewer.UserID),
		attribute.String("kind", string(q.Kind)),
	))
	defer span.End()

	page, size, err := s.settings.resolvePage(q.Page, q.Kind == domain.KindReel)
	if err != nil {
		return nil, err
	}

	ex, err := s.exclusions(ctx, viewer)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, domain.ListQuery{Kind: q.Kind}, ex, page, size)
}

// Search asks the store for one ranked page. The store applies the same
// ordering as RelevanceScorer.Rank over every match, so the total is exact
// and an old title match is never cut in favour of newer body matches.
func (s *FeedService) Search(ctx context.Context, viewer domain.ViewerContext, cmd ports.SearchCmd) (*domain.FeedPage, error) {
	ctx, span := tracer.Start(ctx, "feed.search", trace.WithAttributes(
		attribute.String("viewer_id", viewer.UserID),
		attribute.String("scope", string(cmd.Scope)),
	))
	defer span.End()

	term, err := domain.NormalizeQuery(cmd.Query)
	if err != nil {
		return nil, err
	}
	scope := cmd.Scope
	if scope == "" {
		scope = domain.ScopeAll
	}

	page, size, err := s.settings.resolvePage(cmd.Page, scope == domain.ScopeReel)
	if err != nil {
		return nil, err
	}

	ex, err := s.exclusions(ctx, viewer)
	if err != nil {
		return nil, err
	}

	sq := domain.SearchQuery{
		Term:       term,
		Kinds:      scope.Kinds(),
		Privileged: scope.Privileged(),
		LikeWeight: s.scorer.LikeWeight(),
		Offset:     offset(page, size),
		Limit:      size,
	}
	res, err := readWithRetry(ctx, s.settings.ReadRetryBackoff, "search",
		func(ctx context.Context) (listResult, error) {
			items, total, err := s.content.Search(ctx, sq, ex)
			return listResult{items: items, total: total}, err
		})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("matches", res.total))

	fp, err := s.paginate(res, page, size)
	if err != nil {
		return nil, err
	}
	slog.Debug("Search served", "query", term, "scope", scope, "total", fp.Meta.TotalCount, "page", page)
	return fp, nil
}

// ByCreator lists one author's items, newest first. The author always sees
// all of their own content; anyone else gets their exclusions applied.
func (s *FeedService) ByCreator(ctx context.Context, viewer domain.ViewerContext, q ports.CreatorQuery) (*domain.FeedPage, error) {
	ctx, span := tracer.Start(ctx, "feed.by_creator", trace.WithAttributes(
		attribute.String("viewer_id", viewer.UserID),
		attribute.String("author_id", q.AuthorID),
	))
	defer span.End()

	if strings.TrimSpace(q.AuthorID) == "" {
		return nil, domain.Invalid("author_id", "required")
	}

	page, size, err := s.settings.resolvePage(q.Page, q.Kind == domain.KindReel)
	if err != nil {
		return nil, err
	}

	ex := domain.NewExclusions()
	if viewer.UserID != q.AuthorID {
		ex, err = s.exclusions(ctx, viewer)
		if err != nil {
			return nil, err
		}
	}

	return s.list(ctx, domain.ListQuery{AuthorID: q.AuthorID, Kind: q.Kind}, ex, page, size)
}

func (s *FeedService) exclusions(ctx context.Context, viewer domain.ViewerContext) (domain.Exclusions, error) {
	return readWithRetry(ctx, s.settings.ReadRetryBackoff, "exclusions",
		func(ctx context.Context) (domain.Exclusions, error) {
			return s.visibility.ComputeExclusions(ctx, viewer)
		})
}

type listResult struct {
	items []*domain.ContentItem
	total int
}

func (s *FeedService) list(ctx context.Context, lq domain.ListQuery, ex domain.Exclusions, page, size int) (*domain.FeedPage, error) {
	lq.Offset = offset(page, size)
	lq.Limit = size

	res, err := readWithRetry(ctx, s.settings.ReadRetryBackoff, "list_content",
		func(ctx context.Context) (listResult, error) {
			items, total, err := s.content.List(ctx, lq, ex)
			return listResult{items: items, total: total}, err
		})
	if err != nil {
		return nil, err
	}
	return s.paginate(res, page, size)
}

func (s *FeedService) paginate(res listResult, page, size int) (*domain.FeedPage, error) {
	meta := domain.NewPageMeta(res.total, page, size)
	if page > meta.TotalPages {
		return nil, domain.Invalid("page", "page out of range")
	}
	if res.items == nil {
		res.items = []*domain.ContentItem{}
	}
	return &domain.FeedPage{Items: res.items, Meta: meta}, nil
}
