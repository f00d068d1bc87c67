package ports

import (
	"context"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

// --- DRIVING (what the service exposes) ---

// --- INPUTS ---
// Structs keep the signatures stable when a listing grows a new filter.

type HomeQuery struct {
	Kind domain.Kind
	Page domain.PageRequest
}

type SearchCmd struct {
	Query string
	Scope domain.SearchScope
	Page  domain.PageRequest
}

type CreatorQuery struct {
	AuthorID string
	Kind     domain.Kind
	Page     domain.PageRequest
}

type CommentQuery struct {
	ContentID string
	Page      domain.PageRequest
}

type CreateContentCmd struct {
	Kind      domain.Kind
	Title     string
	Body      string
	BannerURL string
	Payload   domain.Payload
}

// FeedService is the feed assembler: exclusions, candidates, ordering, pagination.
type FeedService interface {
	Home(ctx context.Context, viewer domain.ViewerContext, q HomeQuery) (*domain.FeedPage, error)
	Search(ctx context.Context, viewer domain.ViewerContext, cmd SearchCmd) (*domain.FeedPage, error)
	ByCreator(ctx context.Context, viewer domain.ViewerContext, q CreatorQuery) (*domain.FeedPage, error)
}

// InteractionService guards create-or-reject and owner-only deletion on the ledger.
type InteractionService interface {
	Create(ctx context.Context, viewer domain.ViewerContext, kind domain.InteractionKind, targetID string, report *domain.ReportDetails) (*domain.Interaction, error)
	Withdraw(ctx context.Context, viewer domain.ViewerContext, kind domain.InteractionKind, targetID string) error
	DeleteRecord(ctx context.Context, viewer domain.ViewerContext, recordID string) error
	State(ctx context.Context, viewer domain.ViewerContext, contentID string) (domain.InteractionState, error)
}

type ContentService interface {
	Create(ctx context.Context, viewer domain.ViewerContext, cmd CreateContentCmd) (*domain.ContentItem, error)
	Get(ctx context.Context, id string) (*domain.ContentItem, error)
	Delete(ctx context.Context, viewer domain.ViewerContext, id string) error
}

// CommentService lists and writes comments. Only a comment's author may delete it.
type CommentService interface {
	Create(ctx context.Context, viewer domain.ViewerContext, contentID, text string) (*domain.Comment, error)
	List(ctx context.Context, viewer domain.ViewerContext, q CommentQuery) (*domain.CommentPage, error)
	Delete(ctx context.Context, viewer domain.ViewerContext, commentID string) error
}
