package ports

import (
	"context"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

// --- PERSISTENCE (DB) ---

// ContentRepository is the content store. Exclusions are pushed down so the
// store can filter before counting and paging.
type ContentRepository interface {
	Save(ctx context.Context, item *domain.ContentItem) error
	FindByID(ctx context.Context, id string) (*domain.ContentItem, error)
	Delete(ctx context.Context, id string) error

	// List returns one recency-ordered page plus the total count of matches.
	List(ctx context.Context, q domain.ListQuery, ex domain.Exclusions) ([]*domain.ContentItem, int, error)

	// Search matches the term (case-insensitive) against title, author username
	// and body. It ranks every match by domain.CompareRanked, returns the page
	// at q.Offset/q.Limit and the total number of matches.
	Search(ctx context.Context, q domain.SearchQuery, ex domain.Exclusions) ([]*domain.ContentItem, int, error)
}

// CommentRepository stores comments. Create returns domain.ErrNotFound when
// the content item does not exist.
type CommentRepository interface {
	Create(ctx context.Context, c *domain.Comment) error
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error

	// List returns one newest-first page plus the total. Comments by the
	// excluded authors are filtered before counting.
	List(ctx context.Context, q domain.CommentQuery, ex domain.Exclusions) ([]*domain.Comment, int, error)
}

// AuthorDirectory keeps the username projection search matches against.
type AuthorDirectory interface {
	UpsertAuthor(ctx context.Context, userID, username string) error
}

// EngagementWriter is used only by the refresher's ingestion adapter.
type EngagementWriter interface {
	UpdateEngagement(ctx context.Context, contentID string, e domain.Engagement) error
}

// InteractionRepository is the ledger. Uniqueness of (actor, kind, target)
// is a unique index in the store; Create returns domain.ErrConflict on a duplicate.
type InteractionRepository interface {
	Create(ctx context.Context, in *domain.Interaction) error
	FindByID(ctx context.Context, id string) (*domain.Interaction, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByTarget(ctx context.Context, actorID string, kind domain.InteractionKind, target domain.Target) error

	// TargetIDs groups the actor's target ids by kind for the requested kinds.
	TargetIDs(ctx context.Context, actorID string, kinds ...domain.InteractionKind) (map[domain.InteractionKind][]string, error)
	State(ctx context.Context, actorID, contentID string) (domain.InteractionState, error)
}

// --- MESSAGING (BROKER) ---

type EventPublisher interface {
	PublishContentCreated(ctx context.Context, item *domain.ContentItem) error
	PublishContentDeleted(ctx context.Context, contentID, authorID string) error
	PublishInteractionCreated(ctx context.Context, in *domain.Interaction) error
	PublishCommentCreated(ctx context.Context, c *domain.Comment) error
}

// --- SECURITY ---

// IdentityProvider turns a bearer token into a viewer. Credentials stay elsewhere.
type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (domain.ViewerContext, error)
}

// WriteThrottle bounds how many interaction writes an actor can make per window.
type WriteThrottle interface {
	Allow(ctx context.Context, actorID string) (bool, error)
}
