package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

var (
	_ ports.ContentRepository = (*ContentRepo)(nil)
	_ ports.AuthorDirectory   = (*ContentRepo)(nil)
	_ ports.EngagementWriter  = (*ContentRepo)(nil)
)

// payloadDTO keeps JSON tags out of the domain. Exactly one field is set.
type payloadDTO struct {
	VideoLink *videoLinkDTO `json:"video_link,omitempty"`
	Upload    *mediaDTO     `json:"upload,omitempty"`
	Reel      *mediaDTO     `json:"reel,omitempty"`
}

type videoLinkDTO struct {
	VideoID         string `json:"video_id"`
	VideoTitle      string `json:"video_title,omitempty"`
	Description     string `json:"description,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	ChannelTitle    string `json:"channel_title,omitempty"`
	ChannelImageURL string `json:"channel_image_url,omitempty"`
}

type mediaDTO struct {
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Description  string `json:"description,omitempty"`
}

// ContentRepo is the content store. It also owns the username projection
// and the engagement counters, both of which live next to the items.
type ContentRepo struct {
	db      *pgxpool.Pool
	breaker *Breaker
}

func NewContentRepo(db *pgxpool.Pool, breaker *Breaker) *ContentRepo {
	return &ContentRepo{db: db, breaker: breaker}
}

const selectItem = `
	SELECT c.id::text, c.kind, c.title, c.body, c.banner_url, c.author_id,
	       COALESCE(u.username, ''), c.payload, c.view_count, c.like_count, c.created_at
	FROM content_items c
	LEFT JOIN users u ON u.id = c.author_id`

func (r *ContentRepo) Save(ctx context.Context, item *domain.ContentItem) error {
	payload, err := marshalPayload(item.Payload)
	if err != nil {
		return err
	}

	var views, likes *int64
	if item.Engagement != nil {
		views, likes = &item.Engagement.ViewCount, &item.Engagement.LikeCount
	}

	q := `
		INSERT INTO content_items (id, kind, title, body, banner_url, author_id, payload, view_count, like_count, created_at)
		VALUES (@id, @kind, @title, @body, @banner_url, @author_id, @payload, @view_count, @like_count, @created_at)
	`
	args := pgx.NamedArgs{
		"id":         item.ID,
		"kind":       string(item.Kind),
		"title":      item.Title,
		"body":       item.Body,
		"banner_url": item.BannerURL,
		"author_id":  item.AuthorID,
		"payload":    payload,
		"view_count": views,
		"like_count": likes,
		"created_at": item.CreatedAt,
	}

	return exec(r.breaker, func() error {
		_, err := r.db.Exec(ctx, q, args)
		return handleError(err)
	})
}

func (r *ContentRepo) FindByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	return execute(r.breaker, func() (*domain.ContentItem, error) {
		item, err := scanItem(r.db.QueryRow(ctx, selectItem+` WHERE c.id = $1`, id))
		return item, handleError(err)
	})
}

// Delete removes the item; the ledger rows pointing at it go with it (ON DELETE CASCADE).
func (r *ContentRepo) Delete(ctx context.Context, id string) error {
	return exec(r.breaker, func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM content_items WHERE id = $1`, id)
		if err != nil {
			return handleError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// listFilter builds the shared WHERE clause. Exclusions are pushed into SQL so
// counts and offsets are computed on what the viewer can actually see.
type listFilter struct {
	clauses []string
	args    pgx.NamedArgs
}

func newListFilter(ex domain.Exclusions) *listFilter {
	f := &listFilter{args: pgx.NamedArgs{}}
	if ids := ex.ContentIDs(); len(ids) > 0 {
		f.add(`NOT (c.id = ANY(@excluded_ids::uuid[]))`, "excluded_ids", ids)
	}
	if authors := ex.AuthorIDs(); len(authors) > 0 {
		f.add(`NOT (c.author_id = ANY(@blocked_authors::text[]))`, "blocked_authors", authors)
	}
	return f
}

func (f *listFilter) add(clause, name string, value any) {
	f.clauses = append(f.clauses, clause)
	f.args[name] = value
}

func (f *listFilter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

type listPage struct {
	items []*domain.ContentItem
	total int
}

func (r *ContentRepo) List(ctx context.Context, q domain.ListQuery, ex domain.Exclusions) ([]*domain.ContentItem, int, error) {
	f := newListFilter(ex)
	if q.AuthorID != "" {
		f.add(`c.author_id = @author_id`, "author_id", q.AuthorID)
	}
	if q.Kind != "" {
		f.add(`c.kind = @kind`, "kind", string(q.Kind))
	}
	f.args["limit"] = q.Limit
	f.args["offset"] = q.Offset

	countQ := `SELECT count(*) FROM content_items c` + f.where()
	pageQ := selectItem + f.where() + ` ORDER BY c.created_at DESC, c.id LIMIT @limit OFFSET @offset`

	res, err := execute(r.breaker, func() (listPage, error) {
		var total int
		if err := r.db.QueryRow(ctx, countQ, f.args).Scan(&total); err != nil {
			return listPage{}, handleError(err)
		}
		if total == 0 || q.Offset >= total {
			return listPage{total: total}, nil
		}
		rows, err := r.db.Query(ctx, pageQ, f.args)
		if err != nil {
			return listPage{}, handleError(err)
		}
		items, err := collectItems(rows)
		return listPage{items: items, total: total}, handleError(err)
	})
	if err != nil {
		return nil, 0, err
	}
	return res.items, res.total, nil
}

// searchOrder mirrors domain.CompareRanked: priority ladder, trending score,
// recency, then id so equal keys still page reproducibly.
const searchOrder = `
	ORDER BY
		CASE
			WHEN c.title ILIKE @pattern ESCAPE '\' THEN 1
			WHEN c.kind = ANY(@privileged::text[]) THEN 2
			WHEN u.username ILIKE @pattern ESCAPE '\' THEN 3
			WHEN c.body ILIKE @pattern ESCAPE '\' THEN 4
			ELSE 5
		END,
		CASE WHEN c.kind = 'post' THEN 0
			ELSE @like_weight * COALESCE(c.like_count, 0) + COALESCE(c.view_count, 0)
		END DESC,
		c.created_at DESC,
		c.id
	LIMIT @limit OFFSET @offset`

// Search ranks every match in the database and returns one page of it.
func (r *ContentRepo) Search(ctx context.Context, q domain.SearchQuery, ex domain.Exclusions) ([]*domain.ContentItem, int, error) {
	f := newListFilter(ex)
	f.add(`(c.title ILIKE @pattern ESCAPE '\' OR u.username ILIKE @pattern ESCAPE '\' OR c.body ILIKE @pattern ESCAPE '\')`,
		"pattern", "%"+escapeLike(q.Term)+"%")
	if len(q.Kinds) > 0 {
		f.add(`c.kind = ANY(@kinds::text[])`, "kinds", kindNames(q.Kinds))
	}
	f.args["privileged"] = kindNames(q.Privileged)
	f.args["like_weight"] = q.LikeWeight
	f.args["limit"] = q.Limit
	f.args["offset"] = q.Offset

	countQ := `SELECT count(*) FROM content_items c LEFT JOIN users u ON u.id = c.author_id` + f.where()
	pageQ := selectItem + f.where() + searchOrder

	res, err := execute(r.breaker, func() (listPage, error) {
		var total int
		if err := r.db.QueryRow(ctx, countQ, f.args).Scan(&total); err != nil {
			return listPage{}, handleError(err)
		}
		if total == 0 || q.Offset >= total {
			return listPage{total: total}, nil
		}
		rows, err := r.db.Query(ctx, pageQ, f.args)
		if err != nil {
			return listPage{}, handleError(err)
		}
		items, err := collectItems(rows)
		return listPage{items: items, total: total}, handleError(err)
	})
	if err != nil {
		return nil, 0, err
	}
	return res.items, res.total, nil
}

func (r *ContentRepo) UpsertAuthor(ctx context.Context, userID, username string) error {
	q := `
		INSERT INTO users (id, username, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, updated_at = now()
	`
	return exec(r.breaker, func() error {
		_, err := r.db.Exec(ctx, q, userID, username)
		return handleError(err)
	})
}

// UpdateEngagement only touches kinds that carry counters.
func (r *ContentRepo) UpdateEngagement(ctx context.Context, contentID string, e domain.Engagement) error {
	q := `
		UPDATE content_items SET view_count = $2, like_count = $3
		WHERE id = $1 AND kind <> 'post'
	`
	return exec(r.breaker, func() error {
		tag, err := r.db.Exec(ctx, q, contentID, e.ViewCount, e.LikeCount)
		if err != nil {
			return handleError(err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// --- HELPERS ---

func scanItem(row pgx.Row) (*domain.ContentItem, error) {
	var (
		item         domain.ContentItem
		kind         string
		payload      []byte
		views, likes *int64
	)
	err := row.Scan(&item.ID, &kind, &item.Title, &item.Body, &item.BannerURL, &item.AuthorID,
		&item.AuthorUsername, &payload, &views, &likes, &item.CreatedAt)
	if err != nil {
		return nil, err
	}

	item.Kind = domain.Kind(kind)
	item.CreatedAt = item.CreatedAt.UTC()
	if item.Payload, err = unmarshalPayload(payload); err != nil {
		return nil, err
	}
	if item.Kind.HasEngagement() {
		item.Engagement = &domain.Engagement{}
		if views != nil {
			item.Engagement.ViewCount = *views
		}
		if likes != nil {
			item.Engagement.LikeCount = *likes
		}
	}
	return &item, nil
}

func collectItems(rows pgx.Rows) ([]*domain.ContentItem, error) {
	defer rows.Close()
	items := []*domain.ContentItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func marshalPayload(p domain.Payload) ([]byte, error) {
	var dto payloadDTO
	switch {
	case p.VideoLink != nil:
		v := videoLinkDTO(*p.VideoLink)
		dto.VideoLink = &v
	case p.Upload != nil:
		m := mediaDTO(*p.Upload)
		dto.Upload = &m
	case p.Reel != nil:
		m := mediaDTO(*p.Reel)
		dto.Reel = &m
	default:
		return nil, nil
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

func unmarshalPayload(data []byte) (domain.Payload, error) {
	var p domain.Payload
	if len(data) == 0 {
		return p, nil
	}
	var dto payloadDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return p, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if dto.VideoLink != nil {
		v := domain.VideoLink(*dto.VideoLink)
		p.VideoLink = &v
	}
	if dto.Upload != nil {
		u := domain.Upload(*dto.Upload)
		p.Upload = &u
	}
	if dto.Reel != nil {
		rl := domain.Reel(*dto.Reel)
		p.Reel = &rl
	}
	return p, nil
}

// kindNames never returns nil, so ANY() sees an empty array rather than NULL.
func kindNames(kinds []domain.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
