package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

// --- CONTENT STORE ---

type memContent struct {
	mu         sync.Mutex
	items      map[string]*domain.ContentItem
	authors    map[string]string
	lastSearch domain.SearchQuery
	lastList   domain.ListQuery
}

func newMemContent() *memContent {
	return &memContent{items: map[string]*domain.ContentItem{}, authors: map[string]string{}}
}

func (m *memContent) add(item *domain.ContentItem) *domain.ContentItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	if item.AuthorUsername != "" {
		m.authors[item.AuthorID] = item.AuthorUsername
	}
	return item
}

func (m *memContent) exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	return ok
}

func (m *memContent) Save(_ context.Context, item *domain.ContentItem) error {
	m.add(item)
	return nil
}

func (m *memContent) FindByID(_ context.Context, id string) (*domain.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.hydrate(item), nil
}

func (m *memContent) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memContent) UpsertAuthor(_ context.Context, userID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authors[userID] = username
	return nil
}

func (m *memContent) List(_ context.Context, q domain.ListQuery, ex domain.Exclusions) ([]*domain.ContentItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = q

	var matched []*domain.ContentItem
	for _, item := range m.items {
		if q.AuthorID != "" && item.AuthorID != q.AuthorID {
			continue
		}
		if q.Kind != "" && item.Kind != q.Kind {
			continue
		}
		if ex.Excludes(item) {
			continue
		}
		matched = append(matched, m.hydrate(item))
	}
	sortNewestFirst(matched)

	start := min(q.Offset, len(matched))
	end := min(start+q.Limit, len(matched))
	return matched[start:end], len(matched), nil
}

// Search ranks with RelevanceScorer, which is the ordering the SQL store
// has to reproduce.
func (m *memContent) Search(_ context.Context, q domain.SearchQuery, ex domain.Exclusions) ([]*domain.ContentItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSearch = q

	term := strings.ToLower(q.Term)
	var matched []*domain.ContentItem
	for _, item := range m.items {
		if len(q.Kinds) > 0 && !slices.Contains(q.Kinds, item.Kind) {
			continue
		}
		if ex.Excludes(item) {
			continue
		}
		h := m.hydrate(item)
		if !strings.Contains(strings.ToLower(h.Title), term) &&
			!strings.Contains(strings.ToLower(h.AuthorUsername), term) &&
			!strings.Contains(strings.ToLower(h.Body), term) {
			continue
		}
		matched = append(matched, h)
	}

	ranked := NewRelevanceScorer(q.LikeWeight).Rank(matched, q.Term, q.Privileged)
	start := min(q.Offset, len(ranked))
	end := min(start+q.Limit, len(ranked))
	page := make([]*domain.ContentItem, 0, end-start)
	for _, r := range ranked[start:end] {
		page = append(page, r.Item)
	}
	return page, len(ranked), nil
}

func (m *memContent) hydrate(item *domain.ContentItem) *domain.ContentItem {
	cp := *item
	cp.AuthorUsername = m.authors[item.AuthorID]
	return &cp
}

func sortNewestFirst(items []*domain.ContentItem) {
	slices.SortFunc(items, func(a, b *domain.ContentItem) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// --- COMMENTS ---

type memComments struct {
	mu            sync.Mutex
	comments      map[string]*domain.Comment
	contentExists func(id string) bool
}

func newMemComments(content *memContent) *memComments {
	return &memComments{comments: map[string]*domain.Comment{}, contentExists: content.exists}
}

func (m *memComments) Create(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contentExists != nil && !m.contentExists(c.ContentID) {
		return domain.ErrNotFound
	}
	m.comments[c.ID] = c
	return nil
}

func (m *memComments) FindByID(_ context.Context, id string) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *memComments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *memComments) List(_ context.Context, q domain.CommentQuery, ex domain.Exclusions) ([]*domain.Comment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.Comment
	for _, c := range m.comments {
		if c.ContentID != q.ContentID {
			continue
		}
		if _, blocked := ex.BlockedAuthors[c.AuthorID]; blocked {
			continue
		}
		matched = append(matched, c)
	}
	slices.SortFunc(matched, func(a, b *domain.Comment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	start := min(q.Offset, len(matched))
	end := min(start+q.Limit, len(matched))
	return matched[start:end], len(matched), nil
}

// --- LEDGER ---

type memLedger struct {
	mu            sync.Mutex
	records       map[string]*domain.Interaction
	unique        map[string]string
	contentExists func(id string) bool
	calls         int
}

func newMemLedger() *memLedger {
	return &memLedger{records: map[string]*domain.Interaction{}, unique: map[string]string{}}
}

func uniqueKey(actorID string, kind domain.InteractionKind, t domain.Target) string {
	return actorID + "|" + string(kind) + "|" + string(t.Type) + "|" + t.ID
}

func (l *memLedger) Create(_ context.Context, in *domain.Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if in.Target.Type == domain.TargetContent && l.contentExists != nil && !l.contentExists(in.Target.ID) {
		return domain.ErrNotFound
	}
	key := uniqueKey(in.ActorID, in.Kind, in.Target)
	if _, dup := l.unique[key]; dup {
		return domain.ErrConflict
	}
	l.unique[key] = in.ID
	l.records[in.ID] = in
	return nil
}

func (l *memLedger) FindByID(_ context.Context, id string) (*domain.Interaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (l *memLedger) DeleteByID(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(l.records, id)
	delete(l.unique, uniqueKey(rec.ActorID, rec.Kind, rec.Target))
	return nil
}

func (l *memLedger) DeleteByTarget(_ context.Context, actorID string, kind domain.InteractionKind, t domain.Target) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := uniqueKey(actorID, kind, t)
	id, ok := l.unique[key]
	if !ok {
		return domain.ErrNotFound
	}
	delete(l.unique, key)
	delete(l.records, id)
	return nil
}

func (l *memLedger) TargetIDs(_ context.Context, actorID string, kinds ...domain.InteractionKind) (map[domain.InteractionKind][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := map[domain.InteractionKind][]string{}
	for _, rec := range l.records {
		if rec.ActorID == actorID && slices.Contains(kinds, rec.Kind) {
			out[rec.Kind] = append(out[rec.Kind], rec.Target.ID)
		}
	}
	return out, nil
}

func (l *memLedger) State(_ context.Context, actorID, contentID string) (domain.InteractionState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := domain.Target{Type: domain.TargetContent, ID: contentID}
	_, liked := l.unique[uniqueKey(actorID, domain.InteractionLike, t)]
	_, hidden := l.unique[uniqueKey(actorID, domain.InteractionHide, t)]
	_, reported := l.unique[uniqueKey(actorID, domain.InteractionReport, t)]
	return domain.InteractionState{Liked: liked, Hidden: hidden, Reported: reported}, nil
}

func (l *memLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// --- BROKER / THROTTLE ---

type recordingPublisher struct {
	mu           sync.Mutex
	interactions []*domain.Interaction
	comments     []string
	created      []string
	deleted      []string
	err          error
}

func (p *recordingPublisher) PublishContentCreated(_ context.Context, item *domain.ContentItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, item.ID)
	return p.err
}

func (p *recordingPublisher) PublishContentDeleted(_ context.Context, contentID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, contentID)
	return p.err
}

func (p *recordingPublisher) PublishInteractionCreated(_ context.Context, in *domain.Interaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactions = append(p.interactions, in)
	return p.err
}

func (p *recordingPublisher) PublishCommentCreated(_ context.Context, c *domain.Comment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.comments = append(p.comments, c.ID)
	return p.err
}

type stubThrottle struct {
	allow bool
	err   error
}

func (s stubThrottle) Allow(context.Context, string) (bool, error) {
	return s.allow, s.err
}

// --- FIXTURES ---

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mkItem(id, author, username string, kind domain.Kind, title string, age time.Duration) *domain.ContentItem {
	item := &domain.ContentItem{
		ID:             id,
		Kind:           kind,
		Title:          title,
		AuthorID:       author,
		AuthorUsername: username,
		CreatedAt:      baseTime.Add(-age),
	}
	if kind.HasEngagement() {
		item.Engagement = &domain.Engagement{}
	}
	return item
}

func seedPosts(store *memContent, author, username string, n int) []*domain.ContentItem {
	out := make([]*domain.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-post-%03d", author, i)
		out = append(out, store.add(mkItem(id, author, username, domain.KindPost, "post "+id, time.Duration(i)*time.Minute)))
	}
	return out
}

func viewer(id string) domain.ViewerContext {
	return domain.ViewerContext{UserID: id, Username: id}
}

func testSettings() Settings {
	s := DefaultSettings()
	s.ReadRetryBackoff = time.Millisecond
	return s
}

func hide(l *memLedger, actor, contentID string) {
	in, _ := domain.NewInteraction(actor, domain.InteractionHide, contentID, nil)
	_ = l.Create(context.Background(), in)
}

func block(l *memLedger, actor, userID string) {
	in, _ := domain.NewInteraction(actor, domain.InteractionBlock, userID, nil)
	_ = l.Create(context.Background(), in)
}

func report(l *memLedger, actor, contentID string) {
	in, _ := domain.NewInteraction(actor, domain.InteractionReport, contentID, &domain.ReportDetails{Reason: domain.ReasonSpam})
	_ = l.Create(context.Background(), in)
}

func ids(items []*domain.ContentItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
