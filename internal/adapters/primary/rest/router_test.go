package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/metrics"
)

// --- FAKES ---

type fakeIdentity struct{}

func (fakeIdentity) Authenticate(_ context.Context, token string) (domain.ViewerContext, error) {
	if token == "good" {
		return domain.ViewerContext{UserID: "u1", Username: "alice"}, nil
	}
	return domain.Anonymous, fmt.Errorf("token rejected: %w", domain.ErrUnauthenticated)
}

type fakeFeed struct {
	viewer domain.ViewerContext
	home   ports.HomeQuery
	search ports.SearchCmd
	page   *domain.FeedPage
	err    error
}

func (f *fakeFeed) Home(_ context.Context, v domain.ViewerContext, q ports.HomeQuery) (*domain.FeedPage, error) {
	f.viewer, f.home = v, q
	return f.page, f.err
}

func (f *fakeFeed) Search(_ context.Context, v domain.ViewerContext, cmd ports.SearchCmd) (*domain.FeedPage, error) {
	f.viewer, f.search = v, cmd
	return f.page, f.err
}

func (f *fakeFeed) ByCreator(_ context.Context, v domain.ViewerContext, _ ports.CreatorQuery) (*domain.FeedPage, error) {
	f.viewer = v
	return f.page, f.err
}

type fakeInteractions struct {
	kind    domain.InteractionKind
	target  string
	details *domain.ReportDetails
	err     error
}

func (f *fakeInteractions) Create(_ context.Context, v domain.ViewerContext, kind domain.InteractionKind, target string, d *domain.ReportDetails) (*domain.Interaction, error) {
	f.kind, f.target, f.details = kind, target, d
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewInteraction(v.UserID, kind, target, d)
}

func (f *fakeInteractions) Withdraw(_ context.Context, _ domain.ViewerContext, kind domain.InteractionKind, target string) error {
	f.kind, f.target = kind, target
	return f.err
}

func (f *fakeInteractions) DeleteRecord(_ context.Context, _ domain.ViewerContext, id string) error {
	f.target = id
	return f.err
}

func (f *fakeInteractions) State(_ context.Context, _ domain.ViewerContext, _ string) (domain.InteractionState, error) {
	return domain.InteractionState{Liked: true}, f.err
}

type fakeContent struct {
	cmd ports.CreateContentCmd
	err error
}

func (f *fakeContent) Create(_ context.Context, v domain.ViewerContext, cmd ports.CreateContentCmd) (*domain.ContentItem, error) {
	f.cmd = cmd
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewContentItem(v.UserID, cmd.Kind, cmd.Title, cmd.Body, cmd.BannerURL, cmd.Payload)
}

func (f *fakeContent) Get(_ context.Context, id string) (*domain.ContentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ContentItem{ID: id, Kind: domain.KindPost, Title: "t", AuthorID: "u2"}, nil
}

func (f *fakeContent) Delete(_ context.Context, _ domain.ViewerContext, _ string) error {
	return f.err
}

type fakeComments struct {
	viewer    domain.ViewerContext
	query     ports.CommentQuery
	contentID string
	text      string
	deleted   string
	err       error
}

func (f *fakeComments) Create(_ context.Context, v domain.ViewerContext, contentID, text string) (*domain.Comment, error) {
	f.viewer, f.contentID, f.text = v, contentID, text
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewComment(v.UserID, contentID, text)
}

func (f *fakeComments) List(_ context.Context, v domain.ViewerContext, q ports.CommentQuery) (*domain.CommentPage, error) {
	f.viewer, f.query = v, q
	if f.err != nil {
		return nil, f.err
	}
	c := &domain.Comment{ID: "m1", ContentID: q.ContentID, AuthorID: "u2", AuthorUsername: "bob", Text: "hi"}
	return &domain.CommentPage{Items: []*domain.Comment{c}, Meta: domain.NewPageMeta(11, 1, 10)}, nil
}

func (f *fakeComments) Delete(_ context.Context, v domain.ViewerContext, id string) error {
	f.viewer, f.deleted = v, id
	return f.err
}

type harness struct {
	feed         *fakeFeed
	interactions *fakeInteractions
	content      *fakeContent
	comments     *fakeComments
	router       http.Handler
}

func newHarness(cfg RouterConfig) *harness {
	h := &harness{
		feed:         &fakeFeed{page: &domain.FeedPage{Meta: domain.NewPageMeta(0, 1, 10)}},
		interactions: &fakeInteractions{},
		content:      &fakeContent{},
		comments:     &fakeComments{},
	}
	h.router = NewRouter(NewHandler(h.feed, h.interactions, h.content, h.comments), fakeIdentity{}, cfg)
	return h
}

func (h *harness) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	return e
}

// --- TESTS ---

func TestHealthz(t *testing.T) {
	h := newHarness(RouterConfig{})
	if rec := h.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthentication(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantViewer string
	}{
		{name: "anonymous", header: "", wantStatus: http.StatusOK, wantViewer: ""},
		{name: "valid bearer", header: "Bearer good", wantStatus: http.StatusOK, wantViewer: "u1"},
		{name: "rejected token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic Zm9vOmJhcg==", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RouterConfig{})
			rec := h.do(http.MethodGet, "/api/v1/feed", tt.header, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && h.feed.viewer.UserID != tt.wantViewer {
				t.Errorf("viewer = %q, want %q", h.feed.viewer.UserID, tt.wantViewer)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if e := decodeError(t, rec); e.Error != "unauthenticated" {
					t.Errorf("error code = %q", e.Error)
				}
			}
		})
	}
}

func TestHome_ParsesQueryAndRendersPage(t *testing.T) {
	h := newHarness(RouterConfig{})
	h.feed.page = &domain.FeedPage{
		Items: []*domain.ContentItem{{
			ID: "c1", Kind: domain.KindReel, Title: "Jump", AuthorID: "u2",
			Payload:    domain.Payload{Reel: &domain.Reel{VideoURL: "https://cdn/r.mp4"}},
			Engagement: &domain.Engagement{ViewCount: 7, LikeCount: 2},
		}},
		Meta: domain.NewPageMeta(45, 2, 30),
	}

	rec := h.do(http.MethodGet, "/api/v1/feed?kind=reel&page=2&page_size=30", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if h.feed.home.Kind != domain.KindReel || h.feed.home.Page.Page != 2 || h.feed.home.Page.PageSize != 30 {
		t.Errorf("query = %+v", h.feed.home)
	}

	var body pageResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Page.TotalCount != 45 || body.Page.TotalPages != 2 || body.Page.CurrentPage != 2 {
		t.Errorf("meta = %+v", body.Page)
	}
	if body.Page.NextPageToken != "" || body.Page.PreviousPageToken != domain.EncodePageToken(1) {
		t.Errorf("tokens = %q / %q", body.Page.NextPageToken, body.Page.PreviousPageToken)
	}
	if len(body.Items) != 1 || body.Items[0].Reel == nil || body.Items[0].ViewCount == nil || *body.Items[0].LikeCount != 2 {
		t.Errorf("items = %+v", body.Items)
	}
}

func TestListings_RejectBadParams(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantField string
	}{
		{name: "page not an integer", target: "/api/v1/feed?page=abc", wantField: "page"},
		{name: "page size not an integer", target: "/api/v1/feed?page_size=1.5", wantField: "page_size"},
		{name: "unknown kind", target: "/api/v1/feed?kind=story", wantField: "kind"},
		{name: "unknown scope", target: "/api/v1/search?q=cat&scope=music", wantField: "scope"},
		{name: "creator kind", target: "/api/v1/creators/u2/content?kind=nope", wantField: "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RouterConfig{})
			rec := h.do(http.MethodGet, tt.target, "", "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if e := decodeError(t, rec); e.Field != tt.wantField {
				t.Errorf("field = %q, want %q", e.Field, tt.wantField)
			}
		})
	}
}

func TestSearch_PassesQueryThrough(t *testing.T) {
	h := newHarness(RouterConfig{})
	rec := h.do(http.MethodGet, "/api/v1/search?q=%20cat%20&scope=VIDEO&page_token=abc", "Bearer good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := h.feed.search
	if got.Query != " cat " || got.Scope != domain.ScopeVideo || got.Page.Token != "abc" {
		t.Errorf("search cmd = %+v", got)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{err: domain.Invalid("query", "required"), wantStatus: http.StatusBadRequest, wantCode: "validation_failed"},
		{err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{err: fmt.Errorf("like c1: %w", domain.ErrConflict), wantStatus: http.StatusConflict, wantCode: "conflict"},
		{err: domain.ErrUnauthenticated, wantStatus: http.StatusUnauthorized, wantCode: "unauthenticated"},
		{err: domain.ErrUnauthorized, wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{err: domain.ErrRateLimited, wantStatus: http.StatusTooManyRequests, wantCode: "rate_limited"},
		{err: domain.ErrUpstreamUnavailable, wantStatus: http.StatusServiceUnavailable, wantCode: "upstream_unavailable"},
		{err: domain.ErrTimeout, wantStatus: http.StatusGatewayTimeout, wantCode: "timeout"},
		{err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantCode: "timeout"},
		{err: fmt.Errorf("db: %w", domain.ErrCanceled), wantStatus: statusClientClosedRequest, wantCode: "canceled"},
		{err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			h := newHarness(RouterConfig{})
			h.feed.err = tt.err
			rec := h.do(http.MethodGet, "/api/v1/feed", "", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			e := decodeError(t, rec)
			if e.Error != tt.wantCode {
				t.Errorf("code = %q, want %q", e.Error, tt.wantCode)
			}
			if tt.wantCode == "internal" && strings.Contains(e.Message, "boom") {
				t.Error("internal error details leaked to the client")
			}
		})
	}
}

func TestInteractionRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantKind   domain.InteractionKind
		wantTarget string
	}{
		{name: "like", method: http.MethodPost, target: "/api/v1/content/c1/likes", wantStatus: http.StatusCreated, wantKind: domain.InteractionLike, wantTarget: "c1"},
		{name: "unlike", method: http.MethodDelete, target: "/api/v1/content/c1/likes", wantStatus: http.StatusNoContent, wantKind: domain.InteractionLike, wantTarget: "c1"},
		{name: "hide", method: http.MethodPost, target: "/api/v1/content/c1/hides", wantStatus: http.StatusCreated, wantKind: domain.InteractionHide, wantTarget: "c1"},
		{name: "follow", method: http.MethodPost, target: "/api/v1/users/u2/follow", wantStatus: http.StatusCreated, wantKind: domain.InteractionFollow, wantTarget: "u2"},
		{name: "unblock", method: http.MethodDelete, target: "/api/v1/users/u2/block", wantStatus: http.StatusNoContent, wantKind: domain.InteractionBlock, wantTarget: "u2"},
		{name: "delete record", method: http.MethodDelete, target: "/api/v1/interactions/i9", wantStatus: http.StatusNoContent, wantTarget: "i9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RouterConfig{})
			rec := h.do(tt.method, tt.target, "Bearer good", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantKind != "" && h.interactions.kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", h.interactions.kind, tt.wantKind)
			}
			if h.interactions.target != tt.wantTarget {
				t.Errorf("target = %s, want %s", h.interactions.target, tt.wantTarget)
			}
		})
	}
}

func TestCreateInteraction_ConflictIsCounted(t *testing.T) {
	h := newHarness(RouterConfig{})
	h.interactions.err = fmt.Errorf("like c1: %w", domain.ErrConflict)
	counter := metrics.Interactions.WithLabelValues("like", "create", "conflict")
	before := testutil.ToFloat64(counter)

	rec := h.do(http.MethodPost, "/api/v1/content/c1/likes", "Bearer good", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("conflict counter delta = %v, want 1", got)
	}
}

func TestReport_ValidatesBody(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{name: "valid", body: `{"reason":"spam","description":"buy now"}`, wantStatus: http.StatusCreated},
		{name: "missing body", body: "", wantStatus: http.StatusBadRequest, wantField: "body"},
		{name: "malformed", body: `{"reason":`, wantStatus: http.StatusBadRequest, wantField: "body"},
		{name: "unknown field", body: `{"reason":"spam","severity":3}`, wantStatus: http.StatusBadRequest, wantField: "body"},
		{name: "unknown reason", body: `{"reason":"boring"}`, wantStatus: http.StatusBadRequest, wantField: "reason"},
		{name: "no reason", body: `{"description":"x"}`, wantStatus: http.StatusBadRequest, wantField: "reason"},
		{name: "description too long", body: `{"reason":"other","description":"` + strings.Repeat("x", 501) + `"}`, wantStatus: http.StatusBadRequest, wantField: "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RouterConfig{})
			rec := h.do(http.MethodPost, "/api/v1/content/c1/reports", "Bearer good", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantField != "" {
				if e := decodeError(t, rec); e.Field != tt.wantField {
					t.Errorf("field = %q, want %q", e.Field, tt.wantField)
				}
				return
			}
			if d := h.interactions.details; d == nil || d.Reason != domain.ReasonSpam || d.Description != "buy now" {
				t.Errorf("details = %+v", d)
			}
		})
	}
}

func TestCreateContent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{name: "post", body: `{"kind":"post","title":"Hello","body":"first"}`, wantStatus: http.StatusCreated},
		{name: "reel", body: `{"kind":"reel","title":"Jump","reel":{"video_url":"https://cdn/r.mp4"}}`, wantStatus: http.StatusCreated},
		{name: "unknown kind", body: `{"kind":"story","title":"x"}`, wantStatus: http.StatusBadRequest, wantField: "kind"},
		{name: "missing title", body: `{"kind":"post"}`, wantStatus: http.StatusBadRequest, wantField: "title"},
		{name: "bad banner", body: `{"kind":"post","title":"x","banner_url":"not a url"}`, wantStatus: http.StatusBadRequest, wantField: "banner_url"},
		{name: "reel without video", body: `{"kind":"reel","title":"x","reel":{}}`, wantStatus: http.StatusBadRequest, wantField: "video_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(RouterConfig{})
			rec := h.do(http.MethodPost, "/api/v1/content", "Bearer good", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantField != "" {
				if e := decodeError(t, rec); e.Field != tt.wantField {
					t.Errorf("field = %q, want %q", e.Field, tt.wantField)
				}
				return
			}
			var item itemResponse
			if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if item.AuthorID != "u1" || item.Kind != string(h.content.cmd.Kind) {
				t.Errorf("item = %+v", item)
			}
			if (h.content.cmd.Payload.Reel != nil) != (item.Kind == "reel") {
				t.Errorf("payload not mapped: %+v", h.content.cmd.Payload)
			}
		})
	}
}

func TestContentRoutes(t *testing.T) {
	h := newHarness(RouterConfig{})

	if rec := h.do(http.MethodGet, "/api/v1/content/c7", "", ""); rec.Code != http.StatusOK {
		t.Errorf("get: status = %d", rec.Code)
	}
	if rec := h.do(http.MethodDelete, "/api/v1/content/c7", "Bearer good", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d", rec.Code)
	}

	rec := h.do(http.MethodGet, "/api/v1/content/c7/state", "Bearer good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("state: status = %d", rec.Code)
	}
	var st stateResponse
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil || !st.Liked || st.Hidden {
		t.Errorf("state = %+v, err %v", st, err)
	}

	h.content.err = domain.ErrUnauthorized
	if rec := h.do(http.MethodDelete, "/api/v1/content/c7", "Bearer good", ""); rec.Code != http.StatusForbidden {
		t.Errorf("foreign delete: status = %d, want 403", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := newHarness(RouterConfig{RateLimit: 1, RateWindow: time.Minute})

	if rec := h.do(http.MethodGet, "/api/v1/feed", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", rec.Code)
	}
	rec := h.do(http.MethodGet, "/api/v1/feed", "", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", rec.Code)
	}
	if e := decodeError(t, rec); e.Error != "rate_limited" {
		t.Errorf("code = %q", e.Error)
	}

	// health checks are outside the limited group
	if rec := h.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz limited: status = %d", rec.Code)
	}
}

func TestCanceledRequestIsNotAnError(t *testing.T) {
	var buf strings.Builder
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, err := range []error{context.Canceled, fmt.Errorf("db: %w", domain.ErrCanceled)} {
		h := newHarness(RouterConfig{})
		h.feed.err = err
		rec := h.do(http.MethodGet, "/api/v1/feed", "", "")
		if rec.Code != statusClientClosedRequest {
			t.Errorf("%v: status = %d, want %d", err, rec.Code, statusClientClosedRequest)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("canceled requests were logged above debug: %q", buf.String())
	}
}

func TestCommentRoutes(t *testing.T) {
	t.Run("anonymous list passes paging through", func(t *testing.T) {
		h := newHarness(RouterConfig{})
		rec := h.do(http.MethodGet, "/api/v1/content/c1/comments?page=2&page_size=5", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
		}
		want := ports.CommentQuery{ContentID: "c1", Page: domain.PageRequest{Page: 2, PageSize: 5}}
		if h.comments.query != want || !h.comments.viewer.IsAnonymous() {
			t.Errorf("query = %+v viewer = %+v", h.comments.query, h.comments.viewer)
		}

		var body commentPageResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Items) != 1 || body.Items[0].Comment != "hi" || body.Page.TotalPages != 2 || body.Page.NextPageToken == "" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("create", func(t *testing.T) {
		h := newHarness(RouterConfig{})
		rec := h.do(http.MethodPost, "/api/v1/content/c1/comments", "Bearer good", `{"comment":"nice"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
		}
		if h.comments.contentID != "c1" || h.comments.text != "nice" || h.comments.viewer.UserID != "u1" {
			t.Errorf("service saw %+v", h.comments)
		}
		var body commentResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.ContentID != "c1" || body.AuthorID != "u1" || body.Comment != "nice" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("body is validated", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{name: "empty", body: `{"comment":""}`},
			{name: "too long", body: `{"comment":"` + strings.Repeat("x", 1001) + `"}`},
			{name: "unknown field", body: `{"comment":"hi","post":"c1"}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(RouterConfig{})
				rec := h.do(http.MethodPost, "/api/v1/content/c1/comments", "Bearer good", tt.body)
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("status = %d, want 400", rec.Code)
				}
				if h.comments.contentID != "" {
					t.Error("service was called with an invalid body")
				}
			})
		}
	})

	t.Run("delete by id", func(t *testing.T) {
		h := newHarness(RouterConfig{})
		rec := h.do(http.MethodDelete, "/api/v1/comments/m1", "Bearer good", "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
		}
		if h.comments.deleted != "m1" {
			t.Errorf("deleted = %q, want m1", h.comments.deleted)
		}
	})

	t.Run("foreign delete is forbidden", func(t *testing.T) {
		h := newHarness(RouterConfig{})
		h.comments.err = domain.ErrUnauthorized
		rec := h.do(http.MethodDelete, "/api/v1/comments/m1", "Bearer good", "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})
}
