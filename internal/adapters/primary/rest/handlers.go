package rest

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/metrics"
)

// Handler adapts HTTP requests onto the driving ports. It holds no state of its own.
type Handler struct {
	feed         ports.FeedService
	interactions ports.InteractionService
	content      ports.ContentService
	comments     ports.CommentService
}

func NewHandler(feed ports.FeedService, interactions ports.InteractionService, content ports.ContentService, comments ports.CommentService) *Handler {
	return &Handler{feed: feed, interactions: interactions, content: content, comments: comments}
}

// --- LISTINGS ---

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := domain.ParseKind(q.Get("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageRequest(q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.feed.Home(r.Context(), ViewerFromContext(r.Context()), ports.HomeQuery{Kind: kind, Page: page})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(res))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := domain.ParseScope(q.Get("scope"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageRequest(q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cmd := ports.SearchCmd{Query: q.Get("q"), Scope: scope, Page: page}
	res, err := h.feed.Search(r.Context(), ViewerFromContext(r.Context()), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(res))
}

func (h *Handler) ByCreator(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := domain.ParseKind(q.Get("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageRequest(q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cq := ports.CreatorQuery{AuthorID: chi.URLParam(r, "id"), Kind: kind, Page: page}
	res, err := h.feed.ByCreator(r.Context(), ViewerFromContext(r.Context()), cq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(res))
}

// --- CONTENT ---

func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req createContentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cmd := ports.CreateContentCmd{
		Kind:      domain.Kind(req.Kind),
		Title:     req.Title,
		Body:      req.Body,
		BannerURL: req.BannerURL,
		Payload:   req.payload(),
	}
	item, err := h.content.Create(r.Context(), ViewerFromContext(r.Context()), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	item, err := h.content.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.content.Delete(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ContentState(w http.ResponseWriter, r *http.Request) {
	st, err := h.interactions.State(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Liked: st.Liked, Hidden: st.Hidden, Reported: st.Reported})
}

// --- INTERACTIONS ---

// CreateInteraction returns the POST handler for one interaction kind.
// The target id always comes from the {id} route parameter.
func (h *Handler) CreateInteraction(kind domain.InteractionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var details *domain.ReportDetails
		if kind == domain.InteractionReport {
			var req reportRequest
			if err := decodeBody(r, &req); err != nil {
				recordInteraction(kind, "create", err)
				writeError(w, r, err)
				return
			}
			details = &domain.ReportDetails{Reason: domain.ReportReason(req.Reason), Description: req.Description}
		}

		in, err := h.interactions.Create(r.Context(), ViewerFromContext(r.Context()), kind, chi.URLParam(r, "id"), details)
		recordInteraction(kind, "create", err)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toInteractionResponse(in))
	}
}

func (h *Handler) WithdrawInteraction(kind domain.InteractionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.interactions.Withdraw(r.Context(), ViewerFromContext(r.Context()), kind, chi.URLParam(r, "id"))
		recordInteraction(kind, "withdraw", err)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) DeleteInteraction(w http.ResponseWriter, r *http.Request) {
	err := h.interactions.DeleteRecord(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"))
	recordInteraction("record", "delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- COMMENTS ---

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := ports.CommentQuery{ContentID: chi.URLParam(r, "id"), Page: page}
	res, err := h.comments.List(r.Context(), ViewerFromContext(r.Context()), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentPageResponse(res))
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		recordInteraction(commentKind, "create", err)
		writeError(w, r, err)
		return
	}

	c, err := h.comments.Create(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"), req.Comment)
	recordInteraction(commentKind, "create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(c))
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.comments.Delete(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"))
	recordInteraction(commentKind, "delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- HELPERS ---

// commentKind labels comment writes in the interaction metrics.
const commentKind domain.InteractionKind = "comment"

func recordInteraction(kind domain.InteractionKind, op string, err error) {
	result := "ok"
	if err != nil {
		result = mapDomainError(err).code
	}
	metrics.RecordInteraction(string(kind), op, result)
}

// pageRequest reads page, page_size and page_token. Range checks are the
// core's job; here we only reject values that are not integers.
func pageRequest(q url.Values) (domain.PageRequest, error) {
	var req domain.PageRequest
	var err error
	if req.Page, err = intParam(q, "page"); err != nil {
		return req, err
	}
	if req.PageSize, err = intParam(q, "page_size"); err != nil {
		return req, err
	}
	req.Token = q.Get("page_token")
	return req, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return n, nil
}
