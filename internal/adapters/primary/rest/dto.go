package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

const maxBodyBytes = 64 << 10

// --- REQUESTS ---

type videoLinkBody struct {
	VideoID         string `json:"video_id" validate:"required"`
	VideoTitle      string `json:"video_title,omitempty"`
	Description     string `json:"description,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	ChannelTitle    string `json:"channel_title,omitempty"`
	ChannelImageURL string `json:"channel_image_url,omitempty" validate:"omitempty,url"`
}

type mediaBody struct {
	VideoURL     string `json:"video_url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	Description  string `json:"description,omitempty"`
}

type createContentRequest struct {
	Kind      string         `json:"kind" validate:"required,oneof=post linked_video uploaded_video reel"`
	Title     string         `json:"title" validate:"required"`
	Body      string         `json:"body"`
	BannerURL string         `json:"banner_url" validate:"omitempty,url"`
	VideoLink *videoLinkBody `json:"video_link"`
	Upload    *mediaBody     `json:"upload"`
	Reel      *mediaBody     `json:"reel"`
}

func (req createContentRequest) payload() domain.Payload {
	var p domain.Payload
	if req.VideoLink != nil {
		v := domain.VideoLink(*req.VideoLink)
		p.VideoLink = &v
	}
	if req.Upload != nil {
		u := domain.Upload(*req.Upload)
		p.Upload = &u
	}
	if req.Reel != nil {
		r := domain.Reel(*req.Reel)
		p.Reel = &r
	}
	return p
}

type reportRequest struct {
	Reason      string `json:"reason" validate:"required,oneof=spam harassment inappropriate misinformation other"`
	Description string `json:"description" validate:"max=500"`
}

type commentRequest struct {
	Comment string `json:"comment" validate:"required,max=1000"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator reports fields by their JSON names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// decodeBody reads a bounded JSON body and validates it. Every failure is a
// domain validation error so the caller can hand it to writeError unchanged.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("body", "required")
		}
		return domain.Invalid("body", "malformed JSON")
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.Invalid("body", err.Error())
	}
	fe := fieldErrs[0]
	return domain.Invalid(fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "failed on " + fe.Tag()
}

// --- RESPONSES ---

type itemResponse struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	Title          string         `json:"title"`
	Body           string         `json:"body,omitempty"`
	BannerURL      string         `json:"banner_url,omitempty"`
	AuthorID       string         `json:"author_id"`
	AuthorUsername string         `json:"author_username,omitempty"`
	VideoLink      *videoLinkBody `json:"video_link,omitempty"`
	Upload         *mediaBody     `json:"upload,omitempty"`
	Reel           *mediaBody     `json:"reel,omitempty"`
	ViewCount      *int64         `json:"view_count,omitempty"`
	LikeCount      *int64         `json:"like_count,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func toItemResponse(item *domain.ContentItem) itemResponse {
	out := itemResponse{
		ID:             item.ID,
		Kind:           string(item.Kind),
		Title:          item.Title,
		Body:           item.Body,
		BannerURL:      item.BannerURL,
		AuthorID:       item.AuthorID,
		AuthorUsername: item.AuthorUsername,
		CreatedAt:      item.CreatedAt,
	}
	if v := item.Payload.VideoLink; v != nil {
		b := videoLinkBody(*v)
		out.VideoLink = &b
	}
	if u := item.Payload.Upload; u != nil {
		b := mediaBody(*u)
		out.Upload = &b
	}
	if r := item.Payload.Reel; r != nil {
		b := mediaBody(*r)
		out.Reel = &b
	}
	if e := item.Engagement; e != nil {
		views, likes := e.ViewCount, e.LikeCount
		out.ViewCount, out.LikeCount = &views, &likes
	}
	return out
}

type pageMetaResponse struct {
	TotalCount        int    `json:"total_count"`
	CurrentPage       int    `json:"current_page"`
	TotalPages        int    `json:"total_pages"`
	PageSize          int    `json:"page_size"`
	NextPageToken     string `json:"next_page_token,omitempty"`
	PreviousPageToken string `json:"previous_page_token,omitempty"`
}

type pageResponse struct {
	Items []itemResponse   `json:"items"`
	Page  pageMetaResponse `json:"page"`
}

func toPageResponse(p *domain.FeedPage) pageResponse {
	items := make([]itemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, toItemResponse(it))
	}
	return pageResponse{Items: items, Page: toPageMetaResponse(p.Meta)}
}

func toPageMetaResponse(m domain.PageMeta) pageMetaResponse {
	return pageMetaResponse{
		TotalCount:        m.TotalCount,
		CurrentPage:       m.CurrentPage,
		TotalPages:        m.TotalPages,
		PageSize:          m.PageSize,
		NextPageToken:     m.NextToken,
		PreviousPageToken: m.PreviousToken,
	}
}

type interactionResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	TargetType  string    `json:"target_type"`
	TargetID    string    `json:"target_id"`
	Reason      string    `json:"reason,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toInteractionResponse(in *domain.Interaction) interactionResponse {
	out := interactionResponse{
		ID:         in.ID,
		Kind:       string(in.Kind),
		TargetType: string(in.Target.Type),
		TargetID:   in.Target.ID,
		CreatedAt:  in.CreatedAt,
	}
	if in.Report != nil {
		out.Reason = string(in.Report.Reason)
		out.Description = in.Report.Description
	}
	return out
}

type stateResponse struct {
	Liked    bool `json:"liked"`
	Hidden   bool `json:"hidden"`
	Reported bool `json:"reported"`
}

type commentResponse struct {
	ID             string    `json:"id"`
	ContentID      string    `json:"content_id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username,omitempty"`
	Comment        string    `json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
}

func toCommentResponse(c *domain.Comment) commentResponse {
	return commentResponse{
		ID:             c.ID,
		ContentID:      c.ContentID,
		AuthorID:       c.AuthorID,
		AuthorUsername: c.AuthorUsername,
		Comment:        c.Text,
		CreatedAt:      c.CreatedAt,
	}
}

type commentPageResponse struct {
	Items []commentResponse `json:"items"`
	Page  pageMetaResponse  `json:"page"`
}

func toCommentPageResponse(p *domain.CommentPage) commentPageResponse {
	items := make([]commentResponse, 0, len(p.Items))
	for _, c := range p.Items {
		items = append(items, toCommentResponse(c))
	}
	return commentPageResponse{Items: items, Page: toPageMetaResponse(p.Meta)}
}
