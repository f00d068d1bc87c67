package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type InteractionKind string

const (
	InteractionLike   InteractionKind = "like"
	InteractionHide   InteractionKind = "hide"
	InteractionReport InteractionKind = "report"
	InteractionFollow InteractionKind = "follow"
	InteractionBlock  InteractionKind = "block"
)

type TargetType string

const (
	TargetContent TargetType = "content"
	TargetUser    TargetType = "user"
)

// TargetType tells which kind of id the interaction points at:
// like/hide/report point at content, follow/block at users.
func (k InteractionKind) TargetType() TargetType {
	switch k {
	case InteractionFollow, InteractionBlock:
		return TargetUser
	default:
		return TargetContent
	}
}

func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionLike, InteractionHide, InteractionReport, InteractionFollow, InteractionBlock:
		return true
	}
	return false
}

// Target is the single canonical shape used to address an interaction target.
type Target struct {
	Type TargetType
	ID   string
}

type ReportReason string

const (
	ReasonSpam           ReportReason = "spam"
	ReasonHarassment     ReportReason = "harassment"
	ReasonInappropriate  ReportReason = "inappropriate"
	ReasonMisinformation ReportReason = "misinformation"
	ReasonOther          ReportReason = "other"
)

const MaxReportDescriptionLength = 500

type ReportDetails struct {
	Reason      ReportReason
	Description string
}

func (d ReportDetails) validate() error {
	switch d.Reason {
	case ReasonSpam, ReasonHarassment, ReasonInappropriate, ReasonMisinformation, ReasonOther:
	default:
		return Invalid("reason", "unknown report reason")
	}
	if utf8.RuneCountInString(d.Description) > MaxReportDescriptionLength {
		return Invalid("description", "too long")
	}
	return nil
}

// Interaction is one row of the append-only ledger.
type Interaction struct {
	ID        string
	ActorID   string
	Kind      InteractionKind
	Target    Target
	Report    *ReportDetails
	CreatedAt time.Time
}

// NewInteraction checks the invariants that do not need the store.
// Uniqueness of (actor, kind, target) is the store's job.
func NewInteraction(actorID string, kind InteractionKind, targetID string, report *ReportDetails) (*Interaction, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	if !kind.Valid() {
		return nil, Invalid("kind", "unknown interaction kind")
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, Invalid("target", "required")
	}

	t := Target{Type: kind.TargetType(), ID: targetID}
	if t.Type == TargetUser && targetID == actorID {
		return nil, Invalid("target", "cannot "+string(kind)+" yourself")
	}

	if kind == InteractionReport {
		if report == nil {
			return nil, Invalid("reason", "required")
		}
		r := *report
		r.Description = strings.TrimSpace(r.Description)
		if err := r.validate(); err != nil {
			return nil, err
		}
		report = &r
	} else {
		report = nil
	}

	return &Interaction{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Kind:      kind,
		Target:    t,
		Report:    report,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// InteractionState is what a viewer has done to one content item.
type InteractionState struct {
	Liked    bool
	Hidden   bool
	Reported bool
}
