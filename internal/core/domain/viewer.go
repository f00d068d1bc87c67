package domain

// ViewerContext is built per request and passed explicitly through the core.
// It is never cached: a hide or a block must be visible on the next request.
type ViewerContext struct {
	UserID   string
	Username string
}

// Anonymous is the zero viewer.
var Anonymous = ViewerContext{}

func (v ViewerContext) IsAnonymous() bool {
	return v.UserID == ""
}

// Exclusions is computed once per request by the visibility filter and
// threaded through every listing path.
type Exclusions struct {
	Hidden         map[string]struct{}
	Reported       map[string]struct{}
	BlockedAuthors map[string]struct{}
}

func NewExclusions() Exclusions {
	return Exclusions{
		Hidden:         map[string]struct{}{},
		Reported:       map[string]struct{}{},
		BlockedAuthors: map[string]struct{}{},
	}
}

func (e Exclusions) IsEmpty() bool {
	return len(e.Hidden) == 0 && len(e.Reported) == 0 && len(e.BlockedAuthors) == 0
}

// Excludes reports whether the item must be omitted from a listing.
func (e Exclusions) Excludes(item *ContentItem) bool {
	if _, ok := e.Hidden[item.ID]; ok {
		return true
	}
	if _, ok := e.Reported[item.ID]; ok {
		return true
	}
	_, blocked := e.BlockedAuthors[item.AuthorID]
	return blocked
}

// ContentIDs merges hidden and reported ids, the shape the store filters on.
func (e Exclusions) ContentIDs() []string {
	ids := make([]string, 0, len(e.Hidden)+len(e.Reported))
	for id := range e.Hidden {
		ids = append(ids, id)
	}
	for id := range e.Reported {
		if _, dup := e.Hidden[id]; dup {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (e Exclusions) AuthorIDs() []string {
	ids := make([]string, 0, len(e.BlockedAuthors))
	for id := range e.BlockedAuthors {
		ids = append(ids, id)
	}
	return ids
}
