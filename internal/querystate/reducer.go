package querystate

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/paging"
)

// State is everything a ticket list view renders.
type State struct {
	Params Params
	Query  domain.TicketQuery
	// TextDraft is the search box content, ahead of the committed q
	// parameter while a debounce is pending.
	TextDraft string

	Items       []domain.Ticket
	Total       int
	TotalCapped bool
	Loading     bool
	Err         string

	Categories        []domain.CategoryOption
	CategoriesLoading bool
	Deleting          int

	searchKey string
}

// TotalPages is derived from the approximate total.
func (s State) TotalPages() int {
	return paging.TotalPages(s.Total, s.Query.PageSize)
}

// Page is the requested page clamped to the known page count.
func (s State) Page() int {
	return paging.ClampPage(s.Query.Page, s.TotalPages())
}

func (s State) CanPrev() bool { return s.Page() > 1 }
func (s State) CanNext() bool { return s.Page() < s.TotalPages() }

// Event is an input to the reducer.
type Event interface{ isEvent() }

type (
	// Navigated replaces the parameters, as when following a link.
	Navigated struct{ Params Params }
	// TextEdited updates the search box; the commit is debounced.
	TextEdited struct{ Text string }
	// TextCommitted is delivered once typing has paused.
	TextCommitted struct{ Text string }
	FiltersChanged   struct{ Patch FilterPatch }
	PageRequested    struct{ Page int }
	SortRequested    struct{ Column string }
	RefreshRequested struct{ At time.Time }
	FiltersCleared   struct{}
	DeleteRequested  struct{ ID int }

	SearchCompleted struct {
		Key    string
		Result *domain.TicketSearchResult
		Err    error
	}
	DeleteCompleted struct {
		ID  int
		Err error
		At  time.Time
	}
	CategoriesLoaded struct{ Options []domain.CategoryOption }
)

func (Navigated) isEvent()        {}
func (TextEdited) isEvent()       {}
func (TextCommitted) isEvent()    {}
func (FiltersChanged) isEvent()   {}
func (PageRequested) isEvent()    {}
func (SortRequested) isEvent()    {}
func (RefreshRequested) isEvent() {}
func (FiltersCleared) isEvent()   {}
func (DeleteRequested) isEvent()  {}
func (SearchCompleted) isEvent()  {}
func (DeleteCompleted) isEvent()  {}
func (CategoriesLoaded) isEvent() {}

// Effect is work the reducer asks its runner to perform.
type Effect interface{ isEffect() }

type (
	FetchTickets struct {
		Key   string
		Query domain.TicketQuery
	}
	ScheduleTextCommit struct{ Text string }
	CancelTextCommit   struct{}
	DeleteTicket       struct{ ID int }
	LoadCategories     struct{}
)

func (FetchTickets) isEffect()       {}
func (ScheduleTextCommit) isEffect() {}
func (CancelTextCommit) isEffect()   {}
func (DeleteTicket) isEffect()       {}
func (LoadCategories) isEffect()     {}

// Reducer folds events into State. It performs no I/O.
type Reducer struct {
	Location *time.Location
}

// Init builds the first state from the initial parameters.
func (r Reducer) Init(p Params) (State, []Effect) {
	s := State{CategoriesLoading: true}
	s, effects := r.apply(s, p, true)
	return s, append([]Effect{LoadCategories{}}, effects...)
}

// Reduce applies ev.
func (r Reducer) Reduce(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Navigated:
		s, effects := r.apply(s, e.Params, true)
		return s, append([]Effect{CancelTextCommit{}}, effects...)
	case FiltersCleared:
		s, effects := r.apply(s, Cleared(), true)
		return s, append([]Effect{CancelTextCommit{}}, effects...)
	case TextEdited:
		s.TextDraft = e.Text
		return s, []Effect{ScheduleTextCommit{Text: e.Text}}
	case TextCommitted:
		if strings.TrimSpace(e.Text) == s.Params.Get(KeyText) {
			return s, nil
		}
		return r.apply(s, WithText(s.Params, e.Text), false)
	case FiltersChanged:
		return r.apply(s, WithFilters(s.Params, e.Patch), false)
	case PageRequested:
		return r.apply(s, WithPage(s.Params, e.Page), false)
	case SortRequested:
		next, changed := WithSort(s.Params, e.Column)
		if !changed {
			return s, nil
		}
		return r.apply(s, next, false)
	case RefreshRequested:
		return r.apply(s, Touched(s.Params, e.At), false)
	case DeleteRequested:
		s.Deleting = e.ID
		return s, []Effect{DeleteTicket{ID: e.ID}}
	case DeleteCompleted:
		s.Deleting = 0
		if e.Err != nil {
			s.Err = e.Err.Error()
			return s, nil
		}
		return r.apply(s, Touched(s.Params, e.At), false)
	case SearchCompleted:
		return r.searchCompleted(s, e)
	case CategoriesLoaded:
		s.Categories = e.Options
		s.CategoriesLoading = false
		return s, nil
	default:
		return s, nil
	}
}

// apply moves to new parameters and fetches when the query key changed.
// syncDraft copies the committed text into the search box.
func (r Reducer) apply(s State, p Params, syncDraft bool) (State, []Effect) {
	s.Params = p
	s.Query = Decode(p, r.Location)
	if syncDraft {
		s.TextDraft = p.Get(KeyText)
	}
	key := r.queryKey(p)
	if key == s.searchKey {
		return s, nil
	}
	s.searchKey = key
	s.Loading = true
	s.Err = ""
	return s, []Effect{FetchTickets{Key: key, Query: s.Query}}
}

// queryKey identifies a fetch: the canonical query plus the refresh touch.
// Unknown parameters do not take part.
func (r Reducer) queryKey(p Params) string {
	key := Encode(Decode(p, r.Location), Params{})
	return key.With(KeyRefresh, p.Get(KeyRefresh)).Encode()
}

func (r Reducer) searchCompleted(s State, e SearchCompleted) (State, []Effect) {
	if e.Key != s.searchKey {
		return s, nil
	}
	s.Loading = false
	if e.Err != nil {
		s.Err = e.Err.Error()
		s.Items = []domain.Ticket{}
		s.Total = 0
		s.TotalCapped = false
		return s, nil
	}
	s.Err = ""
	s.Items = e.Result.Items
	s.Total = e.Result.Total
	s.TotalCapped = e.Result.TotalCapped

	if pages := s.TotalPages(); s.Query.Page > pages {
		return r.apply(s, WithPage(s.Params, pages), false)
	}
	return s, nil
}
