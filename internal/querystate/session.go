package querystate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketSource runs searches and deletions for a session.
type TicketSource interface {
	Search(ctx context.Context, q domain.TicketQuery) (*domain.TicketSearchResult, error)
	Remove(ctx context.Context, id int) error
}

// CategorySource lists category picker options. It never fails; a failed
// load is reported as a placeholder option.
type CategorySource interface {
	Options(ctx context.Context) []domain.CategoryOption
}

// SessionConfig wires a Session.
type SessionConfig struct {
	Tickets    TicketSource
	Categories CategorySource
	Clock      clockwork.Clock
	Debounce   time.Duration
	Location   *time.Location
	Logger     *zap.Logger
}

// Session drives one ticket list view. A single goroutine owns the state
// and applies events in order; searches and deletions run on their own
// goroutines and report back as events. Results of superseded searches
// are dropped.
type Session struct {
	cfg       SessionConfig
	reducer   Reducer
	events    chan Event
	updates   chan State
	debouncer *Debouncer[string]

	mu      sync.RWMutex
	current State

	started  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewSession builds a session; call Start to run it.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Session{
		cfg:     cfg,
		reducer: Reducer{Location: cfg.Location},
		events:  make(chan Event, 64),
		updates: make(chan State, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.debouncer = NewDebouncer(cfg.Clock, cfg.Debounce, func(text string) {
		s.send(TextCommitted{Text: text})
	})
	return s
}

// Start runs the event loop until ctx is cancelled or Close is called.
// Only the first call has an effect.
func (s *Session) Start(ctx context.Context, initial Params) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	state, effects := s.reducer.Init(initial)
	s.publish(state)
	go s.run(ctx, state, effects)
}

// Close stops the loop and waits for it to exit.
func (s *Session) Close() {
	s.halt()
	if s.started.Load() {
		<-s.done
	}
}

func (s *Session) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Updates delivers the latest state after every event. Intermediate
// states may be skipped by a slow reader.
func (s *Session) Updates() <-chan State {
	return s.updates
}

// State returns the latest state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dispatch queues an event. Events dispatched before Start are buffered;
// once the buffer is full Dispatch waits for Start or Close.
func (s *Session) Dispatch(ev Event) {
	s.send(ev)
}

func (s *Session) SetText(text string)         { s.Dispatch(TextEdited{Text: text}) }
func (s *Session) SetFilters(patch FilterPatch) { s.Dispatch(FiltersChanged{Patch: patch}) }
func (s *Session) GoToPage(page int)            { s.Dispatch(PageRequested{Page: page}) }
func (s *Session) ToggleSort(column string)     { s.Dispatch(SortRequested{Column: column}) }
func (s *Session) ClearFilters()                { s.Dispatch(FiltersCleared{}) }
func (s *Session) Navigate(p Params)            { s.Dispatch(Navigated{Params: p}) }
func (s *Session) Delete(id int)                { s.Dispatch(DeleteRequested{ID: id}) }

// Refresh re-runs the current query.
func (s *Session) Refresh() {
	s.Dispatch(RefreshRequested{At: s.cfg.Clock.Now()})
}

func (s *Session) send(ev Event) {
	select {
	case s.events <- ev:
	case <-s.stop:
	}
}

func (s *Session) run(parent context.Context, state State, effects []Effect) {
	ctx, cancel := context.WithCancel(parent)
	defer close(s.done)
	defer s.halt()
	defer cancel()
	defer s.debouncer.Stop()

	s.execute(ctx, effects)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case ev := <-s.events:
			if done, ok := ev.(SearchCompleted); ok && done.Key != state.searchKey {
				s.cfg.Logger.Debug("discarding superseded search result", zap.String("key", done.Key))
			}
			state, effects = s.reducer.Reduce(state, ev)
			s.publish(state)
			s.execute(ctx, effects)
		}
	}
}

// publish replaces any unread update with state.
func (s *Session) publish(state State) {
	s.mu.Lock()
	s.current = state
	s.mu.Unlock()

	select {
	case s.updates <- state:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- state:
		default:
		}
	}
}

func (s *Session) execute(ctx context.Context, effects []Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case FetchTickets:
			s.cfg.Logger.Debug("searching tickets", zap.String("key", e.Key))
			go func() {
				result, err := s.cfg.Tickets.Search(ctx, e.Query)
				s.send(SearchCompleted{Key: e.Key, Result: result, Err: err})
			}()
		case ScheduleTextCommit:
			s.debouncer.Push(e.Text)
		case CancelTextCommit:
			s.debouncer.Cancel()
		case DeleteTicket:
			go func() {
				err := s.cfg.Tickets.Remove(ctx, e.ID)
				s.send(DeleteCompleted{ID: e.ID, Err: err, At: s.cfg.Clock.Now()})
			}()
		case LoadCategories:
			go func() {
				var options []domain.CategoryOption
				if s.cfg.Categories != nil {
					options = s.cfg.Categories.Options(ctx)
				}
				s.send(CategoriesLoaded{Options: options})
			}()
		}
	}
}
