// Package tui is a terminal ticket list. It renders the state of a query
// session and turns key presses into session operations; the session
// owns fetching, debouncing and URL parameters.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/querystate"
)

// Controller is the part of querystate.Session the list drives.
type Controller interface {
	State() querystate.State
	Updates() <-chan querystate.State
	SetText(text string)
	SetFilters(patch querystate.FilterPatch)
	GoToPage(page int)
	ToggleSort(column string)
	ClearFilters()
	Refresh()
	Delete(id int)
}

// stateMsg carries a session state into the bubbletea loop.
type stateMsg struct {
	state querystate.State
}

// Options configure a Model.
type Options struct {
	// BasePath prefixes the shareable URL in the footer.
	BasePath string
	// Location defines calendar days of the date filters.
	Location *time.Location
	Now      func() time.Time
	Theme    *Theme
	Keys     *KeyMap
}

// Model is the bubbletea model of the ticket list.
type Model struct {
	ctrl  Controller
	theme Theme
	keys  KeyMap
	now   func() time.Time
	base  string
	loc   *time.Location

	state  querystate.State
	search textinput.Model
	cursor int

	// confirmID is the ticket awaiting delete confirmation.
	confirmID int

	width  int
	height int
}

// NewModel builds the list over ctrl.
func NewModel(ctrl Controller, opts Options) Model {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "title or description"
	search.CharLimit = 200

	model := Model{
		ctrl:   ctrl,
		theme:  DefaultTheme,
		keys:   DefaultKeyMap,
		now:    opts.Now,
		base:   opts.BasePath,
		loc:    opts.Location,
		search: search,
		width:  100,
		height: 30,
	}
	if opts.Theme != nil {
		model.theme = *opts.Theme
	}
	if opts.Keys != nil {
		model.keys = *opts.Keys
	}
	if model.now == nil {
		model.now = time.Now
	}
	if model.base == "" {
		model.base = "/tickets"
	}
	model.applyState(ctrl.State())
	return model
}

// Init starts listening for session updates.
func (model Model) Init() tea.Cmd {
	return listenForState(model.ctrl.Updates())
}

// listenForState blocks until the session publishes a state.
func listenForState(updates <-chan querystate.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return nil
		}
		return stateMsg{state: state}
	}
}

// Update handles a message.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case stateMsg:
		model.applyState(message.state)
		return model, listenForState(model.ctrl.Updates())

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		return model, nil

	case tea.KeyMsg:
		if model.search.Focused() {
			return model.handleSearchKey(message)
		}
		return model.handleKey(message)
	}
	return model, nil
}

func (model *Model) applyState(state querystate.State) {
	model.state = state
	if !model.search.Focused() {
		model.search.SetValue(state.TextDraft)
	}
	if model.cursor >= len(state.Items) {
		model.cursor = len(state.Items) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
}

func (model Model) handleSearchKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Blur) {
		model.search.Blur()
		return model, nil
	}
	before := model.search.Value()
	var cmd tea.Cmd
	model.search, cmd = model.search.Update(message)
	if value := model.search.Value(); value != before {
		model.ctrl.SetText(value)
	}
	return model, cmd
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.confirmID != 0 {
		id := model.confirmID
		model.confirmID = 0
		if key.Matches(message, model.keys.Confirm) {
			model.ctrl.Delete(id)
		}
		return model, nil
	}

	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Search):
		return model, model.search.Focus()
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}
	case key.Matches(message, model.keys.Down):
		if model.cursor < len(model.state.Items)-1 {
			model.cursor++
		}
	case key.Matches(message, model.keys.PrevPage):
		if model.state.CanPrev() {
			model.ctrl.GoToPage(model.state.Page() - 1)
		}
	case key.Matches(message, model.keys.NextPage):
		if model.state.CanNext() {
			model.ctrl.GoToPage(model.state.Page() + 1)
		}
	case key.Matches(message, model.keys.Status):
		model.ctrl.SetFilters(querystate.FilterPatch{Status: cycle(domain.TicketStatuses, model.state.Query.Status)})
	case key.Matches(message, model.keys.Priority):
		model.ctrl.SetFilters(querystate.FilterPatch{Priority: cycle(domain.TicketPriorities, model.state.Query.Priority)})
	case key.Matches(message, model.keys.Category):
		if patch, ok := model.nextCategory(); ok {
			model.ctrl.SetFilters(patch)
		}
	case key.Matches(message, model.keys.PageSize):
		model.ctrl.SetFilters(querystate.FilterPatch{PageSize: nextPageSize(model.state.Query.PageSize)})
	case key.Matches(message, model.keys.SortCreated):
		model.ctrl.ToggleSort("created")
	case key.Matches(message, model.keys.SortModified):
		model.ctrl.ToggleSort("modified")
	case key.Matches(message, model.keys.SortDueDate):
		model.ctrl.ToggleSort("duedate")
	case key.Matches(message, model.keys.Refresh):
		model.ctrl.Refresh()
	case key.Matches(message, model.keys.Clear):
		model.ctrl.ClearFilters()
	case key.Matches(message, model.keys.Delete):
		if ticket, ok := model.selected(); ok && model.state.Deleting == 0 {
			model.confirmID = ticket.ID
		}
	}
	return model, nil
}

func (model Model) selected() (domain.Ticket, bool) {
	if model.cursor < 0 || model.cursor >= len(model.state.Items) {
		return domain.Ticket{}, false
	}
	return model.state.Items[model.cursor], true
}

// cycle steps through values after current; past the last value the
// filter is removed.
func cycle[T comparable](values []T, current T) domain.Optional[T] {
	var zero T
	if current == zero {
		return domain.Some(values[0])
	}
	for i, v := range values {
		if v == current && i+1 < len(values) {
			return domain.Some(values[i+1])
		}
	}
	return domain.Clear[T]()
}

// nextCategory steps through the enabled category options. ok is false
// while options are loading or when only the placeholder is available.
func (model Model) nextCategory() (querystate.FilterPatch, bool) {
	var keys []int
	for _, option := range model.state.Categories {
		if !option.Disabled && option.Key != 0 {
			keys = append(keys, option.Key)
		}
	}
	if len(keys) == 0 {
		return querystate.FilterPatch{}, false
	}
	current := 0
	if model.state.Query.CategoryID != nil {
		current = *model.state.Query.CategoryID
	}
	return querystate.FilterPatch{CategoryID: cycle(keys, current)}, true
}

func nextPageSize(current int) domain.Optional[int] {
	sizes := domain.AllowedPageSizes
	for i, size := range sizes {
		if size == current {
			return domain.Some(sizes[(i+1)%len(sizes)])
		}
	}
	return domain.Some(domain.DefaultPageSize)
}
