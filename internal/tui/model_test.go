package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/querystate"
)

var testNow = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

type fakeController struct {
	state   querystate.State
	updates chan querystate.State
	calls   []string
	patches []querystate.FilterPatch
}

func newFakeController(state querystate.State) *fakeController {
	return &fakeController{state: state, updates: make(chan querystate.State, 1)}
}

func (f *fakeController) State() querystate.State             { return f.state }
func (f *fakeController) Updates() <-chan querystate.State    { return f.updates }
func (f *fakeController) SetText(text string)                 { f.calls = append(f.calls, "text:"+text) }
func (f *fakeController) GoToPage(page int)                   { f.calls = append(f.calls, fmt.Sprintf("page:%d", page)) }
func (f *fakeController) ToggleSort(column string)            { f.calls = append(f.calls, "sort:"+column) }
func (f *fakeController) ClearFilters()                       { f.calls = append(f.calls, "clear") }
func (f *fakeController) Refresh()                            { f.calls = append(f.calls, "refresh") }
func (f *fakeController) Delete(id int)                       { f.calls = append(f.calls, fmt.Sprintf("delete:%d", id)) }
func (f *fakeController) SetFilters(p querystate.FilterPatch) { f.patches = append(f.patches, p) }

func tickets(n int) []domain.Ticket {
	out := make([]domain.Ticket, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Ticket{
			ID:       i,
			Title:    fmt.Sprintf("Ticket %02d", i),
			Status:   domain.TicketStatusSubmitted,
			Priority: domain.TicketPriorityMedium,
			Created:  testNow.Add(-2 * time.Hour),
		})
	}
	return out
}

// loadedState runs the reducer through a completed search for raw.
func loadedState(t *testing.T, raw string, items []domain.Ticket, total int, options []domain.CategoryOption) querystate.State {
	t.Helper()
	r := querystate.Reducer{Location: time.UTC}
	state, effects := r.Init(querystate.ParseParams(raw))
	var key string
	for _, effect := range effects {
		if fetch, ok := effect.(querystate.FetchTickets); ok {
			key = fetch.Key
		}
	}
	require.NotEmpty(t, key)
	state, _ = r.Reduce(state, querystate.SearchCompleted{Key: key, Result: &domain.TicketSearchResult{Items: items, Total: total}})
	state, _ = r.Reduce(state, querystate.CategoriesLoaded{Options: options})
	return state
}

var categoryOptions = []domain.CategoryOption{
	{Key: 0, Text: "All"},
	{Key: 3, Text: "Hardware"},
	{Key: 5, Text: "Network"},
}

func press(t *testing.T, model Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := model.Update(k)
		model = next.(Model)
	}
	return model
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(ctrl Controller) Model {
	return NewModel(ctrl, Options{Now: func() time.Time { return testNow }})
}

func TestModelQuit(t *testing.T) {
	model := newTestModel(newFakeController(loadedState(t, "", nil, 0, categoryOptions)))

	_, cmd := model.Update(runes("q"))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestModelStatusCycle(t *testing.T) {
	ctrl := newFakeController(loadedState(t, "", tickets(3), 3, categoryOptions))
	press(t, newTestModel(ctrl), runes("s"))
	require.Len(t, ctrl.patches, 1)
	assert.Equal(t, domain.Some(domain.TicketStatusDraft), ctrl.patches[0].Status)

	ctrl = newFakeController(loadedState(t, "status=Closed", tickets(3), 3, categoryOptions))
	press(t, newTestModel(ctrl), runes("s"))
	require.Len(t, ctrl.patches, 1)
	assert.Equal(t, domain.Clear[domain.TicketStatus](), ctrl.patches[0].Status)
}

func TestModelCategoryCycle(t *testing.T) {
	ctrl := newFakeController(loadedState(t, "cat=3", tickets(1), 1, categoryOptions))
	press(t, newTestModel(ctrl), runes("c"))
	require.Len(t, ctrl.patches, 1)
	assert.Equal(t, domain.Some(5), ctrl.patches[0].CategoryID)

	placeholder := []domain.CategoryOption{{Key: 0, Text: "All (error loading)", Disabled: true}}
	ctrl = newFakeController(loadedState(t, "", tickets(1), 1, placeholder))
	model := press(t, newTestModel(ctrl), runes("c"))
	assert.Empty(t, ctrl.patches)
	assert.Contains(t, model.View(), "category: All (error loading)")
}

func TestModelSortAndPaging(t *testing.T) {
	ctrl := newFakeController(loadedState(t, "p=2&ps=10", tickets(10), 25, categoryOptions))
	press(t, newTestModel(ctrl),
		runes("1"), runes("3"),
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyLeft},
		runes("r"), runes("x"),
	)
	assert.Equal(t, []string{"sort:created", "sort:duedate", "page:3", "page:1", "refresh", "clear"}, ctrl.calls)

	ctrl = newFakeController(loadedState(t, "p=3&ps=10", tickets(5), 25, categoryOptions))
	press(t, newTestModel(ctrl), tea.KeyMsg{Type: tea.KeyRight})
	assert.Empty(t, ctrl.calls, "no page after the last")
}

func TestModelPageSizeCycle(t *testing.T) {
	ctrl := newFakeController(loadedState(t, "ps=100", tickets(1), 1, categoryOptions))
	press(t, newTestModel(ctrl), runes("z"))
	require.Len(t, ctrl.patches, 1)
	assert.Equal(t, domain.Some(10), ctrl.patches[0].PageSize)
}

func TestModelDeleteNeedsConfirmation(t *testing.T) {
	ctrl := newFakeController(loadedState(t, "", tickets(3), 3, categoryOptions))
	model := press(t, newTestModel(ctrl), tea.KeyMsg{Type: tea.KeyDown}, runes("d"))
	assert.Contains(t, model.View(), "Delete ticket #2?")

	model = press(t, model, runes("n"))
	assert.Empty(t, ctrl.calls)
	assert.NotContains(t, model.View(), "Delete ticket")

	press(t, model, runes("d"), runes("y"))
	assert.Equal(t, []string{"delete:2"}, ctrl.calls)
}

func TestModelSearchInput(t *testing.T) {
	ctrl := newFakeController(loadedState(t, "q=vpn", tickets(1), 1, categoryOptions))
	model := newTestModel(ctrl)
	assert.Equal(t, "vpn", model.search.Value())

	model = press(t, model, runes("/"), runes("s"), runes("q"))
	assert.Equal(t, []string{"text:vpns", "text:vpnsq"}, ctrl.calls, "q is typed, not quit")

	model = press(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, model.search.Focused())
}

func TestModelFollowsSessionState(t *testing.T) {
	ctrl := newFakeController(loadedState(t, "q=vpn", tickets(3), 3, categoryOptions))
	model := press(t, newTestModel(ctrl), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, model.cursor)

	next, cmd := model.Update(stateMsg{state: loadedState(t, "", tickets(1), 1, categoryOptions)})
	model = next.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, 0, model.cursor)
	assert.Equal(t, "", model.search.Value())
}

func TestModelView(t *testing.T) {
	items := tickets(2)
	due := testNow.Add(24 * time.Hour)
	items[0].DueDate = &due
	ctrl := newFakeController(loadedState(t, "status=Submitted&ps=10&utm=x", items, 12, categoryOptions))
	view := newTestModel(ctrl).View()

	assert.Contains(t, view, "Ticket 01")
	assert.Contains(t, view, "#2")
	assert.Contains(t, view, "2 hours ago")
	assert.Contains(t, view, "May 7")
	assert.Contains(t, view, "Page 1 of 2  12 tickets")
	assert.Contains(t, view, "status: Submitted")
	assert.Contains(t, view, "sort: Created ↓")
	assert.Contains(t, view, "/tickets?ob=Created&od=desc&p=1&ps=10&status=Submitted&utm=x")
}

func TestModelViewStates(t *testing.T) {
	capped := loadedState(t, "", tickets(1), 5000, categoryOptions)
	capped.TotalCapped = true
	assert.Contains(t, newTestModel(newFakeController(capped)).View(), "5,000+ tickets")

	failed := loadedState(t, "", nil, 0, categoryOptions)
	failed.Err = "error searching tickets: timeout"
	view := newTestModel(newFakeController(failed)).View()
	assert.Contains(t, view, "Error: error searching tickets: timeout")
	assert.Contains(t, view, "No tickets match.")
}

func TestPad(t *testing.T) {
	assert.Equal(t, "abc  ", pad("abc", 5))
	assert.Equal(t, "abcd… ", pad("abcdefgh", 6))
	assert.True(t, strings.HasSuffix(pad("x", 3), "  "))
}
