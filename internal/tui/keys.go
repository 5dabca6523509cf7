package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the ticket list key bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding

	Search   key.Binding
	Blur     key.Binding
	Status   key.Binding
	Priority key.Binding
	Category key.Binding
	PageSize key.Binding

	SortCreated  key.Binding
	SortModified key.Binding
	SortDueDate  key.Binding

	Refresh key.Binding
	Clear   key.Binding
	Delete  key.Binding
	Confirm key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("h", "left", "pgup"),
		key.WithHelp("h/←", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("l", "right", "pgdown"),
		key.WithHelp("l/→", "next page"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Blur: key.NewBinding(
		key.WithKeys("esc", "enter"),
		key.WithHelp("Esc", "leave search"),
	),
	Status: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "status"),
	),
	Priority: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "priority"),
	),
	Category: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "category"),
	),
	PageSize: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "page size"),
	),
	SortCreated: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "sort created"),
	),
	SortModified: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "sort modified"),
	),
	SortDueDate: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "sort due"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Clear: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear filters"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// helpBindings is the order of the help line.
func (k KeyMap) helpBindings() []key.Binding {
	return []key.Binding{
		k.Search, k.Status, k.Priority, k.Category, k.PageSize,
		k.SortCreated, k.SortModified, k.SortDueDate,
		k.PrevPage, k.NextPage, k.Refresh, k.Clear, k.Delete, k.Quit,
	}
}
