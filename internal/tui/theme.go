package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Theme is the color palette of the ticket list. Colors are ANSI 256
// codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	ErrorText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color

	DueSoon    lipgloss.Color
	DueOverdue lipgloss.Color

	// PriorityColors is indexed like domain.TicketPriorities.
	PriorityColors [4]lipgloss.Color
}

// DefaultTheme suits dark terminals.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	ErrorText:          lipgloss.Color("203"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("231"),
	HeaderForeground:   lipgloss.Color("75"),
	BorderColor:        lipgloss.Color("240"),
	DueSoon:            lipgloss.Color("214"),
	DueOverdue:         lipgloss.Color("196"),
	PriorityColors:     [4]lipgloss.Color{"244", "250", "214", "196"},
}

// PriorityColor returns NormalText for unknown priorities.
func (t Theme) PriorityColor(p domain.TicketPriority) lipgloss.Color {
	for i, candidate := range domain.TicketPriorities {
		if candidate == p && i < len(t.PriorityColors) {
			return t.PriorityColors[i]
		}
	}
	return t.NormalText
}

// DueColor colors a due date by how close it is.
func (t Theme) DueColor(state domain.DueState) lipgloss.Color {
	switch state {
	case domain.DueStateOverdue:
		return t.DueOverdue
	case domain.DueStateSoon:
		return t.DueSoon
	default:
		return t.NormalText
	}
}
