package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/querystate"
)

// Fixed column widths; the title takes what is left.
const (
	columnNumber   = 12
	columnStatus   = 16
	columnPriority = 8
	columnDue      = 12
	columnCreated  = 15
	minTitleWidth  = 12
)

// View renders the list.
func (model Model) View() string {
	var b strings.Builder
	header := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	b.WriteString(header.Render("Helpdesk tickets"))
	b.WriteString("  ")
	b.WriteString(model.search.View())
	b.WriteString("\n")
	b.WriteString(faint.Render(model.filterLine()))
	b.WriteString("\n\n")

	b.WriteString(header.Render(model.headerRow()))
	b.WriteString("\n")
	if len(model.state.Items) == 0 && !model.state.Loading {
		b.WriteString(faint.Render("  No tickets match."))
		b.WriteString("\n")
	}
	for i, ticket := range model.state.Items {
		b.WriteString(model.renderRow(ticket, i == model.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(model.statusLine())
	b.WriteString("\n")
	b.WriteString(faint.Render(model.ShareURL()))
	b.WriteString("\n")
	b.WriteString(faint.Render(model.helpLine()))
	return b.String()
}

// ShareURL is the deep link of the current view in canonical form.
func (model Model) ShareURL() string {
	return model.base + "?" + querystate.Canonical(model.state.Params, model.loc).Encode()
}

func (model Model) filterLine() string {
	q := model.state.Query
	status, priority := "any", "any"
	if q.Status != "" {
		status = string(q.Status)
	}
	if q.Priority != "" {
		priority = string(q.Priority)
	}
	arrow := "↓"
	if q.OrderDir == domain.OrderAsc {
		arrow = "↑"
	}
	parts := []string{
		"status: " + status,
		"priority: " + priority,
		"category: " + model.categoryLabel(),
		fmt.Sprintf("sort: %s %s", q.OrderBy, arrow),
		fmt.Sprintf("page size: %d", q.PageSize),
	}
	if q.DateFrom != nil || q.DateTo != nil {
		parts = append(parts, "created: "+dayOrDots(q.DateFrom)+" to "+dayOrDots(q.DateTo))
	}
	return strings.Join(parts, "  ")
}

func dayOrDots(day *time.Time) string {
	if day == nil {
		return "…"
	}
	return day.Format("Jan 2 2006")
}

// categoryLabel names the active category from the loaded options.
func (model Model) categoryLabel() string {
	if model.state.CategoriesLoading {
		return "loading…"
	}
	if model.state.Query.CategoryID == nil {
		for _, option := range model.state.Categories {
			if option.Key == 0 {
				return option.Text
			}
		}
		return "All"
	}
	id := *model.state.Query.CategoryID
	for _, option := range model.state.Categories {
		if option.Key == id {
			return option.Text
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (model Model) titleWidth() int {
	width := model.width - columnNumber - columnStatus - columnPriority - columnDue - columnCreated - 2
	if width < minTitleWidth {
		return minTitleWidth
	}
	return width
}

func (model Model) headerRow() string {
	return "  " + pad("Number", columnNumber) +
		pad("Title", model.titleWidth()) +
		pad("Status", columnStatus) +
		pad("Priority", columnPriority) +
		pad("Due", columnDue) +
		pad("Created", columnCreated)
}

func (model Model) renderRow(ticket domain.Ticket, selected bool) string {
	now := model.now()
	dueState := ticket.DueState(now)
	due := "-"
	if ticket.DueDate != nil {
		due = ticket.DueDate.In(now.Location()).Format("Jan 2")
	}

	marker := "  "
	if selected {
		marker = "> "
	}
	number := pad(ticket.DisplayNumber(), columnNumber)
	title := pad(ticket.Title, model.titleWidth())
	status := pad(string(ticket.Status), columnStatus)
	priority := lipgloss.NewStyle().Foreground(model.theme.PriorityColor(ticket.Priority)).
		Render(pad(string(ticket.Priority), columnPriority))
	dueCell := lipgloss.NewStyle().Foreground(model.theme.DueColor(dueState)).Render(pad(due, columnDue))
	created := pad(humanize.RelTime(ticket.Created, now, "ago", "from now"), columnCreated)

	row := marker + number + title + status + priority + dueCell + created
	if selected {
		return lipgloss.NewStyle().
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground).
			Render(row)
	}
	return row
}

func (model Model) statusLine() string {
	s := model.state
	errStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorText)
	switch {
	case model.confirmID != 0:
		return errStyle.Render(fmt.Sprintf("Delete ticket #%d? y to confirm, any other key to cancel", model.confirmID))
	case s.Deleting != 0:
		return fmt.Sprintf("Deleting ticket #%d…", s.Deleting)
	case s.Err != "":
		return errStyle.Render("Error: " + s.Err)
	case s.Loading:
		return "Loading…"
	}
	total := humanize.Comma(int64(s.Total))
	if s.TotalCapped {
		total += "+"
	}
	noun := "tickets"
	if s.Total == 1 {
		noun = "ticket"
	}
	return fmt.Sprintf("Page %d of %d  %s %s", s.Page(), s.TotalPages(), total, noun)
}

func (model Model) helpLine() string {
	parts := make([]string, 0, len(model.keys.helpBindings()))
	for _, binding := range model.keys.helpBindings() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " · ")
}

// pad truncates or right-pads s to width display cells plus a gap.
func pad(s string, width int) string {
	if width < 2 {
		return s
	}
	limit := width - 1
	if lipgloss.Width(s) > limit {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > limit {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}
