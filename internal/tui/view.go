package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/taskboard/internal/board"
	"github.com/Makepad-fr/taskboard/internal/model"
	"github.com/Makepad-fr/taskboard/internal/ui"
)

func (m Model) View() string {
	header := m.headerView()
	footer := m.footerView()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	var body string
	switch m.mode {
	case modeForm:
		body = m.center(m.form.view(m.labels, m.dialogWidth()), bodyHeight)
	case modeDetail:
		body = m.center(m.detailView(), bodyHeight)
	case modeConfirm:
		body = m.center(dialogStyle.Render(m.labels.T("confirm_delete", nil)), bodyHeight)
	case modeAlert:
		body = m.center(alertStyle.Render(m.alert+"\n\n"+helpStyle.Render("enter")), bodyHeight)
	default:
		body = m.boardView(bodyHeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) center(s string, height int) string {
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, s)
}

func (m Model) dialogWidth() int {
	w := m.width - 10
	if w > 70 {
		w = 70
	}
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) headerView() string {
	st := m.view.Stats
	parts := []string{
		titleStyle.Render(m.labels.T("app_title", nil)),
		accentStyle.Render(m.labels.Filter(string(m.view.Filter))),
		fmt.Sprintf("%s %d", m.labels.T("total", nil), st.Total),
	}
	for _, s := range model.Statuses {
		parts = append(parts, statusStyle(s).Render(fmt.Sprintf("%d", st.ByStatus[s])))
	}
	parts = append(parts, successStyle.Render(ui.ProgressBar(st.Done(), st.Total, 10)))
	if m.snap.Syncing() {
		parts = append(parts, m.spinner.View()+pendingStyle.Render(m.labels.T("syncing", nil)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) footerView() string {
	lines := []string{}
	if m.notice != "" {
		lines = append(lines, pendingStyle.Render(m.notice))
	}
	lines = append(lines, helpStyle.Render(m.help.View(m.keys)))
	return strings.Join(lines, "\n")
}

func (m Model) boardView(height int) string {
	n := len(m.view.Columns)
	if n == 0 {
		return ""
	}
	colWidth := m.width/n - 2
	if colWidth < 16 {
		colWidth = 16
	}
	cols := make([]string, n)
	for i, c := range m.view.Columns {
		cols[i] = m.columnView(i, c, colWidth, height-2)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) columnView(i int, c board.Column, width, height int) string {
	inner := width - 4
	head := statusStyle(c.Status).Render(fmt.Sprintf("%s (%d)", m.labels.Status(c.Status), c.Count()))
	lines := []string{head, ""}

	if c.Count() == 0 {
		lines = append(lines, mutedStyle.Render(m.labels.EmptyIcon(c.Status)+" "+m.labels.T("empty_column", nil)))
	}
	used := 2
	for r, t := range c.Tasks {
		card := m.cardView(t, inner, i == m.col && r == m.row)
		h := lipgloss.Height(card)
		if used+h > height-2 && r > 0 {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d", c.Count()-r)))
			break
		}
		lines = append(lines, card)
		used += h
	}

	style := columnStyle.Width(width).Height(height)
	if i == m.col {
		style = style.BorderForeground(statusColors[c.Status])
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) cardView(t model.Task, width int, selected bool) string {
	title := ui.Truncate(t.Title, width-4)
	meta := []string{priorityStyle(t.Priority).Render("●")}
	if t.Assignee != "" {
		meta = append(meta, m.labels.Assignee(t.Assignee))
	}
	if t.Pending() {
		meta = append(meta, m.labels.T("pending", nil))
	} else if ago := m.labels.TimeAgo(t.UpdatedAt.Time, m.now()); ago != "" {
		meta = append(meta, mutedStyle.Render(ago))
	}
	body := title + "\n" + strings.Join(meta, " ")

	style := cardStyle
	switch {
	case t.Pending():
		style = pendingCardStyle
	case selected:
		style = selectedCardStyle
	}
	return style.Width(width).Render(body)
}

func (m Model) detailView() string {
	t, ok := m.task(m.detail)
	if !ok {
		return dialogStyle.Render(mutedStyle.Render(m.labels.T("empty_column", nil)))
	}
	desc := t.Description
	if desc == "" {
		desc = mutedStyle.Render(m.labels.T("no_description", nil))
	}
	row := func(id, value string) string {
		return mutedStyle.Render(m.labels.T(id, nil)+": ") + value
	}
	lines := []string{
		titleStyle.Render(t.Title),
		"",
		desc,
		"",
		row("field_status", statusStyle(t.Status).Render(m.labels.Status(t.Status))),
		row("field_priority", priorityStyle(t.Priority).Render(m.labels.Priority(t.Priority))),
		row("field_assignee", m.labels.Assignee(t.Assignee)),
		row("field_created", m.stamp(t.CreatedAt)),
		row("field_updated", m.stamp(t.UpdatedAt)),
	}
	if t.Pending() {
		lines = append(lines, "", pendingStyle.Render(m.labels.T("pending", nil)))
	}
	lines = append(lines, "", helpStyle.Render("e edit • d delete • esc close"))
	return dialogStyle.Width(m.dialogWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// stamp shows unreadable sheet text as it came in.
func (m Model) stamp(ts model.Timestamp) string {
	if ts.Unparsed() {
		return ts.Raw
	}
	return m.labels.DateTime(ts.Time)
}
