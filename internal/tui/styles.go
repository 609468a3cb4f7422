package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/taskboard/internal/model"
)

// ------- styling helpers (Lip Gloss) -------
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	selectedCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("12")).
				Bold(true)
	pendingCardStyle = cardStyle.
				Faint(true).
				BorderStyle(lipgloss.HiddenBorder())
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(1, 2)
	alertStyle = dialogStyle.
			BorderForeground(lipgloss.Color("9"))
	focusedLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

var statusColors = map[model.Status]lipgloss.Color{
	model.StatusNew:       lipgloss.Color("39"),
	model.StatusWorking:   lipgloss.Color("214"),
	model.StatusCompleted: lipgloss.Color("42"),
	model.StatusRecheck:   lipgloss.Color("170"),
}

var priorityColors = map[model.Priority]lipgloss.Color{
	model.PriorityLow:    lipgloss.Color("42"),
	model.PriorityMedium: lipgloss.Color("220"),
	model.PriorityHigh:   lipgloss.Color("196"),
}

func statusStyle(s model.Status) lipgloss.Style {
	c, ok := statusColors[s]
	if !ok {
		c = lipgloss.Color("12")
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

func priorityStyle(p model.Priority) lipgloss.Style {
	c, ok := priorityColors[p]
	if !ok {
		return mutedStyle
	}
	return lipgloss.NewStyle().Foreground(c)
}
