package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/taskboard/internal/labels"
	"github.com/Makepad-fr/taskboard/internal/model"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldAssignee
	fieldPriority
	fieldStatus
	fieldCount
)

type formResult int

const (
	formOpen formResult = iota
	formSubmitted
	formCancelled
)

// choice cycles through a fixed set of values with ←/→.
type choice struct {
	values []string
	index  int
}

func newChoice(values []string, current string) choice {
	c := choice{values: values}
	for i, v := range values {
		if v == current {
			c.index = i
			return c
		}
	}
	// keep blank and unknown values instead of silently picking the first one
	c.values = append([]string{current}, values...)
	return c
}

func (c *choice) step(d int) {
	n := len(c.values)
	c.index = ((c.index+d)%n + n) % n
}

func (c choice) value() string { return c.values[c.index] }

// taskForm edits the fields of a new or existing task.
type taskForm struct {
	editing  model.ID
	original model.Fields

	title       textinput.Model
	description textinput.Model
	assignee    choice
	priority    choice
	status      choice

	focus int
	err   string
}

func newTaskForm(f model.Fields, editing model.ID) taskForm {
	f = f.Normalize()

	title := textinput.New()
	title.Prompt = "> "
	title.CharLimit = 200
	title.SetValue(f.Title)
	title.CursorEnd()
	title.Focus()

	desc := textinput.New()
	desc.Prompt = "> "
	desc.CharLimit = 1000
	desc.SetValue(f.Description)

	return taskForm{
		editing:     editing,
		original:    f,
		title:       title,
		description: desc,
		assignee:    newChoice(stringsOf(model.Assignees), string(f.Assignee)),
		priority:    newChoice(stringsOf(model.Priorities), string(f.Priority)),
		status:      newChoice(stringsOf(model.Statuses), string(f.Status)),
	}
}

func stringsOf[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func (f taskForm) fields() model.Fields {
	return model.Fields{
		Title:       strings.TrimSpace(f.title.Value()),
		Description: strings.TrimSpace(f.description.Value()),
		Assignee:    model.Assignee(f.assignee.value()),
		Priority:    model.Priority(f.priority.value()),
		Status:      model.Status(f.status.value()),
	}
}

// patch holds only the fields that differ from the task being edited.
func (f taskForm) patch() model.Patch {
	now, was := f.fields(), f.original
	var p model.Patch
	if now.Title != was.Title {
		p.Title = &now.Title
	}
	if now.Description != was.Description {
		p.Description = &now.Description
	}
	if now.Assignee != was.Assignee {
		p.Assignee = &now.Assignee
	}
	if now.Priority != was.Priority {
		p.Priority = &now.Priority
	}
	if now.Status != was.Status {
		p.Status = &now.Status
	}
	return p
}

func (f *taskForm) setFocus(i int) {
	f.focus = (i%fieldCount + fieldCount) % fieldCount
	f.title.Blur()
	f.description.Blur()
	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldDescription:
		f.description.Focus()
	}
}

func (f taskForm) update(msg tea.Msg, l *labels.Labels) (taskForm, formResult, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			return f, formCancelled, nil
		case "enter":
			if f.fields().Title == "" {
				f.err = l.T("title_required", nil)
				f.setFocus(fieldTitle)
				return f, formOpen, nil
			}
			return f, formSubmitted, nil
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return f, formOpen, nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return f, formOpen, nil
		}
		if c := f.currentChoice(); c != nil {
			switch k.String() {
			case "left", "h":
				c.step(-1)
			case "right", "l", " ":
				c.step(1)
			}
			return f, formOpen, nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
		if f.err != "" && strings.TrimSpace(f.title.Value()) != "" {
			f.err = ""
		}
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	}
	return f, formOpen, cmd
}

func (f *taskForm) currentChoice() *choice {
	switch f.focus {
	case fieldAssignee:
		return &f.assignee
	case fieldPriority:
		return &f.priority
	case fieldStatus:
		return &f.status
	}
	return nil
}

func (f taskForm) view(l *labels.Labels, width int) string {
	heading := l.T("form_new", nil)
	if f.editing != "" {
		heading = l.T("form_edit", nil)
	}
	label := func(i int, id string) string {
		if f.focus == i {
			return focusedLabelStyle.Render(l.T(id, nil))
		}
		return mutedStyle.Render(l.T(id, nil))
	}
	pick := func(i int, text string) string {
		if text == "" {
			text = "-"
		}
		if f.focus == i {
			return accentStyle.Render("‹ " + text + " ›")
		}
		return "  " + text
	}

	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	f.title.Width = inputWidth
	f.description.Width = inputWidth

	lines := []string{
		titleStyle.Render(heading),
		"",
		label(fieldTitle, "field_title"),
		f.title.View(),
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	lines = append(lines,
		label(fieldDescription, "field_description"),
		f.description.View(),
		"",
		label(fieldAssignee, "field_assignee"),
		pick(fieldAssignee, l.Assignee(model.Assignee(f.assignee.value()))),
		label(fieldPriority, "field_priority"),
		pick(fieldPriority, l.Priority(model.Priority(f.priority.value()))),
		label(fieldStatus, "field_status"),
		pick(fieldStatus, l.Status(model.Status(f.status.value()))),
		"",
		helpStyle.Render("tab next • ←/→ change • enter save • esc cancel"),
	)
	return dialogStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
