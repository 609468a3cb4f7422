package cli

import (
	"fmt"
	"time"

	"github.com/Makepad-fr/taskboard/internal/board"
	"github.com/Makepad-fr/taskboard/internal/labels"
	"github.com/Makepad-fr/taskboard/internal/model"
	"github.com/Makepad-fr/taskboard/internal/ui"
)

// -------------- rendering helpers --------------

const titleWidth = 60

// boardLines is the plain-text board: header, progress, then one section per column.
func boardLines(v board.View, l *labels.Labels, now time.Time) []string {
	th := ui.Current()
	header := fmt.Sprintf("%s  %s  %s %d",
		ui.C(th.Title, l.T("app_title", nil)),
		ui.C(th.Accent, l.Filter(string(v.Filter))),
		l.T("total", nil), v.Stats.Total,
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(th.Muted, ui.ProgressBar(v.Stats.Done(), v.Stats.Total, 28)))
	for _, c := range v.Columns {
		lines = append(lines, "")
		lines = append(lines, columnLines(c, l, now)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(th.Muted, "Tip: add with `taskboard add \"Buy milk\" --assignee kate`"))
	return lines
}

func columnLines(c board.Column, l *labels.Labels, now time.Time) []string {
	th := ui.Current()
	lines := []string{ui.C(th.StatusColor(c.Status), fmt.Sprintf("%s (%d)", l.Status(c.Status), c.Count()))}
	if c.Count() == 0 {
		return append(lines, ui.C(th.Muted, "  "+l.EmptyIcon(c.Status)+" "+l.T("empty_column", nil)))
	}
	for _, t := range c.Tasks {
		lines = append(lines, cardLine(t, l, now))
	}
	return lines
}

func cardLine(t model.Task, l *labels.Labels, now time.Time) string {
	th := ui.Current()
	line := fmt.Sprintf("  %s %s", ui.C(th.PriorityColor(t.Priority), th.Dot), ui.Truncate(t.Title, titleWidth))
	if t.Assignee != "" {
		line += "  " + l.Assignee(t.Assignee)
	}
	if t.Pending() {
		line += "  " + ui.C(th.Pending, th.PendingMark+" "+l.T("pending", nil))
	} else if ago := l.TimeAgo(t.UpdatedAt.Time, now); ago != "" {
		line += "  " + ui.C(th.Muted, ago)
	}
	return line + "  " + ui.C("\033[2m", "#"+t.ID.String())
}
