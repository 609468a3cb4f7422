package ui

import (
	"strings"

	"github.com/Makepad-fr/taskboard/internal/model"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name                                          string
	Title, Muted, Accent, Success, Error, Pending string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	Dot, PendingMark                              string
	Priority                                      map[model.Priority]string
	Status                                        map[model.Status]string
}

var current = classic()

func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		current = Theme{
			Name:  "neon",
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			Dot: "◆", PendingMark: "…",
			Priority: map[model.Priority]string{
				model.PriorityLow: "\033[92m", model.PriorityMedium: "\033[93m", model.PriorityHigh: "\033[91m",
			},
			Status: map[model.Status]string{
				model.StatusNew: "\033[96m", model.StatusWorking: "\033[93m",
				model.StatusCompleted: "\033[92m", model.StatusRecheck: "\033[95m",
			},
		}
	case "mono":
		disableColor = true
		current = Theme{
			Name:  "mono",
			Title: "", Muted: "", Accent: "", Success: "", Error: "", Pending: "",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			Dot: "*", PendingMark: "~",
		}
	default:
		current = classic()
	}
}

func classic() Theme {
	return Theme{
		Name:  "classic",
		Title: bold, Muted: fgGray, Accent: fgBlue,
		Success: fgGreen, Error: fgRed, Pending: fgYellow,
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		Dot: "●", PendingMark: "…",
		Priority: map[model.Priority]string{
			model.PriorityLow: fgGreen, model.PriorityMedium: fgYellow, model.PriorityHigh: fgRed,
		},
		Status: map[model.Status]string{
			model.StatusNew: fgCyan, model.StatusWorking: fgYellow,
			model.StatusCompleted: fgGreen, model.StatusRecheck: fgMagenta,
		},
	}
}

// Expose what renderers need
func Current() Theme { return current }

// PriorityColor falls back to muted for unknown priorities.
func (t Theme) PriorityColor(p model.Priority) string {
	if c, ok := t.Priority[p]; ok {
		return c
	}
	return t.Muted
}

func (t Theme) StatusColor(s model.Status) string {
	if c, ok := t.Status[s]; ok {
		return c
	}
	return t.Accent
}
