// Package board turns a task list into the four-column view the dashboard draws.
// Nothing here touches a terminal, so every rule about which card goes where
// can be tested on its own.
package board

import "github.com/Makepad-fr/taskboard/internal/model"

// Filter limits the board to one assignee. FilterAll shows everyone.
type Filter string

const FilterAll Filter = "all"

// Filters lists the choices in the order the dashboard cycles through them.
func Filters() []Filter {
	out := []Filter{FilterAll}
	for _, a := range model.Assignees {
		out = append(out, Filter(a))
	}
	return out
}

// Next returns the filter after f, wrapping around.
func (f Filter) Next() Filter {
	all := Filters()
	for i, v := range all {
		if v == f {
			return all[(i+1)%len(all)]
		}
	}
	return FilterAll
}

func (f Filter) Match(t model.Task) bool {
	return f == "" || f == FilterAll || model.Assignee(f) == t.Assignee
}

// Column is one status lane.
type Column struct {
	Status model.Status
	Tasks  []model.Task
}

func (c Column) Count() int { return len(c.Tasks) }

// Stats are the header counters for the filtered board.
type Stats struct {
	Total    int
	ByStatus map[model.Status]int
}

// Done is the number of completed tasks.
func (s Stats) Done() int { return s.ByStatus[model.StatusCompleted] }

// View is everything a renderer needs for one frame.
type View struct {
	Filter  Filter
	Columns []Column
	Stats   Stats
}

// Build partitions tasks into the four status columns, keeping list order
// within each column. Tasks with a status outside the four columns are counted
// in Total but not placed.
func Build(tasks []model.Task, f Filter) View {
	if f == "" {
		f = FilterAll
	}
	v := View{
		Filter:  f,
		Columns: make([]Column, len(model.Statuses)),
		Stats:   Stats{ByStatus: make(map[model.Status]int, len(model.Statuses))},
	}
	for i, s := range model.Statuses {
		v.Columns[i] = Column{Status: s}
	}
	for _, t := range tasks {
		if !f.Match(t) {
			continue
		}
		v.Stats.Total++
		i := t.Status.Index()
		if i < 0 {
			continue
		}
		v.Columns[i].Tasks = append(v.Columns[i].Tasks, t)
		v.Stats.ByStatus[t.Status]++
	}
	return v
}

// Column returns the lane for s.
func (v View) Column(s model.Status) Column {
	if i := s.Index(); i >= 0 && i < len(v.Columns) {
		return v.Columns[i]
	}
	return Column{Status: s}
}

// Locate finds the column and row of the task with id, or (-1, -1).
func (v View) Locate(id model.ID) (col, row int) {
	for c, column := range v.Columns {
		for r, t := range column.Tasks {
			if t.ID == id {
				return c, r
			}
		}
	}
	return -1, -1
}
