package model

import (
	"strings"
	"time"
)

// Status decides which board column a task lives in.
type Status string

const (
	StatusNew       Status = "new"
	StatusWorking   Status = "working"
	StatusCompleted Status = "completed"
	StatusRecheck   Status = "recheck"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusNew, StatusWorking, StatusCompleted, StatusRecheck}

// Valid reports whether s is one of the four board columns.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Index returns the column position of s, or -1.
func (s Status) Index() int {
	for i, v := range Statuses {
		if s == v {
			return i
		}
	}
	return -1
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Assignee is one of the known team members. Values outside the set are
// kept as-is so the board never drops a task it does not recognise.
type Assignee string

const (
	AssigneeKate     Assignee = "kate"
	AssigneeMira     Assignee = "mira"
	AssigneeKaka     Assignee = "kaka"
	AssigneePersonal Assignee = "personal"
)

var Assignees = []Assignee{AssigneeKate, AssigneeMira, AssigneeKaka, AssigneePersonal}

// Task is the domain model for a board card.
type Task struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Assignee    Assignee  `json:"assignee"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// Pending reports whether the task still waits for server confirmation.
func (t Task) Pending() bool { return t.ID.IsTemp() }

// Fields returns the user-editable part of t.
func (t Task) Fields() Fields {
	return Fields{
		Title:       t.Title,
		Description: t.Description,
		Assignee:    t.Assignee,
		Priority:    t.Priority,
		Status:      t.Status,
	}
}

// Fields is the input for creating a task.
type Fields struct {
	Title       string
	Description string
	Assignee    Assignee
	Priority    Priority
	Status      Status
}

// Normalize trims text and fills the form defaults (medium priority, new status).
func (f Fields) Normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	if f.Status == "" {
		f.Status = StatusNew
	}
	return f
}

// Provisional builds the optimistic task shown until the server answers.
func (f Fields) Provisional(id ID, now time.Time) Task {
	return Task{
		ID:          id,
		Title:       f.Title,
		Description: f.Description,
		Assignee:    f.Assignee,
		Priority:    f.Priority,
		Status:      f.Status,
		CreatedAt:   Timestamp{Time: now},
		UpdatedAt:   Timestamp{Time: now},
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Assignee    *Assignee
	Priority    *Priority
	Status      *Status
}

// StatusPatch is the patch issued when a card is dragged to another column.
func StatusPatch(s Status) Patch { return Patch{Status: &s} }

// PatchFrom returns a patch holding every field of f.
func PatchFrom(f Fields) Patch {
	return Patch{
		Title:       &f.Title,
		Description: &f.Description,
		Assignee:    &f.Assignee,
		Priority:    &f.Priority,
		Status:      &f.Status,
	}
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Assignee == nil && p.Priority == nil && p.Status == nil
}

// Apply shallow-merges p over t.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

// Values flattens p into the wire parameter names.
func (p Patch) Values() map[string]string {
	out := map[string]string{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Assignee != nil {
		out["assignee"] = string(*p.Assignee)
	}
	if p.Priority != nil {
		out["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	return out
}
