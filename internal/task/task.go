// Package task defines the task record and its SQLite-backed store.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a task id is absent from the store.
	ErrNotFound = errors.New("task not found")
	// ErrInvalid is returned when a draft or patch fails validation.
	ErrInvalid = errors.New("invalid task")
)

// Status is the workflow state of a task.
type Status string

// Task statuses.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// UnmarshalText lets config and flag decoding produce a checked status.
func (s *Status) UnmarshalText(text []byte) error {
	v := Status(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, string(text))
	}
	*s = v
	return nil
}

// Priority is the urgency of a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank maps high to 3, medium to 2 and low to 1. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// UnmarshalText lets config and flag decoding produce a checked priority.
func (p *Priority) UnmarshalText(text []byte) error {
	v := Priority(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalid, string(text))
	}
	*p = v
	return nil
}

// Task is one user work item.
type Task struct {
	ID          string     `json:"id"                 yaml:"id"`
	Title       string     `json:"title"              yaml:"title"`
	Description string     `json:"description"        yaml:"description"`
	Status      Status     `json:"status"             yaml:"status"`
	Priority    Priority   `json:"priority"           yaml:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Tags        []string   `json:"tags"               yaml:"tags"`
	CreatedAt   time.Time  `json:"created_at"         yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"         yaml:"updated_at"`
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Task) Clone() Task {
	out := t
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return out
}

// Draft holds the user-supplied fields of a task before the store assigns id and timestamps.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Tags        []string   `json:"tags"`
}

// Normalize trims the title, fills empty status and priority with the given defaults
// and removes duplicate tags.
func (d Draft) Normalize(defaultStatus Status, defaultPriority Priority) Draft {
	d.Title = strings.TrimSpace(d.Title)
	if d.Status == "" {
		d.Status = defaultStatus
	}
	if d.Priority == "" {
		d.Priority = defaultPriority
	}
	d.Tags = MergeTags(nil, d.Tags...)
	return d
}

// Validate checks the draft against the task invariants.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, d.Status)
	}
	if !d.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalid, d.Priority)
	}
	return nil
}

// DraftOf returns the editable fields of t.
func DraftOf(t Task) Draft {
	c := t.Clone()
	return Draft{
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		Priority:    c.Priority,
		DueDate:     c.DueDate,
		Tags:        c.Tags,
	}
}

// Patch is a partial draft. Nil fields are left unchanged.
type Patch struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	Tags         []string
	SetTags      bool
}

// PatchFromDraft returns a patch that overwrites every field with the draft's values.
func PatchFromDraft(d Draft) Patch {
	p := Patch{
		Title:       &d.Title,
		Description: &d.Description,
		Status:      &d.Status,
		Priority:    &d.Priority,
		Tags:        d.Tags,
		SetTags:     true,
	}
	if d.DueDate != nil {
		p.DueDate = d.DueDate
	} else {
		p.ClearDueDate = true
	}
	return p
}

// StatusPatch returns a patch that only changes the status.
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate && !p.SetTags
}

// Apply merges the patch onto t and validates the result. updated_at is left to the caller.
func (p Patch) Apply(t Task) (Task, error) {
	out := t.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		out.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		out.DueDate = &due
	}
	if p.SetTags {
		out.Tags = MergeTags(nil, p.Tags...)
	}
	if err := DraftOf(out).Validate(); err != nil {
		return Task{}, err
	}
	return out, nil
}
