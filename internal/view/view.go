// Package view derives the ordered display list from the task collection and the current
// filter and sort state.
package view

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/metalagman/taskflow/internal/task"
)

// ErrInvalidFilter is returned for filter or sort values outside the known sets.
var ErrInvalidFilter = errors.New("invalid filter")

// All disables a status or priority filter.
const All = "all"

// SortKey names the field the view is ordered by.
type SortKey string

// Sort keys.
const (
	SortCreatedAt SortKey = "created_at"
	SortDueDate   SortKey = "due_date"
	SortPriority  SortKey = "priority"
)

// UnmarshalText accepts only known sort keys.
func (k *SortKey) UnmarshalText(text []byte) error {
	v := SortKey(strings.ToLower(strings.TrimSpace(string(text))))
	if _, ok := ComparatorFor(v); !ok {
		return fmt.Errorf("%w: unknown sort key %q", ErrInvalidFilter, string(text))
	}
	*k = v
	return nil
}

// Direction is the sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// UnmarshalText accepts asc or desc.
func (d *Direction) UnmarshalText(text []byte) error {
	v := Direction(strings.ToLower(strings.TrimSpace(string(text))))
	if v != Asc && v != Desc {
		return fmt.Errorf("%w: unknown sort direction %q", ErrInvalidFilter, string(text))
	}
	*d = v
	return nil
}

// Filter is the transient filter and sort state of a session.
type Filter struct {
	Status   string    `json:"status"   mapstructure:"status"`
	Priority string    `json:"priority" mapstructure:"priority"`
	Search   string    `json:"search"   mapstructure:"search"`
	SortBy   SortKey   `json:"sort_by"  mapstructure:"sort_by"`
	SortDir  Direction `json:"sort_dir" mapstructure:"sort_dir"`
}

// DefaultFilter shows everything, newest first.
func DefaultFilter() Filter {
	return Filter{
		Status:   All,
		Priority: All,
		SortBy:   SortCreatedAt,
		SortDir:  Desc,
	}
}

// WithDefaults fills empty fields from DefaultFilter.
func (f Filter) WithDefaults() Filter {
	def := DefaultFilter()
	if f.Status == "" {
		f.Status = def.Status
	}
	if f.Priority == "" {
		f.Priority = def.Priority
	}
	if f.SortBy == "" {
		f.SortBy = def.SortBy
	}
	if f.SortDir == "" {
		f.SortDir = def.SortDir
	}
	return f
}

// Validate rejects values outside the known sets.
func (f Filter) Validate() error {
	if f.Status != All && !task.Status(f.Status).Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	if f.Priority != All && !task.Priority(f.Priority).Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidFilter, f.Priority)
	}
	if _, ok := ComparatorFor(f.SortBy); !ok {
		return fmt.Errorf("%w: unknown sort key %q", ErrInvalidFilter, f.SortBy)
	}
	if f.SortDir != Asc && f.SortDir != Desc {
		return fmt.Errorf("%w: unknown sort direction %q", ErrInvalidFilter, f.SortDir)
	}
	return nil
}

// Apply filters and sorts tasks. The input slice is not modified.
func Apply(tasks []task.Task, f Filter) ([]task.Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	search := strings.ToLower(f.Search)
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Status != All && string(t.Status) != f.Status {
			continue
		}
		if f.Priority != All && string(t.Priority) != f.Priority {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		out = append(out, t)
	}

	cmp, _ := ComparatorFor(f.SortBy)
	if f.SortDir == Desc {
		asc := cmp
		cmp = func(a, b task.Task) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return out, nil
}
