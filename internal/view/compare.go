package view

import (
	"cmp"
	"time"

	"github.com/metalagman/taskflow/internal/task"
)

// Comparator orders two tasks ascending.
type Comparator func(a, b task.Task) int

var comparators = map[SortKey]Comparator{
	SortCreatedAt: byCreatedAt,
	SortDueDate:   byDueDate,
	SortPriority:  byPriority,
}

// ComparatorFor returns the ascending comparator for key.
func ComparatorFor(key SortKey) (Comparator, bool) {
	c, ok := comparators[key]
	return c, ok
}

func byCreatedAt(a, b task.Task) int {
	return a.CreatedAt.Compare(b.CreatedAt)
}

// byDueDate treats a missing due date as the zero instant.
func byDueDate(a, b task.Task) int {
	return dueOrZero(a).Compare(dueOrZero(b))
}

func byPriority(a, b task.Task) int {
	return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
}

func dueOrZero(t task.Task) time.Time {
	if t.DueDate == nil {
		return time.Time{}
	}
	return *t.DueDate
}
