// Package board owns the in-memory task collection and orchestrates mutations against the
// task store.
//
// The collection only changes through prepend, replace-by-id, remove-by-id and replace-all
// (the optimistic status patch is a narrow replace-by-id), each applied under the board lock.
// Store and advisor calls run outside the lock, so several flows may be in flight at once;
// when two updates to the same task race, the one that completes last wins.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/metalagman/taskflow/internal/advisor"
	"github.com/metalagman/taskflow/internal/task"
	"github.com/metalagman/taskflow/internal/view"
	"github.com/rs/zerolog/log"
)

// Store is the persistence the board depends on.
type Store interface {
	List(ctx context.Context) ([]task.Task, error)
	Create(ctx context.Context, d task.Draft) (task.Task, error)
	Update(ctx context.Context, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

// Defaults are applied to drafts that leave status or priority empty.
type Defaults struct {
	Status   task.Status
	Priority task.Priority
}

// Board is the controller for one session's task collection.
type Board struct {
	store    Store
	advisor  advisor.Advisor
	defaults Defaults

	mu    sync.RWMutex
	tasks []task.Task
}

// New creates a board. A nil advisor is treated as disabled.
func New(store Store, adv advisor.Advisor, defaults Defaults) *Board {
	if adv == nil {
		adv = advisor.Disabled{}
	}
	if defaults.Status == "" {
		defaults.Status = task.StatusTodo
	}
	if defaults.Priority == "" {
		defaults.Priority = task.PriorityMedium
	}
	return &Board{store: store, advisor: adv, defaults: defaults}
}

// Load replaces the collection with the store's contents.
func (b *Board) Load(ctx context.Context) error {
	items, err := b.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	b.replaceAll(items)
	log.Debug().Int("tasks", len(items)).Msg("board loaded")
	return nil
}

// Tasks returns a copy of the collection in source order (newest first).
func (b *Board) Tasks() []task.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]task.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		out = append(out, t.Clone())
	}
	return out
}

// Task returns the task with id from the collection.
func (b *Board) Task(id string) (task.Task, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := b.indexOf(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("task %s: %w", id, task.ErrNotFound)
	}
	return b.tasks[i].Clone(), nil
}

// View returns the derived display list for f.
func (b *Board) View(f view.Filter) ([]task.Task, error) {
	return view.Apply(b.Tasks(), f)
}

// Stats counts the collection by status.
func (b *Board) Stats() view.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return view.Count(b.tasks)
}

// NewDraft returns an empty draft carrying the board defaults.
func (b *Board) NewDraft(title string) task.Draft {
	return task.Draft{Title: title}.Normalize(b.defaults.Status, b.defaults.Priority)
}

// Create stores a new task and prepends it to the collection.
func (b *Board) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	d = d.Normalize(b.defaults.Status, b.defaults.Priority)
	if err := d.Validate(); err != nil {
		return task.Task{}, err
	}
	created, err := b.store.Create(ctx, d)
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	b.prepend(created)
	log.Info().Str("task_id", created.ID).Msg("task created")
	return created.Clone(), nil
}

// Update applies a partial draft to a stored task and replaces it in the collection.
// On failure the collection is left unchanged.
func (b *Board) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	updated, err := b.store.Update(ctx, id, p)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	b.replaceByID(updated)
	log.Info().Str("task_id", id).Msg("task updated")
	return updated.Clone(), nil
}

// Delete removes a task from the store and the collection. Missing ids are ignored.
func (b *Board) Delete(ctx context.Context, id string) error {
	if err := b.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	b.removeByID(id)
	log.Info().Str("task_id", id).Msg("task deleted")
	return nil
}

// ChangeStatus sets the status in memory before the store confirms it. If the store update
// fails the whole collection is reloaded from the store, discarding the optimistic value and
// any other unsaved local state. The store error is returned either way.
func (b *Board) ChangeStatus(ctx context.Context, id string, status task.Status) (task.Task, error) {
	if !status.Valid() {
		return task.Task{}, fmt.Errorf("%w: unknown status %q", task.ErrInvalid, status)
	}
	b.setStatus(id, status)

	updated, err := b.store.Update(ctx, id, task.StatusPatch(status))
	if err != nil {
		log.Warn().Err(err).Str("task_id", id).Str("status", string(status)).Msg("status change failed, resyncing")
		err = fmt.Errorf("change status: %w", err)
		if loadErr := b.Load(ctx); loadErr != nil {
			return task.Task{}, errors.Join(err, fmt.Errorf("resync: %w", loadErr))
		}
		return task.Task{}, err
	}
	b.replaceByID(updated)
	log.Info().Str("task_id", id).Str("status", string(status)).Msg("task status changed")
	return updated.Clone(), nil
}

// Enhance asks the advisor for suggestions and merges them into d. On failure d is
// returned unchanged together with the error.
func (b *Board) Enhance(ctx context.Context, d task.Draft) (task.Draft, error) {
	if !b.advisor.Enabled() {
		return d, advisor.ErrDisabled
	}
	s, err := b.advisor.Enhance(ctx, d.Title)
	if err != nil {
		return d, err
	}
	return s.ApplyTo(d), nil
}

// Insight returns the advisor's sentence for the current collection.
func (b *Board) Insight(ctx context.Context) string {
	tasks := b.Tasks()
	titles := make([]string, 0, len(tasks))
	for _, t := range tasks {
		titles = append(titles, t.Title)
	}
	return b.advisor.DailyInsight(ctx, titles)
}

// AdvisorEnabled reports whether AI features are available.
func (b *Board) AdvisorEnabled() bool {
	return b.advisor.Enabled()
}

func (b *Board) prepend(t task.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = append([]task.Task{t.Clone()}, b.tasks...)
}

func (b *Board) replaceByID(t task.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(t.ID); i >= 0 {
		b.tasks[i] = t.Clone()
	}
}

func (b *Board) removeByID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		b.tasks = append(b.tasks[:i:i], b.tasks[i+1:]...)
	}
}

func (b *Board) replaceAll(items []task.Task) {
	next := make([]task.Task, 0, len(items))
	for _, t := range items {
		next = append(next, t.Clone())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = next
}

func (b *Board) setStatus(id string, status task.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		b.tasks[i].Status = status
	}
}

// indexOf must be called with b.mu held.
func (b *Board) indexOf(id string) int {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
