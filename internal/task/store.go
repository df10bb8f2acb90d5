package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed width so that text ordering in SQLite matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `SELECT id, title, description, status, priority, due_date, tags_json, created_at, updated_at FROM tasks`

// Store manages task persistence.
type Store struct {
	db      *sql.DB
	latency time.Duration
	clock   *clock
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLatency delays every store call by d to simulate a remote backend.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.latency = d
	}
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.clock.now = now
	}
}

// WithIDGenerator replaces the id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore creates a task store.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		clock: &clock{now: time.Now},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every task, newest first.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()
	out := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

// Get fetches a task by id.
func (s *Store) Get(ctx context.Context, id string) (Task, error) {
	if err := s.wait(ctx); err != nil {
		return Task{}, err
	}
	return getTask(ctx, s.db, id)
}

// Create inserts a task built from the draft and assigns its id and timestamps.
func (s *Store) Create(ctx context.Context, d Draft) (Task, error) {
	if err := s.wait(ctx); err != nil {
		return Task{}, err
	}
	if err := d.Validate(); err != nil {
		return Task{}, err
	}
	now := s.clock.next()
	t := Task{
		ID:          s.newID(),
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
		Tags:        MergeTags(nil, d.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := insertTask(ctx, s.db, t); err != nil {
		return Task{}, err
	}
	return t.Clone(), nil
}

// Update merges the patch onto an existing task and refreshes updated_at.
func (s *Store) Update(ctx context.Context, id string, p Patch) (Task, error) {
	if err := s.wait(ctx); err != nil {
		return Task{}, err
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Task{}, fmt.Errorf("begin update task: %w", err)
	}
	current, err := getTask(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback()
		return Task{}, err
	}
	updated, err := p.Apply(current)
	if err != nil {
		_ = tx.Rollback()
		return Task{}, err
	}
	updated.UpdatedAt = s.clock.next()
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}
	tagsJSON, err := json.Marshal(updated.Tags)
	if err != nil {
		_ = tx.Rollback()
		return Task{}, fmt.Errorf("marshal tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET title=?, description=?, status=?, priority=?, due_date=?, tags_json=?, updated_at=? WHERE id=?`,
		updated.Title, updated.Description, string(updated.Status), string(updated.Priority),
		formatDue(updated.DueDate), string(tagsJSON), formatTime(updated.UpdatedAt), id); err != nil {
		_ = tx.Rollback()
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Task{}, fmt.Errorf("commit update task: %w", err)
	}
	return updated, nil
}

// Delete removes a task. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getTask(ctx context.Context, q queryer, id string) (Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, selectColumns+` WHERE id=?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return Task{}, err
	}
	return t, nil
}

func insertTask(ctx context.Context, e execer, t Task) error {
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	if _, err := e.ExecContext(ctx, `INSERT INTO tasks(id, title, description, status, priority, due_date, tags_json, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), formatDue(t.DueDate),
		string(tagsJSON), formatTime(t.CreatedAt), formatTime(t.UpdatedAt)); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t                    Task
		status, priority     string
		due                  sql.NullString
		tagsJSON             string
		createdAt, updatedAt string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &due, &tagsJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, err
		}
		return Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.Status = Status(status)
	t.Priority = Priority(priority)
	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return Task{}, fmt.Errorf("parse tags: %w", err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Task{}, err
	}
	if due.Valid && due.String != "" {
		d, err := parseTime(due.String)
		if err != nil {
			return Task{}, err
		}
		t.DueDate = &d
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatDue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		// Rows written by hand may use plain RFC 3339.
		if t, rfcErr := time.Parse(time.RFC3339Nano, value); rfcErr == nil {
			return t.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

// clock issues strictly increasing UTC timestamps.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Round(0)
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}
