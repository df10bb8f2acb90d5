package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const seededKey = "seeded_at"

// SeedTasks returns the example tasks written on first use.
func SeedTasks(now time.Time) []Task {
	now = now.UTC()
	due := now.Add(24 * time.Hour)
	return []Task{
		{
			ID:          "1",
			Title:       "Review Internship Assignment",
			Description: "Go through the requirements for the Junior Dev task management API.",
			Status:      StatusInProgress,
			Priority:    PriorityHigh,
			DueDate:     &due,
			Tags:        []string{"internship", "planning"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "2",
			Title:       "Setup Project Structure",
			Description: "Initialize the project layout and tooling.",
			Status:      StatusDone,
			Priority:    PriorityMedium,
			Tags:        []string{"dev", "setup"},
			CreatedAt:   now.Add(-24 * time.Hour),
			UpdatedAt:   now,
		},
	}
}

// Seed writes the example tasks unless the store has been seeded before.
// It reports whether anything was written.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	var seededAt string
	err = tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, seededKey).Scan(&seededAt)
	switch {
	case err == nil:
		_ = tx.Rollback()
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		_ = tx.Rollback()
		return false, fmt.Errorf("read seed marker: %w", err)
	}

	now := s.clock.next()
	for _, t := range SeedTasks(now) {
		if err := insertTask(ctx, tx, t); err != nil {
			_ = tx.Rollback()
			return false, err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?)`, seededKey, formatTime(now)); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("write seed marker: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	log.Debug().Int("tasks", 2).Msg("store seeded with example tasks")
	return true, nil
}
