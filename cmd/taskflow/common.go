package main

import (
	"context"
	"database/sql"

	"github.com/metalagman/taskflow/internal/advisor"
	"github.com/metalagman/taskflow/internal/board"
	"github.com/metalagman/taskflow/internal/config"
	"github.com/metalagman/taskflow/internal/db"
	"github.com/metalagman/taskflow/internal/task"
	"github.com/rs/zerolog/log"
)

func openDB(cfg config.Config) (*sql.DB, func(), error) {
	storeDB, err := db.Open(cfg.Store.Path)
	if err != nil {
		return nil, func() {}, err
	}
	return storeDB, func() { _ = storeDB.Close() }, nil
}

func newStore(ctx context.Context, storeDB *sql.DB, cfg config.Config) (*task.Store, error) {
	store := task.NewStore(storeDB, task.WithLatency(cfg.Store.Latency))
	if cfg.Store.Seed {
		seeded, err := store.Seed(ctx)
		if err != nil {
			return nil, err
		}
		if seeded {
			log.Info().Msg("example tasks added")
		}
	}
	return store, nil
}

func newBoard(ctx context.Context, store board.Store, cfg config.Config) (*board.Board, error) {
	adv, err := advisor.New(ctx, cfg.AdvisorConfig())
	if err != nil {
		return nil, err
	}
	b := board.New(store, adv, cfg.BoardDefaults())
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// openBoard wires database, store, advisor and board for one CLI invocation.
func openBoard(ctx context.Context, cfg config.Config) (*board.Board, func(), error) {
	storeDB, closeFn, err := openDB(cfg)
	if err != nil {
		return nil, closeFn, err
	}
	store, err := newStore(ctx, storeDB, cfg)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	b, err := newBoard(ctx, store, cfg)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return b, closeFn, nil
}
