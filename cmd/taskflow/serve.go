package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/metalagman/taskflow/internal/board"
	"github.com/metalagman/taskflow/internal/config"
	"github.com/metalagman/taskflow/internal/task"
	"github.com/metalagman/taskflow/internal/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			app := fx.New(serveOptions(cfg)...)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides server.addr")
	return cmd
}

// serveOptions is the dependency graph of the serve command.
func serveOptions(cfg config.Config) []fx.Option {
	return []fx.Option{
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(
			provideDB,
			provideStore,
			func(s *task.Store) board.Store { return s },
			provideBoard,
			provideServer,
			provideHTTPServer,
		),
		fx.Invoke(func(*http.Server) {}),
	}
}

func provideDB(lc fx.Lifecycle, cfg config.Config) (*sql.DB, error) {
	storeDB, closeFn, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		closeFn()
		return nil
	}})
	return storeDB, nil
}

func provideStore(storeDB *sql.DB, cfg config.Config) (*task.Store, error) {
	return newStore(context.Background(), storeDB, cfg)
}

func provideBoard(store board.Store, cfg config.Config) (*board.Board, error) {
	return newBoard(context.Background(), store, cfg)
}

func provideServer(b *board.Board, cfg config.Config) (*web.Server, error) {
	return web.NewServer(b, cfg.Filter())
}

func provideHTTPServer(lc fx.Lifecycle, srv *web.Server, cfg config.Config) *http.Server {
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", httpSrv.Addr)
			if err != nil {
				return err
			}
			log.Info().Str("addr", "http://"+ln.Addr().String()).Msg("serving taskflow")
			go func() {
				if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down")
			return httpSrv.Shutdown(ctx)
		},
	})
	return httpSrv
}
