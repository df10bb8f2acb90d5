package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/metalagman/taskflow/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func initCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a taskflow project",
		Long:  "Initialize a taskflow project by writing a default config and creating the task database.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.cfgFile
			if path == "" {
				path = config.DefaultPath
			}

			_, err := os.Stat(path)
			switch {
			case err == nil && !force:
				log.Info().Str("path", path).Msg("config already exists, skipping")
			case err == nil || errors.Is(err, fs.ErrNotExist):
				log.Info().Str("path", path).Msg("installing default config")
				if err := config.Write(path, config.Default()); err != nil {
					return err
				}
				cfg, err := loadConfig(path)
				if err != nil {
					return err
				}
				opts.cfg = cfg
			default:
				return fmt.Errorf("stat config: %w", err)
			}

			storeDB, closeFn, err := openDB(opts.cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			if _, err := newStore(cmd.Context(), storeDB, opts.cfg); err != nil {
				return err
			}
			log.Info().Str("path", opts.cfg.Store.Path).Msg("task database ready")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
