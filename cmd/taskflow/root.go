package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/metalagman/taskflow/internal/config"
	"github.com/metalagman/taskflow/internal/logging"
	"github.com/spf13/cobra"
)

// rootOptions is the state shared by all subcommands.
type rootOptions struct {
	cfgFile string
	envFile string
	debug   bool
	cfg     config.Config
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "taskflow",
		Short:         "taskflow is a personal task manager with an AI advisor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnv(opts.envFile); err != nil {
				return err
			}
			cfg, err := loadConfig(opts.cfgFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			logging.Init(opts.debug, cfg.Log.Format)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", config.DefaultPath, "config file path")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with API keys")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(initCmd(opts))
	cmd.AddCommand(taskCmd(opts))
	cmd.AddCommand(insightCmd(opts))
	cmd.AddCommand(serveCmd(opts))
	return cmd
}

// loadEnv loads KEY=value pairs from path without overriding the environment.
// A missing file is ignored.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
