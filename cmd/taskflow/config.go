package main

import (
	"os"

	"github.com/metalagman/taskflow/internal/config"
)

// loadConfig reads path, falling back to TASKFLOW_CONFIG and then the default location.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		path = os.Getenv("TASKFLOW_CONFIG")
	}
	if path == "" {
		path = config.DefaultPath
	}
	return config.Load(path)
}
