package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/metalagman/taskflow/internal/advisor"
	"github.com/metalagman/taskflow/internal/config"
	"github.com/metalagman/taskflow/internal/task"
	"github.com/metalagman/taskflow/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"gopkg.in/yaml.v3"
)

func testConfig(t *testing.T) (config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "taskflow.db")
	cfg.AI.APIKeyEnv = "TASKFLOW_TEST_UNSET_KEY"
	cfg.Server.Addr = "127.0.0.1:0"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Write(path, cfg))
	return cfg, path
}

func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTaskAddListShow(t *testing.T) {
	_, cfgPath := testConfig(t)

	out, err := runCLI(t, cfgPath, "task", "add", "Fix", "Bug", "--priority", "high", "--tags", "work, urgent,work", "--due", "2026-03-01", "-d", "Crash on **startup**")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = runCLI(t, cfgPath, "task", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Fix Bug")
	assert.Contains(t, out, "Review Internship Assignment", "seeded on first use")

	out, err = runCLI(t, cfgPath, "task", "list", "--search", "bug", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Fix Bug")
	assert.NotContains(t, out, "Review Internship Assignment")
	assert.Contains(t, out, "total 3")

	out, err = runCLI(t, cfgPath, "task", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "#work #urgent")
	assert.Contains(t, out, "2026-03-01")
	assert.Contains(t, out, "startup")
}

func TestTaskStatusEditRemove(t *testing.T) {
	_, cfgPath := testConfig(t)

	_, err := runCLI(t, cfgPath, "task", "status", "1", "done")
	require.NoError(t, err)
	out, err := runCLI(t, cfgPath, "task", "list", "--status", "done")
	require.NoError(t, err)
	assert.Contains(t, out, "Review Internship Assignment")

	_, err = runCLI(t, cfgPath, "task", "status", "1", "blocked")
	require.ErrorIs(t, err, task.ErrInvalid)

	out, err = runCLI(t, cfgPath, "task", "edit", "2", "--title", "Set up repo", "--tags", "dev", "--due", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Set up repo")

	_, err = runCLI(t, cfgPath, "task", "edit", "missing", "--title", "x")
	require.ErrorIs(t, err, task.ErrNotFound)

	_, err = runCLI(t, cfgPath, "task", "edit", "2")
	require.Error(t, err)

	_, err = runCLI(t, cfgPath, "task", "done", "2")
	require.NoError(t, err)
	_, err = runCLI(t, cfgPath, "task", "rm", "1", "1")
	require.NoError(t, err)

	out, err = runCLI(t, cfgPath, "task", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Review Internship Assignment")
	assert.Contains(t, out, "Set up repo")
}

func TestTaskListRejectsUnknownSort(t *testing.T) {
	_, cfgPath := testConfig(t)

	_, err := runCLI(t, cfgPath, "task", "list", "--sort", "title")
	require.ErrorIs(t, err, view.ErrInvalidFilter)
}

func TestTaskExport(t *testing.T) {
	_, cfgPath := testConfig(t)

	out, err := runCLI(t, cfgPath, "task", "export", "--format", "json")
	require.NoError(t, err)
	var doc struct {
		Tasks []task.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Tasks, 2)

	file := filepath.Join(t.TempDir(), "tasks.yaml")
	_, err = runCLI(t, cfgPath, "task", "export", "-o", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var ydoc struct {
		Tasks []task.Task `yaml:"tasks"`
	}
	require.NoError(t, yaml.Unmarshal(data, &ydoc))
	require.Len(t, ydoc.Tasks, 2)
	assert.Equal(t, doc.Tasks[0].ID, ydoc.Tasks[0].ID)

	_, err = runCLI(t, cfgPath, "task", "export", "--format", "csv")
	require.Error(t, err)
}

func TestInsightWithoutCredential(t *testing.T) {
	_, cfgPath := testConfig(t)

	out, err := runCLI(t, cfgPath, "insight")
	require.NoError(t, err)
	assert.Equal(t, advisor.DisabledInsight, strings.TrimSpace(out))
}

func TestAddWithAIFallsBackWhenDisabled(t *testing.T) {
	_, cfgPath := testConfig(t)

	out, err := runCLI(t, cfgPath, "task", "add", "Write report", "--ai", "--tags", "urgent")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	out, err = runCLI(t, cfgPath, "task", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "#urgent")
}

func TestInitWritesConfigAndDatabase(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := runCLI(t, config.DefaultPath, "init")
	require.NoError(t, err)
	assert.FileExists(t, config.DefaultPath)
	assert.FileExists(t, filepath.Join(config.Dir, "taskflow.db"))

	cfg, err := config.Load(config.DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = runCLI(t, config.DefaultPath, "init")
	require.NoError(t, err)
}

func TestInitHonoursEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "elsewhere.db")
	t.Setenv("TASKFLOW_STORE_PATH", dbPath)

	_, err := runCLI(t, config.DefaultPath, "init", "--force")
	require.NoError(t, err)
	assert.FileExists(t, config.DefaultPath)
	assert.FileExists(t, dbPath)
	assert.NoFileExists(t, filepath.Join(config.Dir, "taskflow.db"))
}

func TestEditAdjustsTags(t *testing.T) {
	_, cfgPath := testConfig(t)

	out, err := runCLI(t, cfgPath, "task", "edit", "1", "--add-tag", "review", "--remove-tag", "planning")
	require.NoError(t, err)
	assert.Contains(t, out, "#internship #review")
	assert.NotContains(t, out, "#planning")

	out, err = runCLI(t, cfgPath, "task", "edit", "1", "--tags", "a,b", "--remove-tag", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "#b")
	assert.NotContains(t, out, "#a ")
	assert.NotContains(t, out, "#internship")
}

func TestServeGraph(t *testing.T) {
	cfg, _ := testConfig(t)
	require.NoError(t, fx.ValidateApp(serveOptions(cfg)...))

	var srv *http.Server
	app := fxtest.New(t, append(serveOptions(cfg), fx.Populate(&srv))...)
	app.RequireStart()
	defer app.RequireStop()

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats view.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
}
