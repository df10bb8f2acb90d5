// Package advisor drafts task details and a daily insight sentence with a hosted language model.
//
// Enhance is best effort and reports failures to the caller. DailyInsight never fails: it
// degrades to a fixed sentence so that it can never block rendering of the task list.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/metalagman/taskflow/internal/task"
	"github.com/rs/zerolog/log"
)

// ErrDisabled is returned by Enhance when no credential is configured.
var ErrDisabled = errors.New("AI not configured")

// Fallback sentences for DailyInsight.
const (
	DisabledInsight = "AI not configured"
	NoTasksInsight  = "You have no tasks yet. Add one to get started!"
	EmptyInsight    = "Keep pushing forward!"
	ErrorInsight    = "Focus on your highest priority task first."
)

// Providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

const (
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultGeminiKeyEnv = "GEMINI_API_KEY"
	defaultOpenAIKeyEnv = "OPENAI_API_KEY"
)

// Advisor is the AI capability used by the task flows.
type Advisor interface {
	// Enabled reports whether a credential is configured.
	Enabled() bool
	// Enhance suggests a description, priority and tags for a task title.
	Enhance(ctx context.Context, title string) (Suggestion, error)
	// DailyInsight returns one motivating sentence about the given titles.
	DailyInsight(ctx context.Context, titles []string) string
}

// Suggestion is the result of Enhance. Empty fields were not returned.
type Suggestion struct {
	Description string        `json:"description,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
}

// ApplyTo merges the suggestion into a draft. Tags are appended without duplicates;
// description and priority are replaced only when the suggestion carries a value.
func (s Suggestion) ApplyTo(d task.Draft) task.Draft {
	if s.Description != "" {
		d.Description = s.Description
	}
	if s.Priority.Valid() {
		d.Priority = s.Priority
	}
	if s.Tags != nil {
		d.Tags = task.MergeTags(d.Tags, s.Tags...)
	}
	return d
}

// Config configures the advisor backend.
type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Timeout   time.Duration
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// ResolveAPIKey returns the configured key, falling back to the provider's environment variable.
func (c Config) ResolveAPIKey() string {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key
	}
	env := strings.TrimSpace(c.APIKeyEnv)
	if env == "" {
		env = defaultGeminiKeyEnv
		if c.provider() == ProviderOpenAI {
			env = defaultOpenAIKeyEnv
		}
	}
	return strings.TrimSpace(os.Getenv(env))
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderGemini
	}
	return p
}

// New builds an advisor from cfg. Without a credential it returns a disabled advisor.
func New(ctx context.Context, cfg Config) (Advisor, error) {
	apiKey := cfg.ResolveAPIKey()
	if apiKey == "" {
		log.Debug().Str("provider", cfg.provider()).Msg("no AI credential configured, advisor disabled")
		return Disabled{}, nil
	}

	var (
		b   backend
		err error
	)
	switch cfg.provider() {
	case ProviderGemini:
		b, err = newGeminiBackend(ctx, cfg, apiKey)
	case ProviderOpenAI:
		b, err = newOpenAIBackend(cfg, apiKey)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q (allowed: gemini, openai)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &Client{backend: b, timeout: cfg.Timeout}, nil
}

// Disabled is the advisor used when no credential is configured.
type Disabled struct{}

// Enabled implements Advisor.
func (Disabled) Enabled() bool { return false }

// Enhance implements Advisor.
func (Disabled) Enhance(context.Context, string) (Suggestion, error) {
	return Suggestion{}, ErrDisabled
}

// DailyInsight implements Advisor.
func (Disabled) DailyInsight(context.Context, []string) string {
	return DisabledInsight
}
