package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/metalagman/taskflow/internal/task"
	"github.com/rs/zerolog/log"
)

// backend performs a single prompt/response round trip.
type backend interface {
	name() string
	// generateSuggestion asks for a JSON object shaped like Suggestion.
	generateSuggestion(ctx context.Context, prompt string) (string, error)
	generateText(ctx context.Context, prompt string) (string, error)
}

// Client is an enabled advisor backed by a hosted model.
type Client struct {
	backend backend
	timeout time.Duration
}

// Enabled implements Advisor.
func (c *Client) Enabled() bool { return true }

// Enhance implements Advisor.
func (c *Client) Enhance(ctx context.Context, title string) (Suggestion, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Suggestion{}, fmt.Errorf("enhance task: %w: title is required", task.ErrInvalid)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, err := c.backend.generateSuggestion(ctx, enhancePrompt(title))
	if err != nil {
		return Suggestion{}, fmt.Errorf("enhance task via %s: %w", c.backend.name(), err)
	}
	if strings.TrimSpace(raw) == "" {
		return Suggestion{}, nil
	}
	s, err := decodeSuggestion([]byte(raw))
	if err != nil {
		return Suggestion{}, fmt.Errorf("enhance task via %s: %w", c.backend.name(), err)
	}
	return s, nil
}

// DailyInsight implements Advisor.
func (c *Client) DailyInsight(ctx context.Context, titles []string) string {
	if len(titles) == 0 {
		return NoTasksInsight
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	prompt, err := insightPrompt(titles)
	if err != nil {
		log.Warn().Err(err).Msg("daily insight prompt")
		return ErrorInsight
	}
	text, err := c.backend.generateText(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("provider", c.backend.name()).Msg("daily insight failed")
		return ErrorInsight
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyInsight
	}
	return text
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func enhancePrompt(title string) string {
	return fmt.Sprintf(`I am creating a task in a task management system.
The title is: %q.
Please generate a concise but helpful description for this task, suggest a priority level (low, medium or high) based on the urgency implied, and provide up to 3 relevant tags.`, title)
}

func insightPrompt(titles []string) (string, error) {
	data, err := json.Marshal(titles)
	if err != nil {
		return "", fmt.Errorf("marshal titles: %w", err)
	}
	return fmt.Sprintf(`Here are my current task titles: %s.
Give me one short, motivating sentence about how to approach this workload.
Be witty but professional.`, data), nil
}
