package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/nutricoach/coach-core/internal/coach/model"
)

//go:embed template/coach_prompt.txt
var coachSystemPrompt string

// RenderCoachSystem renders the classifier system prompt and triggers prompt callbacks.
func RenderCoachSystem(ctx context.Context, config model.CoachPromptConfig, localDate time.Time) (string, error) {
	name := strings.TrimSpace(config.CoachName)
	if name == "" {
		name = "Coach"
	}
	system := strings.ToLower(strings.TrimSpace(config.MeasurementSystem))
	if system != "imperial" {
		system = "metric"
	}

	// Render via Eino prompt component (Go template) to both format and emit callbacks
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(coachSystemPrompt),
	)
	vars := map[string]any{
		"CoachName":         name,
		"MeasurementSystem": system,
		"LocalDate":         localDate.Format("2006-01-02"),
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("coach prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("coach prompt render: empty result")
	}
	return msgs[0].Content, nil
}
