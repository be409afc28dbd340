package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/food_options_prompt.txt
var foodOptionsPrompt string

// RenderFoodOptions renders the constrained option-generation prompt for a
// food the entity store could not match. Known tokens are replaced directly
// to avoid interfering with the JSON braces in the template.
func RenderFoodOptions(ctx context.Context, foodName, unit string, quantity float64) (string, error) {
	if strings.TrimSpace(foodName) == "" {
		return "", fmt.Errorf("food name is empty")
	}
	if strings.TrimSpace(unit) == "" {
		unit = "serving"
	}

	content := strings.NewReplacer(
		"{food_name}", foodName,
		"{unit}", unit,
		"{quantity}", strconv.FormatFloat(quantity, 'f', -1, 64),
	).Replace(foodOptionsPrompt)

	// Wrap via Eino prompt component using a messages placeholder to emit callbacks
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("food options prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("food options prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
