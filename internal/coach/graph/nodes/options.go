package nodes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/nutricoach/coach-core/internal/coach/fulfill"
	"github.com/nutricoach/coach-core/internal/coach/graph/parsers"
	"github.com/nutricoach/coach-core/internal/coach/graph/prompts"
	"github.com/nutricoach/coach-core/internal/coach/model"
	errx "github.com/nutricoach/coach-core/internal/core/error"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

// NewFoodFallbackCondition routes a food result that found no usable match
// into the option-generation round-trip; everything else goes straight to
// finalize. At most one such round-trip happens per ambiguous food.
func NewFoodFallbackCondition() func(context.Context, *model.CoachResult) (string, error) {
	return func(ctx context.Context, result *model.CoachResult) (string, error) {
		if fulfill.IsFallback(result) {
			return NodeFoodOptions, nil
		}
		return NodeFinalize, nil
	}
}

// NewFoodOptionsNode asks the option generator for 2-3 candidate entries for
// the unmatched food and turns them into a numbered offer whose metadata
// carries everything the selection path needs. The second model call is
// best-effort: failures become a terminal apology rather than an engine
// error, except a provider 503, which propagates so the turn reports the
// overload.
func NewFoodOptionsNode(cms *ChatModels) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, fallback *model.CoachResult) (*model.CoachResult, error) {
		foodName, unit, mealType, entryDate, quantity := fulfill.FallbackRequest(fallback)

		terminal := &model.CoachResult{
			Action: model.ActionNone,
			Response: fmt.Sprintf(
				"I couldn't find %q in your foods and couldn't generate options for it. Try describing it differently.",
				foodName),
		}

		systemPrompt, err := prompts.RenderFoodOptions(ctx, foodName, unit, quantity)
		if err != nil {
			logx.Error().Err(err).Str("food", foodName).Msg("render food options prompt failed")
			return terminal, nil
		}

		out, err := cms.OptionGen.Generate(ctx, []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(fmt.Sprintf("Propose options for %q in %q.", foodName, unit)),
		})
		if err != nil {
			// an overloaded provider surfaces as such, not as a missing food
			if errx.StatusOf(err) == http.StatusServiceUnavailable {
				return nil, err
			}
			logx.Error().Err(err).Str("food", foodName).Msg("option generation call failed")
			return terminal, nil
		}

		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			_, _, totalC := model.ComputeCost(out.ResponseMeta.Usage, model.ResolvePricing(cms.OptionModelName))
			if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
				s.TotalCostUSD += totalC
				return nil
			}); err != nil {
				logx.Warn().Err(err).Msg("failed to accumulate option model cost")
			}
		}

		options, err := parsers.ParseFoodOptions(out.Content)
		if err != nil {
			logx.Warn().Err(err).Str("food", foodName).Msg("option generation reply unparsable")
			return terminal, nil
		}

		pending := &model.PendingSelection{
			MealType:    mealType,
			Quantity:    quantity,
			Unit:        unit,
			EntryDate:   entryDate,
			FoodOptions: options,
		}
		return &model.CoachResult{
			Action:   model.ActionFoodOptions,
			Response: fulfill.FormatOptions(foodName, options),
			Metadata: pending.ToMetadata(),
		}, nil
	})
}
