package nodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/nutricoach/coach-core/internal/coach/fulfill"
	"github.com/nutricoach/coach-core/internal/coach/graph/conversations"
	"github.com/nutricoach/coach-core/internal/coach/graph/parsers"
	"github.com/nutricoach/coach-core/internal/coach/graph/prompts"
	"github.com/nutricoach/coach-core/internal/coach/model"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

// Graph node names
const (
	NodeIntake             = "Intake"
	NodeEmptyInput         = "EmptyInput"
	NodeSelection          = "Selection"
	NodePromptBuilder      = "PromptBuilder"
	NodeClassifier         = "ClassifierChatModel"
	NodeParser             = "ReplyParser"
	NodeFoodHandler        = "FoodHandler"
	NodeExerciseHandler    = "ExerciseHandler"
	NodeMeasurementHandler = "MeasurementHandler"
	NodeWaterHandler       = "WaterHandler"
	NodeChatHandler        = "ChatHandler"
	NodeClarify            = "Clarify"
	NodeFoodOptions        = "FoodOptions"
	NodeFinalize           = "Finalize"
)

const entryDateLayout = "2006-01-02"

// NewIntakePreHandler seeds per-turn state from the input.
func NewIntakePreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.UserID = in.UserID
		s.LocalDate = in.LocalDate
		if s.LocalDate.IsZero() {
			s.LocalDate = time.Now()
		}
		s.RawText = strings.TrimSpace(in.Text)
		// Reset per-turn fields for each new invocation
		s.History = nil
		s.Pending = nil
		s.Parsed = nil
		s.EntryDate = ""
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewIntakeNode loads recent history plus any pending food-options offer and
// records the user turn. Invalid input passes straight through; the intake
// branch routes it to the empty-input reply without touching history.
func NewIntakeNode(tm *conversations.TurnsManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) (model.TurnInput, error) {
		if strings.TrimSpace(input.Text) == "" && input.ImageDataURL == "" {
			return input, nil
		}

		recent, err := tm.RecentTurns(ctx, input.UserID)
		if err != nil {
			return input, fmt.Errorf("load recent turns: %w", err)
		}
		pending := tm.PendingSelection(recent)

		if err := tm.SaveUserTurn(ctx, input.UserID, input.Text, input.ImageDataURL != ""); err != nil {
			// history write failure must not block the turn
			logx.Error().Err(err).Str("user_id", input.UserID).Msg("failed to save user turn")
		}

		err = compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.History = recent
			s.Pending = pending
			return nil
		})
		if err != nil {
			return input, fmt.Errorf("failed to access state: %w", err)
		}
		return input, nil
	})
}

// NewIntakeCondition routes each turn: missing content, a numeric reply to an
// open food-options offer (the only path that skips the model entirely), or
// the normal classification path. The selection check runs first,
// unconditionally.
func NewIntakeCondition() func(context.Context, model.TurnInput) (string, error) {
	return func(ctx context.Context, input model.TurnInput) (string, error) {
		var pending *model.PendingSelection
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			pending = s.Pending
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		node := routeIntake(input.Text, input.ImageDataURL, pending)
		if node == NodeSelection {
			logx.Debug().Str("user_id", input.UserID).Msg("numeric reply resolves pending food options")
		}
		return node, nil
	}
}

// routeIntake picks the intake branch target. A numeric reply against an open
// offer always resolves as a selection, before any classification.
func routeIntake(text, imageDataURL string, pending *model.PendingSelection) string {
	text = strings.TrimSpace(text)
	if text == "" && imageDataURL == "" {
		return NodeEmptyInput
	}
	if pending != nil {
		if _, err := strconv.Atoi(text); err == nil {
			return NodeSelection
		}
	}
	return NodePromptBuilder
}

// NewEmptyInputNode replies to turns carrying neither text nor an image.
func NewEmptyInputNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) (*model.CoachResult, error) {
		return &model.CoachResult{
			Action:   model.ActionNone,
			Response: "Please provide text or an image.",
		}, nil
	})
}

// NewSelectionNode resolves a numeric reply against the previously offered
// food options, bypassing the model.
func NewSelectionNode(handlers *fulfill.Handlers) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) (*model.CoachResult, error) {
		var userID string
		var pending *model.PendingSelection
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			userID = s.UserID
			pending = s.Pending
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		choice, err := strconv.Atoi(strings.TrimSpace(input.Text))
		if err != nil {
			return &model.CoachResult{Action: model.ActionNone, Response: "Invalid option selected."}, nil
		}
		return handlers.SelectOption(ctx, userID, choice-1, pending), nil
	})
}

// NewPromptBuilderNode renders the classifier system prompt and assembles
// the bounded transcript, current message first.
func NewPromptBuilderNode(tm *conversations.TurnsManager, promptCfg *model.CoachPromptConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) ([]*schema.Message, error) {
		var localDate time.Time
		var history []*schema.Message
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			localDate = s.LocalDate
			history = s.History
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		systemPrompt, err := prompts.RenderCoachSystem(ctx, *promptCfg, localDate)
		if err != nil {
			return nil, fmt.Errorf("render coach system prompt: %w", err)
		}
		return tm.BuildModelContext(systemPrompt, input.Text, input.ImageDataURL, history), nil
	})
}

// NewClassifierPostHandler computes and logs usage cost for the classifier model.
func NewClassifierPostHandler(modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		if out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
			logx.Debug().
				Str("user_id", state.UserID).
				Str("node", NodeClassifier).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")
			state.TotalCostUSD += totalC
		}
		return out, nil
	}
}

// NewParserNode parses the classifier reply. A reply that is not recoverable
// JSON degrades to a raw-text advice turn instead of failing the graph.
func NewParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (*model.ParsedReply, error) {
		return classifyReply(resp.Content)
	})
}

func classifyReply(content string) (*model.ParsedReply, error) {
	parsed, err := parsers.ParseReply(content)
	if err != nil {
		if errors.Is(err, parsers.ErrUnparsable) {
			logx.Warn().Err(err).Msg("model reply unparsable, degrading to raw advice")
			return &model.ParsedReply{
				Unparsed: true,
				Raw:      strings.TrimSpace(content),
			}, nil
		}
		logx.Error().Err(err).Msg("Error parsing classifier reply")
		return nil, err
	}
	parsed.Raw = content
	return parsed, nil
}

// NewParserPostHandler stores the parsed reply and resolves the canonical
// entry date once, so every handler in the turn agrees on the diary day.
func NewParserPostHandler() func(context.Context, *model.ParsedReply, *model.TurnState) (*model.ParsedReply, error) {
	return func(ctx context.Context, out *model.ParsedReply, state *model.TurnState) (*model.ParsedReply, error) {
		state.Parsed = out

		date := parsers.ResolveEntryDate(out.EntryDate, state.RawText, state.LocalDate)
		if date == "" {
			date = state.LocalDate.Format(entryDateLayout)
		}
		state.EntryDate = date

		logx.Debug().
			Str("user_id", state.UserID).
			Str("intent", string(out.Intent)).
			Str("entry_date", date).
			Bool("unparsed", out.Unparsed).
			Msg("reply classified")
		return out, nil
	}
}

// NewIntentCondition routes the parsed reply to its fulfillment handler.
// Intent values outside the closed set fall through to the clarify node.
func NewIntentCondition() func(context.Context, *model.ParsedReply) (string, error) {
	return func(ctx context.Context, parsed *model.ParsedReply) (string, error) {
		if parsed.Unparsed {
			return NodeChatHandler, nil
		}
		switch parsed.Intent {
		case model.IntentLogFood:
			return NodeFoodHandler, nil
		case model.IntentLogExercise:
			return NodeExerciseHandler, nil
		case model.IntentLogMeasurement:
			return NodeMeasurementHandler, nil
		case model.IntentLogWater:
			return NodeWaterHandler, nil
		case model.IntentAskQuestion, model.IntentChat:
			return NodeChatHandler, nil
		}
		logx.Warn().Str("intent", string(parsed.Intent)).Msg("intent outside the closed set")
		return NodeClarify, nil
	}
}

// turnScope reads the identifiers every handler needs from state.
func turnScope(ctx context.Context) (userID, entryDate string, err error) {
	err = compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		userID = s.UserID
		entryDate = s.EntryDate
		return nil
	})
	return
}

// decodeData unmarshals the intent payload; a malformed payload is reported
// via ok=false so the handler asks for clarification instead of erroring.
func decodeData(parsed *model.ParsedReply, target any) bool {
	if len(parsed.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(parsed.Data, target); err != nil {
		logx.Warn().Err(err).Str("intent", string(parsed.Intent)).Msg("malformed intent data payload")
		return false
	}
	return true
}

func NewFoodHandlerNode(handlers *fulfill.Handlers) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, parsed *model.ParsedReply) (*model.CoachResult, error) {
		userID, entryDate, err := turnScope(ctx)
		if err != nil {
			return nil, err
		}
		var data model.FoodLogData
		if !decodeData(parsed, &data) {
			return handlers.Clarify(parsed), nil
		}
		return handlers.LogFood(ctx, userID, data, entryDate), nil
	})
}

func NewExerciseHandlerNode(handlers *fulfill.Handlers) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, parsed *model.ParsedReply) (*model.CoachResult, error) {
		userID, entryDate, err := turnScope(ctx)
		if err != nil {
			return nil, err
		}
		var data model.ExerciseLogData
		if !decodeData(parsed, &data) {
			return handlers.Clarify(parsed), nil
		}
		return handlers.LogExercise(ctx, userID, data, entryDate), nil
	})
}

func NewMeasurementHandlerNode(handlers *fulfill.Handlers) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, parsed *model.ParsedReply) (*model.CoachResult, error) {
		userID, entryDate, err := turnScope(ctx)
		if err != nil {
			return nil, err
		}
		var data model.MeasurementLogData
		if !decodeData(parsed, &data) {
			return handlers.Clarify(parsed), nil
		}
		return handlers.LogMeasurements(ctx, userID, data, entryDate), nil
	})
}

func NewWaterHandlerNode(handlers *fulfill.Handlers) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, parsed *model.ParsedReply) (*model.CoachResult, error) {
		userID, entryDate, err := turnScope(ctx)
		if err != nil {
			return nil, err
		}
		var data model.WaterLogData
		if !decodeData(parsed, &data) {
			return handlers.Clarify(parsed), nil
		}
		return handlers.LogWater(ctx, userID, data, entryDate), nil
	})
}

func NewChatHandlerNode(handlers *fulfill.Handlers) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, parsed *model.ParsedReply) (*model.CoachResult, error) {
		return handlers.Chat(parsed), nil
	})
}

func NewClarifyNode(handlers *fulfill.Handlers) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, parsed *model.ParsedReply) (*model.CoachResult, error) {
		return handlers.Clarify(parsed), nil
	})
}

// NewFinalizeNode persists the assistant turn (response text plus metadata)
// so a food-options offer is readable on the next turn.
func NewFinalizeNode(tm *conversations.TurnsManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, result *model.CoachResult) (*model.CoachResult, error) {
		var userID string
		var cost float64
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			userID = s.UserID
			cost = s.TotalCostUSD
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if err := tm.SaveResult(ctx, userID, result); err != nil {
			// losing a history write is recoverable; losing the turn is not
			logx.Error().Err(err).Str("user_id", userID).Msg("failed to save assistant turn")
		}
		if cost > 0 {
			logx.Debug().Str("user_id", userID).Float64("total_cost_usd", cost).Msg("turn cost")
		}
		return result, nil
	})
}
