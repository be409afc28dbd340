package graph

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/nutricoach/coach-core/internal/coach/fulfill"
	"github.com/nutricoach/coach-core/internal/coach/graph/conversations"
	"github.com/nutricoach/coach-core/internal/coach/graph/nodes"
	"github.com/nutricoach/coach-core/internal/coach/graph/observers"
	"github.com/nutricoach/coach-core/internal/coach/model"
	errx "github.com/nutricoach/coach-core/internal/core/error"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

// Engine is a thin wrapper to execute the compiled graph for one user turn.
// ProcessTurn always returns a well-formed result: every failure inside the
// graph is converted to a user-facing message here, never propagated.
type Engine interface {
	ProcessTurn(ctx context.Context, in model.TurnInput) *model.CoachResult
}

// Config holds everything needed to compose the full coach graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the
// ChatModels, TurnsManager and fulfillment handlers.
type Config struct {
	APIKey          string
	BaseURL         string
	ClassifierModel model.ClassifierModelConfig
	OptionModel     model.OptionModelConfig
	Prompt          model.CoachPromptConfig
	Conversation    model.ConversationConfig
	TurnRepo        model.TurnRepository
	Entities        model.EntityGateway
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels   *nodes.ChatModels
	TurnsManager *conversations.TurnsManager
	Handlers     *fulfill.Handlers
	PromptConfig *model.CoachPromptConfig
}

// GraphBuilder handles the construction of the coach turn graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *model.CoachResult]
}

type engineRunner struct {
	runnable compose.Runnable[model.TurnInput, *model.CoachResult]
}

func (r *engineRunner) ProcessTurn(ctx context.Context, in model.TurnInput) *model.CoachResult {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Str("user_id", in.UserID).Msg("turn processing failed")
		if isOverloaded(err) {
			return &model.CoachResult{
				Action:   model.ActionNone,
				Response: "The coaching service is overloaded right now. Please try again in a moment.",
			}
		}
		return &model.CoachResult{
			Action:   model.ActionNone,
			Response: "An unexpected error occurred while processing your request.",
		}
	}
	if out == nil {
		return &model.CoachResult{
			Action:   model.ActionNone,
			Response: "An unexpected error occurred while processing your request.",
		}
	}
	return out
}

// isOverloaded detects a provider 503 whether it arrives as a wrapped
// AppError or as a raw transport error.
func isOverloaded(err error) bool {
	if errx.StatusOf(err) == http.StatusServiceUnavailable {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") || strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable")
}

// BuildCoachEngine composes the ChatModels, TurnsManager and fulfillment
// handlers, builds the graph, and returns an Engine.
func BuildCoachEngine(ctx context.Context, cfg Config) (Engine, error) {
	if cfg.TurnRepo == nil {
		return nil, fmt.Errorf("turn repo is nil")
	}
	if cfg.Entities == nil {
		return nil, fmt.Errorf("entity gateway is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ClassifierConfig: &cfg.ClassifierModel,
		OptionConfig:     &cfg.OptionModel,
	})
	if err != nil {
		return nil, err
	}

	tm := conversations.NewTurnsManager(cfg.TurnRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:   cms,
		TurnsManager: tm,
		Handlers:     fulfill.New(cfg.Entities),
		PromptConfig: &cfg.Prompt,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Coach graph built successfully")
	return &engineRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled coach graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *model.CoachResult], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Classifier == nil || config.ChatModels.OptionGen == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.TurnsManager == nil {
		return nil, fmt.Errorf("turns manager is nil")
	}
	if config.Handlers == nil {
		return nil, fmt.Errorf("fulfillment handlers are nil")
	}
	if config.PromptConfig == nil {
		return nil, fmt.Errorf("prompt config is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *model.CoachResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeIntake,
		nodes.NewIntakeNode(b.config.TurnsManager),
		compose.WithStatePreHandler(nodes.NewIntakePreHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeEmptyInput, nodes.NewEmptyInputNode())
	b.graph.AddLambdaNode(nodes.NodeSelection, nodes.NewSelectionNode(b.config.Handlers))

	b.graph.AddLambdaNode(nodes.NodePromptBuilder,
		nodes.NewPromptBuilderNode(b.config.TurnsManager, b.config.PromptConfig),
	)

	b.graph.AddChatModelNode(nodes.NodeClassifier,
		b.config.ChatModels.Classifier,
		compose.WithStatePostHandler(nodes.NewClassifierPostHandler(b.config.ChatModels.ClassifierModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeParser,
		nodes.NewParserNode(),
		compose.WithStatePostHandler(nodes.NewParserPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeFoodHandler, nodes.NewFoodHandlerNode(b.config.Handlers))
	b.graph.AddLambdaNode(nodes.NodeExerciseHandler, nodes.NewExerciseHandlerNode(b.config.Handlers))
	b.graph.AddLambdaNode(nodes.NodeMeasurementHandler, nodes.NewMeasurementHandlerNode(b.config.Handlers))
	b.graph.AddLambdaNode(nodes.NodeWaterHandler, nodes.NewWaterHandlerNode(b.config.Handlers))
	b.graph.AddLambdaNode(nodes.NodeChatHandler, nodes.NewChatHandlerNode(b.config.Handlers))
	b.graph.AddLambdaNode(nodes.NodeClarify, nodes.NewClarifyNode(b.config.Handlers))

	b.graph.AddLambdaNode(nodes.NodeFoodOptions, nodes.NewFoodOptionsNode(b.config.ChatModels))
	b.graph.AddLambdaNode(nodes.NodeFinalize, nodes.NewFinalizeNode(b.config.TurnsManager))
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeIntake},
		{nodes.NodePromptBuilder, nodes.NodeClassifier},
		{nodes.NodeClassifier, nodes.NodeParser},
		{nodes.NodeEmptyInput, compose.END},
		{nodes.NodeSelection, nodes.NodeFinalize},
		{nodes.NodeExerciseHandler, nodes.NodeFinalize},
		{nodes.NodeMeasurementHandler, nodes.NodeFinalize},
		{nodes.NodeWaterHandler, nodes.NodeFinalize},
		{nodes.NodeChatHandler, nodes.NodeFinalize},
		{nodes.NodeClarify, nodes.NodeFinalize},
		{nodes.NodeFoodOptions, nodes.NodeFinalize},
		{nodes.NodeFinalize, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	intakeBranch := compose.NewGraphBranch(
		nodes.NewIntakeCondition(),
		map[string]bool{
			nodes.NodeEmptyInput:    true,
			nodes.NodeSelection:     true,
			nodes.NodePromptBuilder: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeIntake, intakeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intake branch")
		return fmt.Errorf("error adding intake branch: %w", err)
	}

	intentBranch := compose.NewGraphBranch(
		nodes.NewIntentCondition(),
		map[string]bool{
			nodes.NodeFoodHandler:        true,
			nodes.NodeExerciseHandler:    true,
			nodes.NodeMeasurementHandler: true,
			nodes.NodeWaterHandler:       true,
			nodes.NodeChatHandler:        true,
			nodes.NodeClarify:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeParser, intentBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding intent branch")
		return fmt.Errorf("error adding intent branch: %w", err)
	}

	fallbackBranch := compose.NewGraphBranch(
		nodes.NewFoodFallbackCondition(),
		map[string]bool{
			nodes.NodeFoodOptions: true,
			nodes.NodeFinalize:    true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeFoodHandler, fallbackBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding food fallback branch")
		return fmt.Errorf("error adding food fallback branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.CoachResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
