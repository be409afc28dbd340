package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/nutricoach/coach-core/internal/coach/model"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey           string
	BaseURL          string
	ClassifierConfig *model.ClassifierModelConfig
	OptionConfig     *model.OptionModelConfig
}

// ChatModels holds the intent classifier and the food-option generator.
// Both share one genai client; provider specifics stay behind this type so
// the rest of the graph is vendor-agnostic. Each model is wrapped so its
// failures carry the provider status through the graph.
type ChatModels struct {
	Classifier          einomodel.BaseChatModel
	OptionGen           einomodel.BaseChatModel
	ClassifierModelName string
	OptionModelName     string
}

// NewChatModels creates both chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	classifier, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ClassifierConfig.Model,
		Temperature: &config.ClassifierConfig.Temperature,
		MaxTokens:   &config.ClassifierConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	optionGen, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.OptionConfig.Model,
		Temperature: &config.OptionConfig.Temperature,
		MaxTokens:   &config.OptionConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating option generator model")
		return nil, fmt.Errorf("error creating option generator model: %w", err)
	}

	return &ChatModels{
		Classifier:          &statusChatModel{inner: classifier},
		OptionGen:           &statusChatModel{inner: optionGen},
		ClassifierModelName: config.ClassifierConfig.Model,
		OptionModelName:     config.OptionConfig.Model,
	}, nil
}
