package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/nutricoach/coach-core/internal/coach/graph"
	"github.com/nutricoach/coach-core/internal/coach/model"
	"github.com/nutricoach/coach-core/internal/coach/repo"
	"github.com/nutricoach/coach-core/internal/core"
	"github.com/nutricoach/coach-core/internal/gateway/sqlite"
	logx "github.com/nutricoach/coach-core/pkg/logger"
	pkgredis "github.com/nutricoach/coach-core/pkg/redis"
)

// AppConfig defines all configurable parameters for the coach example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Redis       pkgredis.Config
	DBPath      string `envconfig:"COACH_DB_PATH" default:"coach.db"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Coach configs
	Classifier   model.ClassifierModelConfig
	Option       model.OptionModelConfig
	Prompt       model.CoachPromptConfig
	Conversation model.ConversationConfig
}

func main() {
	fmt.Println("Testing coach turn engine...")
	ctx := context.Background()
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb := envCfg.Redis.MustNew()
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	store, err := sqlite.New(envCfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open entity store: %v", err)
	}
	defer store.Close()

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	engine, err := graph.BuildCoachEngine(ctx, graph.Config{
		APIKey:          envCfg.APIKey,
		BaseURL:         envCfg.BaseURL,
		ClassifierModel: envCfg.Classifier,
		OptionModel:     envCfg.Option,
		Prompt:          envCfg.Prompt,
		Conversation:    envCfg.Conversation,
		TurnRepo:        repo.NewRedisTurnRepository(rdb, ttl),
		Entities:        store,
	})
	if err != nil {
		log.Fatalf("Failed to build coach engine: %v", err)
	}

	testTurns := []struct {
		description string
		text        string
	}{
		{
			description: "Log a common food",
			text:        "I had 2 eggs for breakfast",
		},
		{
			description: "Log an exercise session",
			text:        "went for a 30 minute run this morning",
		},
		{
			description: "Log a morning weigh-in",
			text:        "weighed in at 82.4 kg today",
		},
		{
			description: "Log water intake",
			text:        "drank 2 glasses of water",
		},
		{
			description: "Ask a nutrition question",
			text:        "how much protein should I be eating per day?",
		},
	}

	userID := "demo-user-1"
	localDate := time.Now()

	for i, test := range testTurns {
		fmt.Printf("\nTurn %d: %s\n", i+1, test.description)
		fmt.Printf("Input: %q\n", test.text)
		fmt.Println("Processing...")

		result := engine.ProcessTurn(ctx, model.TurnInput{
			UserID:    userID,
			Text:      test.text,
			LocalDate: localDate,
		})

		fmt.Printf("Action: %s\n", result.Action)
		fmt.Printf("Response: %s\n", result.Response)
		fmt.Println("------------------------------------------------")

		// slight delay between turns for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All coach turns completed.")
}
