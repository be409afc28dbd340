package model

// ================ Config ================
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"168h"`
	Context struct {
		MaxTurns int `envconfig:"CONVERSATION_CONTEXT_MAX_TURNS" default:"10"`
	}
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.1"`
}

type OptionModelConfig struct {
	Model       string  `envconfig:"OPTION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"OPTION_MAX_TOKENS" default:"1200"`
	Temperature float32 `envconfig:"OPTION_TEMPERATURE" default:"0.2"`
}

type CoachPromptConfig struct {
	CoachName         string `envconfig:"PROMPT_COACH_NAME" default:"Coach"`
	MeasurementSystem string `envconfig:"PROMPT_MEASUREMENT_SYSTEM" default:"metric"`
}
