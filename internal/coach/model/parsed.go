package model

import "encoding/json"

// IntentTag is the closed set of classifications the model may return.
// Anything outside this set degrades to a clarify reply, never an error.
type IntentTag string

const (
	IntentLogFood        IntentTag = "log_food"
	IntentLogExercise    IntentTag = "log_exercise"
	IntentLogMeasurement IntentTag = "log_measurement"
	IntentLogWater       IntentTag = "log_water"
	IntentAskQuestion    IntentTag = "ask_question"
	IntentChat           IntentTag = "chat"
)

// KnownIntent reports whether the tag belongs to the closed set.
func KnownIntent(t IntentTag) bool {
	switch t {
	case IntentLogFood, IntentLogExercise, IntentLogMeasurement, IntentLogWater,
		IntentAskQuestion, IntentChat:
		return true
	}
	return false
}

// ParsedReply is the structured form of one model reply. It exists only for
// the duration of a turn. When Unparsed is set the raw model text is kept in
// Raw and the turn degrades to a plain advice reply.
type ParsedReply struct {
	Intent    IntentTag       `json:"intent"`
	Data      json.RawMessage `json:"data"`
	EntryDate string          `json:"entryDate,omitempty"`
	Response  string          `json:"response,omitempty"`

	Raw      string `json:"-"`
	Unparsed bool   `json:"-"`
}

// FoodOption is an AI-proposed candidate food. Nutrients are per ServingSize
// of ServingUnit. Ephemeral until the user selects it.
type FoodOption struct {
	Name        string  `json:"name"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	ServingSize float64 `json:"serving_size"`
	ServingUnit string  `json:"serving_unit"`
	Fiber       float64 `json:"fiber,omitempty"`
	Sugar       float64 `json:"sugar,omitempty"`
	Sodium      float64 `json:"sodium,omitempty"`
}

// FoodLogData is the data payload for a log_food intent.
type FoodLogData struct {
	FoodName string  `json:"food_name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	MealType string  `json:"meal_type"`
	Calories float64 `json:"calories,omitempty"`
	Protein  float64 `json:"protein,omitempty"`
	Carbs    float64 `json:"carbs,omitempty"`
	Fat      float64 `json:"fat,omitempty"`
}

// ExerciseLogData is the data payload for a log_exercise intent.
type ExerciseLogData struct {
	Name            string  `json:"exercise_name"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// MeasurementItem is one entry of a log_measurement batch.
type MeasurementItem struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
	Name  string  `json:"name,omitempty"`
}

// MeasurementLogData is the data payload for a log_measurement intent.
type MeasurementLogData struct {
	Measurements []MeasurementItem `json:"measurements"`
}

// WaterLogData is the data payload for a log_water intent.
type WaterLogData struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}
