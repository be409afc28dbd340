package model

import (
	"encoding/json"
	"time"
)

// TurnInput is one user message entering the engine. Text and image are both
// optional individually, but at least one must be present.
type TurnInput struct {
	UserID       string    `json:"user_id"`
	Text         string    `json:"text"`
	ImageDataURL string    `json:"image_data_url,omitempty"`
	LocalDate    time.Time `json:"local_date"`
}

// ResultAction classifies what the engine did with a turn.
type ResultAction string

const (
	ActionFoodAdded        ResultAction = "food_added"
	ActionExerciseAdded    ResultAction = "exercise_added"
	ActionMeasurementAdded ResultAction = "measurement_added"
	ActionWaterAdded       ResultAction = "water_added"
	ActionFoodOptions      ResultAction = "food_options"
	ActionAdvice           ResultAction = "advice"
	ActionChat             ResultAction = "chat"
	ActionNone             ResultAction = "none"
)

// CoachResult is the engine's output contract for one turn. Metadata, when
// present, is attached to the persisted assistant turn; the food-options
// sub-contract inside it is the only state carried across turns.
type CoachResult struct {
	Action   ResultAction   `json:"action"`
	Response string         `json:"response"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PendingSelection is the typed form of the food-options metadata attached to
// an assistant turn. It must contain everything the selection path needs,
// since no other session state exists.
type PendingSelection struct {
	MealType    string       `json:"mealType"`
	Quantity    float64      `json:"quantity"`
	Unit        string       `json:"unit"`
	EntryDate   string       `json:"entryDate"`
	FoodOptions []FoodOption `json:"foodOptions"`
}

// ToMetadata converts the pending selection to the loose metadata map stored
// on the assistant turn.
func (p *PendingSelection) ToMetadata() map[string]any {
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// PendingFromMetadata recovers a pending selection from persisted assistant
// metadata. Returns false when the metadata carries no usable food options,
// so a numeric reply falls through to the model instead.
func PendingFromMetadata(meta map[string]any) (*PendingSelection, bool) {
	if meta == nil {
		return nil, false
	}
	if _, ok := meta["foodOptions"]; !ok {
		return nil, false
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, false
	}
	var p PendingSelection
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, false
	}
	if len(p.FoodOptions) == 0 {
		return nil, false
	}
	return &p, true
}
