package model

import (
	"context"
	"time"
)

// SearchMode selects between an exact case-insensitive name match and a
// broader substring match.
type SearchMode string

const (
	SearchExact SearchMode = "exact"
	SearchBroad SearchMode = "broad"
)

// Food is a stored food with its base serving. Nutrient values are always
// per ServingSize of ServingUnit; scaling to a logged quantity is
// value * quantity / ServingSize.
type Food struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ServingSize      float64 `json:"serving_size"`
	ServingUnit      string  `json:"serving_unit"`
	Calories         float64 `json:"calories"`
	Protein          float64 `json:"protein"`
	Carbs            float64 `json:"carbs"`
	Fat              float64 `json:"fat"`
	DefaultVariantID string  `json:"default_variant_id,omitempty"`
	UserOwned        bool    `json:"user_owned"`
}

// FoodVariant is an alternate serving definition for a Food, with its own
// size/unit and nutrient vector.
type FoodVariant struct {
	ID          string  `json:"id"`
	FoodID      string  `json:"food_id"`
	Name        string  `json:"name"`
	ServingSize float64 `json:"serving_size"`
	ServingUnit string  `json:"serving_unit"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
}

// DiaryEntry is one logged food consumption row.
type DiaryEntry struct {
	FoodID    string  `json:"food_id"`
	VariantID string  `json:"variant_id,omitempty"`
	MealType  string  `json:"meal_type"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	EntryDate string  `json:"entry_date"`
}

// Exercise is a stored exercise with its kcal/hour rate.
type Exercise struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	CaloriesPerHour float64 `json:"calories_per_hour"`
	UserOwned       bool    `json:"user_owned"`
}

// ExerciseEntry is one logged exercise session.
type ExerciseEntry struct {
	ExerciseID      string  `json:"exercise_id"`
	DurationMinutes float64 `json:"duration_minutes"`
	CaloriesBurned  float64 `json:"calories_burned"`
	EntryDate       string  `json:"entry_date"`
}

// CheckInField names one column of the per-day check-in row.
type CheckInField string

const (
	CheckInWeight CheckInField = "weight"
	CheckInNeck   CheckInField = "neck"
	CheckInWaist  CheckInField = "waist"
	CheckInHips   CheckInField = "hips"
	CheckInSteps  CheckInField = "steps"
)

// CheckInFieldFor maps a measurement type to a check-in field, if recognized.
func CheckInFieldFor(measurementType string) (CheckInField, bool) {
	switch CheckInField(measurementType) {
	case CheckInWeight, CheckInNeck, CheckInWaist, CheckInHips, CheckInSteps:
		return CheckInField(measurementType), true
	}
	return "", false
}

// CustomCategory is a user-defined measurement category.
type CustomCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
	Type      string `json:"type"`
}

// CustomMeasurement is one timestamped entry in a custom category.
type CustomMeasurement struct {
	CategoryID string    `json:"category_id"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	EntryDate  string    `json:"entry_date"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WaterEntry is one logged water intake, already normalized to milliliters.
type WaterEntry struct {
	Milliliters float64 `json:"milliliters"`
	EntryDate   string  `json:"entry_date"`
}

// EntityGateway is the persistence collaborator for domain records. Search
// functions return nil without error when nothing matches; every other
// failure is an error the caller converts to a user-facing message.
type EntityGateway interface {
	SearchFood(ctx context.Context, userID, name string, mode SearchMode) (*Food, error)
	CreateFood(ctx context.Context, userID string, f *Food) (*Food, error)
	FindFoodVariant(ctx context.Context, foodID, servingUnit string) (*FoodVariant, error)
	CreateFoodVariant(ctx context.Context, v *FoodVariant) (*FoodVariant, error)
	CreateDiaryEntry(ctx context.Context, userID string, e *DiaryEntry) error

	SearchExercise(ctx context.Context, userID, name string, mode SearchMode) (*Exercise, error)
	CreateExercise(ctx context.Context, userID string, ex *Exercise) (*Exercise, error)
	CreateExerciseEntry(ctx context.Context, userID string, e *ExerciseEntry) error

	UpsertCheckIn(ctx context.Context, userID, day string, field CheckInField, value float64) error
	SearchCustomCategory(ctx context.Context, userID, name string) (*CustomCategory, error)
	CreateCustomCategory(ctx context.Context, userID string, c *CustomCategory) (*CustomCategory, error)
	CreateCustomMeasurement(ctx context.Context, userID string, m *CustomMeasurement) error

	CreateWaterEntry(ctx context.Context, userID string, w *WaterEntry) error
}
