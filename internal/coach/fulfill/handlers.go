package fulfill

import (
	"math"
	"strconv"
	"strings"

	"github.com/nutricoach/coach-core/internal/coach/model"
)

// user-facing fallbacks shared across handlers
const (
	entityFailureReply = "Sorry, I couldn't save that right now. Please try again in a moment."
	clarifyReply       = "I'm not sure how to handle that. Can you rephrase?"
)

// Handlers fulfills parsed intents against the entity gateway. Every method
// returns a well-formed CoachResult; gateway failures become apologetic
// user-facing replies, never propagated errors.
type Handlers struct {
	entities model.EntityGateway
}

func New(entities model.EntityGateway) *Handlers {
	return &Handlers{entities: entities}
}

func resultNone(response string) *model.CoachResult {
	return &model.CoachResult{Action: model.ActionNone, Response: response}
}

// formatAmount renders quantities without trailing zeros (1, 1.5, 0.25).
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatCalories rounds to the nearest whole calorie for confirmations.
func formatCalories(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

func normalizeMealType(mealType string) string {
	switch strings.ToLower(strings.TrimSpace(mealType)) {
	case "breakfast":
		return "breakfast"
	case "lunch":
		return "lunch"
	case "dinner":
		return "dinner"
	default:
		return "snack"
	}
}
