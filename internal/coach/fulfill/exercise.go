package fulfill

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/nutricoach/coach-core/internal/coach/model"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

const defaultCaloriesPerHour = 300

// keyword rates for exercises the store has never seen
var exerciseRates = []struct {
	keyword string
	perHour float64
}{
	{"walk", 250},
	{"run", 600},
	{"jog", 600},
	{"cycle", 500},
	{"bike", 500},
	{"swim", 400},
	{"yoga", 200},
	{"hike", 350},
}

// LogExercise resolves or creates an exercise and records a session. A
// lookup failure never blocks logging: the exercise is created with a
// heuristic kcal/hour rate instead.
func (h *Handlers) LogExercise(ctx context.Context, userID string, data model.ExerciseLogData, entryDate string) *model.CoachResult {
	name := strings.TrimSpace(data.Name)
	if name == "" {
		return resultNone("What exercise would you like to log?")
	}
	if data.DurationMinutes <= 0 {
		return resultNone(fmt.Sprintf("How long did you do %s for?", name))
	}

	exercise := h.resolveExercise(ctx, userID, name)
	if exercise == nil {
		created, err := h.entities.CreateExercise(ctx, userID, &model.Exercise{
			Name:            name,
			CaloriesPerHour: estimateCaloriesPerHour(name),
			UserOwned:       true,
		})
		if err != nil {
			logx.Error().Err(err).Str("exercise", name).Msg("exercise create failed")
			return resultNone(entityFailureReply)
		}
		exercise = created
	}

	burned := math.Round(exercise.CaloriesPerHour / 60 * data.DurationMinutes)
	entry := &model.ExerciseEntry{
		ExerciseID:      exercise.ID,
		DurationMinutes: data.DurationMinutes,
		CaloriesBurned:  burned,
		EntryDate:       entryDate,
	}
	if err := h.entities.CreateExerciseEntry(ctx, userID, entry); err != nil {
		logx.Error().Err(err).Str("exercise_id", exercise.ID).Msg("exercise entry insert failed")
		return resultNone(entityFailureReply)
	}

	logx.Debug().
		Str("user_id", userID).
		Str("exercise_id", exercise.ID).
		Float64("duration_min", data.DurationMinutes).
		Float64("calories_burned", burned).
		Msg("exercise logged")

	return &model.CoachResult{
		Action: model.ActionExerciseAdded,
		Response: fmt.Sprintf("Logged %s min of %s (~%s cal burned) for %s.",
			formatAmount(data.DurationMinutes), exercise.Name, formatAmount(burned), entryDate),
	}
}

// resolveExercise searches exact then broad; search errors degrade to nil so
// the caller creates the exercise rather than failing the turn.
func (h *Handlers) resolveExercise(ctx context.Context, userID, name string) *model.Exercise {
	exercise, err := h.entities.SearchExercise(ctx, userID, name, model.SearchExact)
	if err != nil {
		logx.Warn().Err(err).Str("exercise", name).Msg("exact exercise search failed, will create")
		return nil
	}
	if exercise != nil {
		return exercise
	}
	exercise, err = h.entities.SearchExercise(ctx, userID, name, model.SearchBroad)
	if err != nil {
		logx.Warn().Err(err).Str("exercise", name).Msg("broad exercise search failed, will create")
		return nil
	}
	return exercise
}

func estimateCaloriesPerHour(name string) float64 {
	lower := strings.ToLower(name)
	for _, rate := range exerciseRates {
		if strings.Contains(lower, rate.keyword) {
			return rate.perHour
		}
	}
	return defaultCaloriesPerHour
}
