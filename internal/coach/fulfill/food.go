package fulfill

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutricoach/coach-core/internal/coach/model"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

// metadata keys for the fallback handshake between the food handler and the
// option-generation step
const (
	MetaIsFallback = "is_fallback"
	MetaFoodName   = "foodName"
	MetaUnit       = "unit"
	MetaMealType   = "mealType"
	MetaQuantity   = "quantity"
	MetaEntryDate  = "entryDate"
)

const invalidOptionReply = "Invalid option selected."

// LogFood is the fresh logging path: match the named food against the entity
// store and persist a diary entry when the logged unit agrees with the
// stored serving unit. A unit mismatch deliberately persists nothing and
// requests AI-proposed options instead: silently recording 1 "slice" as
// 1 "g" would corrupt nutrition totals, and converting between arbitrary
// food units without a density table is unsafe.
func (h *Handlers) LogFood(ctx context.Context, userID string, data model.FoodLogData, entryDate string) *model.CoachResult {
	name := strings.TrimSpace(data.FoodName)
	if name == "" {
		return resultNone("What food would you like to log?")
	}
	if data.Quantity <= 0 {
		return resultNone(fmt.Sprintf("How much %s should I log?", name))
	}
	mealType := normalizeMealType(data.MealType)

	food, err := h.entities.SearchFood(ctx, userID, name, model.SearchExact)
	if err != nil {
		logx.Error().Err(err).Str("food", name).Msg("exact food search failed")
		return resultNone(entityFailureReply)
	}
	if food == nil {
		food, err = h.entities.SearchFood(ctx, userID, name, model.SearchBroad)
		if err != nil {
			logx.Error().Err(err).Str("food", name).Msg("broad food search failed")
			return resultNone(entityFailureReply)
		}
	}

	if food == nil || !strings.EqualFold(strings.TrimSpace(data.Unit), food.ServingUnit) {
		// no match, or the logged unit disagrees with the stored serving:
		// hand back to the orchestration layer for an option round-trip
		return &model.CoachResult{
			Action: model.ActionNone,
			Metadata: map[string]any{
				MetaIsFallback: true,
				MetaFoodName:   name,
				MetaUnit:       data.Unit,
				MetaMealType:   mealType,
				MetaQuantity:   data.Quantity,
				MetaEntryDate:  entryDate,
			},
		}
	}

	entry := &model.DiaryEntry{
		FoodID:    food.ID,
		VariantID: food.DefaultVariantID,
		MealType:  mealType,
		Quantity:  data.Quantity,
		Unit:      food.ServingUnit,
		EntryDate: entryDate,
	}
	if err := h.entities.CreateDiaryEntry(ctx, userID, entry); err != nil {
		logx.Error().Err(err).Str("food_id", food.ID).Msg("diary entry insert failed")
		return resultNone(entityFailureReply)
	}

	calories := scaleNutrient(food.Calories, data.Quantity, food.ServingSize)
	logx.Debug().
		Str("user_id", userID).
		Str("food_id", food.ID).
		Str("entry_date", entryDate).
		Float64("quantity", data.Quantity).
		Msg("food logged")

	return &model.CoachResult{
		Action: model.ActionFoodAdded,
		Response: fmt.Sprintf("Logged %s %s of %s (%s cal) to %s for %s.",
			formatAmount(data.Quantity), food.ServingUnit, food.Name,
			formatCalories(calories), mealType, entryDate),
	}
}

// IsFallback reports whether a food result requests the AI-option fallback.
func IsFallback(result *model.CoachResult) bool {
	if result == nil || result.Metadata == nil {
		return false
	}
	flagged, _ := result.Metadata[MetaIsFallback].(bool)
	return flagged
}

// FallbackRequest recovers the original logging request from a fallback
// result's metadata.
func FallbackRequest(result *model.CoachResult) (foodName, unit, mealType, entryDate string, quantity float64) {
	meta := result.Metadata
	foodName, _ = meta[MetaFoodName].(string)
	unit, _ = meta[MetaUnit].(string)
	mealType, _ = meta[MetaMealType].(string)
	entryDate, _ = meta[MetaEntryDate].(string)
	quantity, _ = meta[MetaQuantity].(float64)
	return
}

// SelectOption is the selection path: the user picked one of the previously
// offered candidates by number. Food and variant rows are looked up before
// creation, keyed by name for base foods and (name, serving_unit) for
// variants, so repeated identical selections never duplicate rows.
func (h *Handlers) SelectOption(ctx context.Context, userID string, index int, pending *model.PendingSelection) *model.CoachResult {
	if pending == nil || index < 0 || index >= len(pending.FoodOptions) {
		return resultNone(invalidOptionReply)
	}
	opt := pending.FoodOptions[index]

	foodID, variantID, err := h.resolveSelectedFood(ctx, userID, opt)
	if err != nil {
		logx.Error().Err(err).Str("option", opt.Name).Msg("resolving selected food failed")
		return resultNone(entityFailureReply)
	}

	// the option only supplies nutrient-per-serving data; the diary entry
	// keeps the originally requested quantity, unit and date
	entry := &model.DiaryEntry{
		FoodID:    foodID,
		VariantID: variantID,
		MealType:  normalizeMealType(pending.MealType),
		Quantity:  pending.Quantity,
		Unit:      pending.Unit,
		EntryDate: pending.EntryDate,
	}
	if err := h.entities.CreateDiaryEntry(ctx, userID, entry); err != nil {
		logx.Error().Err(err).Str("food_id", foodID).Msg("diary entry insert failed")
		return resultNone(entityFailureReply)
	}

	calories := scaleNutrient(opt.Calories, pending.Quantity, opt.ServingSize)
	return &model.CoachResult{
		Action: model.ActionFoodAdded,
		Response: fmt.Sprintf("Logged %s %s of %s (%s cal) to %s for %s.",
			formatAmount(pending.Quantity), pending.Unit, opt.Name,
			formatCalories(calories), normalizeMealType(pending.MealType), pending.EntryDate),
	}
}

// resolveSelectedFood maps a chosen option onto a (food, variant) pair,
// creating rows only when no equivalent exists.
func (h *Handlers) resolveSelectedFood(ctx context.Context, userID string, opt model.FoodOption) (foodID, variantID string, err error) {
	existing, err := h.entities.SearchFood(ctx, userID, opt.Name, model.SearchExact)
	if err != nil {
		return "", "", err
	}

	if existing == nil {
		// brand new food: the option's serving becomes the base serving
		created, err := h.entities.CreateFood(ctx, userID, &model.Food{
			Name:        opt.Name,
			ServingSize: opt.ServingSize,
			ServingUnit: opt.ServingUnit,
			Calories:    opt.Calories,
			Protein:     opt.Protein,
			Carbs:       opt.Carbs,
			Fat:         opt.Fat,
			UserOwned:   true,
		})
		if err != nil {
			return "", "", err
		}
		return created.ID, created.DefaultVariantID, nil
	}

	if strings.EqualFold(opt.ServingUnit, existing.ServingUnit) {
		// base serving already matches: log directly against the food
		return existing.ID, "", nil
	}

	variant, err := h.entities.FindFoodVariant(ctx, existing.ID, opt.ServingUnit)
	if err != nil {
		return "", "", err
	}
	if variant == nil {
		variant, err = h.entities.CreateFoodVariant(ctx, &model.FoodVariant{
			FoodID:      existing.ID,
			Name:        opt.ServingUnit,
			ServingSize: opt.ServingSize,
			ServingUnit: opt.ServingUnit,
			Calories:    opt.Calories,
			Protein:     opt.Protein,
			Carbs:       opt.Carbs,
			Fat:         opt.Fat,
		})
		if err != nil {
			return "", "", err
		}
	}
	return existing.ID, variant.ID, nil
}

// FormatOptions builds the numbered list shown to the user for a
// disambiguation offer.
func FormatOptions(foodName string, options []model.FoodOption) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't find a match for %q. Which of these is closest?\n", foodName)
	for i, opt := range options {
		fmt.Fprintf(&b, "%d. %s (%s cal per %s %s)\n",
			i+1, opt.Name, formatCalories(opt.Calories), formatAmount(opt.ServingSize), opt.ServingUnit)
	}
	b.WriteString("Reply with the number to log it.")
	return b.String()
}

// scaleNutrient converts a per-serving nutrient value to the logged quantity.
func scaleNutrient(perServing, quantity, servingSize float64) float64 {
	if servingSize <= 0 {
		return perServing * quantity
	}
	return perServing * quantity / servingSize
}
