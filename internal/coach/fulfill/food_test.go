package fulfill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricoach/coach-core/internal/coach/model"
)

func appleFood() *model.Food {
	return &model.Food{
		ID:               "food-apple",
		Name:             "Apple",
		ServingSize:      1,
		ServingUnit:      "piece",
		Calories:         95,
		DefaultVariantID: "variant-apple-base",
	}
}

func TestLogFood_MatchingUnitWritesDiaryEntry(t *testing.T) {
	gw := newMemGateway()
	gw.foods = append(gw.foods, appleFood())
	h := New(gw)

	result := h.LogFood(context.Background(), "u1", model.FoodLogData{
		FoodName: "apple",
		Quantity: 2,
		Unit:     "piece",
		MealType: "breakfast",
	}, "2026-09-01")

	assert.Equal(t, model.ActionFoodAdded, result.Action)
	assert.Contains(t, result.Response, "190 cal")
	assert.Contains(t, result.Response, "breakfast")

	require.Len(t, gw.diary, 1)
	entry := gw.diary[0]
	assert.Equal(t, "food-apple", entry.FoodID)
	assert.Equal(t, "variant-apple-base", entry.VariantID)
	assert.Equal(t, "piece", entry.Unit)
	assert.Equal(t, "2026-09-01", entry.EntryDate)
}

func TestLogFood_ScalesAgainstServingSize(t *testing.T) {
	gw := newMemGateway()
	gw.foods = append(gw.foods, &model.Food{
		ID:          "food-rice",
		Name:        "Rice",
		ServingSize: 100,
		ServingUnit: "g",
		Calories:    130,
	})
	h := New(gw)

	result := h.LogFood(context.Background(), "u1", model.FoodLogData{
		FoodName: "rice",
		Quantity: 250,
		Unit:     "g",
		MealType: "dinner",
	}, "2026-09-01")

	assert.Equal(t, model.ActionFoodAdded, result.Action)
	// 130 * 250 / 100
	assert.Contains(t, result.Response, "325 cal")
}

func TestLogFood_UnitMismatchRequestsFallbackWithoutWrite(t *testing.T) {
	gw := newMemGateway()
	gw.foods = append(gw.foods, appleFood())
	h := New(gw)

	result := h.LogFood(context.Background(), "u1", model.FoodLogData{
		FoodName: "apple",
		Quantity: 2,
		Unit:     "slice",
		MealType: "snack",
	}, "2026-09-01")

	assert.True(t, IsFallback(result))
	assert.Empty(t, gw.diary, "a unit mismatch must not persist anything")

	name, unit, mealType, entryDate, quantity := FallbackRequest(result)
	assert.Equal(t, "apple", name)
	assert.Equal(t, "slice", unit)
	assert.Equal(t, "snack", mealType)
	assert.Equal(t, "2026-09-01", entryDate)
	assert.Equal(t, 2.0, quantity)
}

func TestLogFood_UnknownFoodRequestsFallback(t *testing.T) {
	h := New(newMemGateway())

	result := h.LogFood(context.Background(), "u1", model.FoodLogData{
		FoodName: "dragonfruit smoothie",
		Quantity: 1,
		Unit:     "cup",
	}, "2026-09-01")

	assert.True(t, IsFallback(result))
}

func TestLogFood_SearchErrorBecomesApology(t *testing.T) {
	gw := newMemGateway()
	gw.searchFoodErr = errStoreDown
	h := New(gw)

	result := h.LogFood(context.Background(), "u1", model.FoodLogData{
		FoodName: "apple",
		Quantity: 1,
		Unit:     "piece",
	}, "2026-09-01")

	assert.Equal(t, model.ActionNone, result.Action)
	assert.Equal(t, entityFailureReply, result.Response)
	assert.False(t, IsFallback(result))
}

func TestLogFood_MissingNameAsksForIt(t *testing.T) {
	h := New(newMemGateway())

	result := h.LogFood(context.Background(), "u1", model.FoodLogData{Quantity: 1, Unit: "piece"}, "2026-09-01")

	assert.Equal(t, model.ActionNone, result.Action)
	assert.Contains(t, result.Response, "What food")
}

func pendingBananaBread() *model.PendingSelection {
	return &model.PendingSelection{
		MealType:  "snack",
		Quantity:  2,
		Unit:      "slice",
		EntryDate: "2026-08-31",
		FoodOptions: []model.FoodOption{
			{Name: "Banana Bread (homemade)", Calories: 196, ServingSize: 1, ServingUnit: "slice"},
			{Name: "Banana Bread (bakery)", Calories: 230, ServingSize: 1, ServingUnit: "slice"},
		},
	}
}

func TestSelectOption_CreatesFoodAndLogsOriginalRequest(t *testing.T) {
	gw := newMemGateway()
	h := New(gw)

	result := h.SelectOption(context.Background(), "u1", 1, pendingBananaBread())

	assert.Equal(t, model.ActionFoodAdded, result.Action)
	// 230 per slice * 2 slices
	assert.Contains(t, result.Response, "460 cal")
	assert.Contains(t, result.Response, "2026-08-31")

	require.Len(t, gw.foods, 1)
	assert.Equal(t, "Banana Bread (bakery)", gw.foods[0].Name)
	assert.True(t, gw.foods[0].UserOwned)

	require.Len(t, gw.diary, 1)
	assert.Equal(t, 2.0, gw.diary[0].Quantity)
	assert.Equal(t, "slice", gw.diary[0].Unit)
}

func TestSelectOption_OutOfRangeIndex(t *testing.T) {
	gw := newMemGateway()
	h := New(gw)

	result := h.SelectOption(context.Background(), "u1", 4, pendingBananaBread())

	assert.Equal(t, model.ActionNone, result.Action)
	assert.Equal(t, invalidOptionReply, result.Response)
	assert.Empty(t, gw.diary)
}

func TestSelectOption_RepeatedSelectionReusesRows(t *testing.T) {
	gw := newMemGateway()
	h := New(gw)
	pending := pendingBananaBread()

	first := h.SelectOption(context.Background(), "u1", 0, pending)
	second := h.SelectOption(context.Background(), "u1", 0, pending)

	assert.Equal(t, model.ActionFoodAdded, first.Action)
	assert.Equal(t, model.ActionFoodAdded, second.Action)
	assert.Len(t, gw.foods, 1, "repeated selection must not duplicate the food")
	assert.Len(t, gw.diary, 2, "each selection still logs its own entry")
}

func TestSelectOption_NewUnitOnExistingFoodCreatesVariant(t *testing.T) {
	gw := newMemGateway()
	gw.foods = append(gw.foods, &model.Food{
		ID:          "food-bb",
		Name:        "Banana Bread (homemade)",
		ServingSize: 100,
		ServingUnit: "g",
		Calories:    326,
	})
	h := New(gw)

	result := h.SelectOption(context.Background(), "u1", 0, pendingBananaBread())

	assert.Equal(t, model.ActionFoodAdded, result.Action)
	assert.Len(t, gw.foods, 1, "existing food is reused")

	require.Len(t, gw.variants, 1)
	assert.Equal(t, "food-bb", gw.variants[0].FoodID)
	assert.Equal(t, "slice", gw.variants[0].ServingUnit)
	require.Len(t, gw.diary, 1)
	assert.Equal(t, gw.variants[0].ID, gw.diary[0].VariantID)
}

func TestFormatOptions(t *testing.T) {
	out := FormatOptions("banana bread", pendingBananaBread().FoodOptions)

	assert.Contains(t, out, `"banana bread"`)
	assert.Contains(t, out, "1. Banana Bread (homemade) (196 cal per 1 slice)")
	assert.Contains(t, out, "2. Banana Bread (bakery) (230 cal per 1 slice)")
	assert.Contains(t, out, "Reply with the number")
}
