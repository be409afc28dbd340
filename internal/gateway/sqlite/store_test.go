package sqlite

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricoach/coach-core/internal/coach/model"
	errx "github.com/nutricoach/coach-core/internal/core/error"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFood_CreateAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateFood(ctx, "u1", &model.Food{
		Name:        "Greek Yogurt",
		ServingSize: 100,
		ServingUnit: "g",
		Calories:    59,
		Protein:     10,
		UserOwned:   true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.DefaultVariantID)

	exact, err := store.SearchFood(ctx, "u1", "greek yogurt", model.SearchExact)
	require.NoError(t, err)
	require.NotNil(t, exact)
	assert.Equal(t, created.ID, exact.ID)
	assert.Equal(t, 59.0, exact.Calories)

	broad, err := store.SearchFood(ctx, "u1", "yogurt", model.SearchBroad)
	require.NoError(t, err)
	require.NotNil(t, broad)
	assert.Equal(t, created.ID, broad.ID)

	missing, err := store.SearchFood(ctx, "u1", "yogurt", model.SearchExact)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFood_SearchScopedToUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateFood(ctx, "u1", &model.Food{Name: "Apple", ServingSize: 1, ServingUnit: "piece", Calories: 95})
	require.NoError(t, err)

	other, err := store.SearchFood(ctx, "u2", "apple", model.SearchExact)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestFood_DuplicateCreateReturnsExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateFood(ctx, "u1", &model.Food{Name: "Apple", ServingSize: 1, ServingUnit: "piece", Calories: 95})
	require.NoError(t, err)

	second, err := store.CreateFood(ctx, "u1", &model.Food{Name: "apple", ServingSize: 1, ServingUnit: "piece", Calories: 95})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
}

func TestFoodVariant_FindAndDuplicateCreate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	food, err := store.CreateFood(ctx, "u1", &model.Food{Name: "Bread", ServingSize: 100, ServingUnit: "g", Calories: 265})
	require.NoError(t, err)

	base, err := store.FindFoodVariant(ctx, food.ID, "g")
	require.NoError(t, err)
	require.NotNil(t, base)
	assert.Equal(t, food.DefaultVariantID, base.ID)

	slice, err := store.CreateFoodVariant(ctx, &model.FoodVariant{
		FoodID:      food.ID,
		Name:        "slice",
		ServingSize: 1,
		ServingUnit: "slice",
		Calories:    80,
	})
	require.NoError(t, err)

	again, err := store.CreateFoodVariant(ctx, &model.FoodVariant{
		FoodID:      food.ID,
		Name:        "slice",
		ServingSize: 1,
		ServingUnit: "Slice",
		Calories:    80,
	})
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, slice.ID, again.ID)
}

func TestDiaryEntry_Insert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	food, err := store.CreateFood(ctx, "u1", &model.Food{Name: "Apple", ServingSize: 1, ServingUnit: "piece", Calories: 95})
	require.NoError(t, err)

	err = store.CreateDiaryEntry(ctx, "u1", &model.DiaryEntry{
		FoodID:    food.ID,
		VariantID: food.DefaultVariantID,
		MealType:  "breakfast",
		Quantity:  2,
		Unit:      "piece",
		EntryDate: "2026-09-01",
	})
	require.NoError(t, err)

	// a nil variant id must also insert cleanly
	err = store.CreateDiaryEntry(ctx, "u1", &model.DiaryEntry{
		FoodID:    food.ID,
		MealType:  "snack",
		Quantity:  1,
		Unit:      "piece",
		EntryDate: "2026-09-01",
	})
	require.NoError(t, err)
}

func TestExercise_CreateSearchAndLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateExercise(ctx, "u1", &model.Exercise{
		Name:            "Running",
		CaloriesPerHour: 600,
		UserOwned:       true,
	})
	require.NoError(t, err)

	broad, err := store.SearchExercise(ctx, "u1", "run", model.SearchBroad)
	require.NoError(t, err)
	require.NotNil(t, broad)
	assert.Equal(t, created.ID, broad.ID)
	assert.True(t, broad.UserOwned)

	dup, err := store.CreateExercise(ctx, "u1", &model.Exercise{Name: "running", CaloriesPerHour: 550})
	require.NoError(t, err)
	assert.Equal(t, created.ID, dup.ID)

	err = store.CreateExerciseEntry(ctx, "u1", &model.ExerciseEntry{
		ExerciseID:      created.ID,
		DurationMinutes: 30,
		CaloriesBurned:  300,
		EntryDate:       "2026-09-01",
	})
	require.NoError(t, err)
}

func TestCheckIn_UpsertOverwritesPerField(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCheckIn(ctx, "u1", "2026-09-01", model.CheckInWeight, 82.4))
	require.NoError(t, store.UpsertCheckIn(ctx, "u1", "2026-09-01", model.CheckInSteps, 9500))
	require.NoError(t, store.UpsertCheckIn(ctx, "u1", "2026-09-01", model.CheckInWeight, 82.1))

	var weight, steps float64
	err := store.db.QueryRowContext(ctx,
		"SELECT weight, steps FROM check_ins WHERE user_id = ? AND day = ?",
		"u1", "2026-09-01").Scan(&weight, &steps)
	require.NoError(t, err)
	assert.Equal(t, 82.1, weight, "same-day weight is overwritten")
	assert.Equal(t, 9500.0, steps, "other fields keep their values")

	var rows int
	err = store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM check_ins WHERE user_id = ?", "u1").Scan(&rows)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}

func TestCheckIn_UnknownFieldRejected(t *testing.T) {
	store := newTestStore(t)

	err := store.UpsertCheckIn(context.Background(), "u1", "2026-09-01", model.CheckInField("mood"), 5)
	assert.Error(t, err)
}

func TestCustomMeasurements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	category, err := store.CreateCustomCategory(ctx, "u1", &model.CustomCategory{
		Name:      "blood pressure",
		Frequency: "Daily",
		Type:      "numeric",
	})
	require.NoError(t, err)

	found, err := store.SearchCustomCategory(ctx, "u1", "Blood Pressure")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, category.ID, found.ID)

	dup, err := store.CreateCustomCategory(ctx, "u1", &model.CustomCategory{
		Name:      "BLOOD PRESSURE",
		Frequency: "Daily",
		Type:      "numeric",
	})
	require.NoError(t, err)
	assert.Equal(t, category.ID, dup.ID)

	err = store.CreateCustomMeasurement(ctx, "u1", &model.CustomMeasurement{
		CategoryID: category.ID,
		Value:      120,
		Unit:       "mmHg",
		EntryDate:  "2026-09-01",
	})
	require.NoError(t, err)
}

func TestWaterEntry_Insert(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateWaterEntry(context.Background(), "u1", &model.WaterEntry{
		Milliliters: 480,
		EntryDate:   "2026-09-01",
	})
	require.NoError(t, err)
}

func TestStoreFailuresCarryGatewayStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Close())

	_, err := store.SearchFood(ctx, "u1", "apple", model.SearchExact)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))

	err = store.CreateWaterEntry(ctx, "u1", &model.WaterEntry{Milliliters: 240, EntryDate: "2026-09-01"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))

	err = store.UpsertCheckIn(ctx, "u1", "2026-09-01", model.CheckInWeight, 82.4)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
}
