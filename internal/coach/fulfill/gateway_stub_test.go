package fulfill

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nutricoach/coach-core/internal/coach/model"
)

// memGateway is an in-memory EntityGateway for handler tests. Individual
// operations can be overridden with error hooks to exercise failure paths.
type memGateway struct {
	foods        []*model.Food
	variants     []*model.FoodVariant
	diary        []*model.DiaryEntry
	exercises    []*model.Exercise
	sessions     []*model.ExerciseEntry
	checkIns     map[string]map[model.CheckInField]float64 // day -> field -> value
	categories   []*model.CustomCategory
	measurements []*model.CustomMeasurement
	water        []*model.WaterEntry

	searchFoodErr    error
	upsertCheckInErr func(field model.CheckInField) error
	waterErr         error
}

func newMemGateway() *memGateway {
	return &memGateway{checkIns: map[string]map[model.CheckInField]float64{}}
}

func (g *memGateway) SearchFood(ctx context.Context, userID, name string, mode model.SearchMode) (*model.Food, error) {
	if g.searchFoodErr != nil {
		return nil, g.searchFoodErr
	}
	for _, f := range g.foods {
		if mode == model.SearchExact && strings.EqualFold(f.Name, name) {
			return f, nil
		}
		if mode == model.SearchBroad && strings.Contains(strings.ToLower(f.Name), strings.ToLower(name)) {
			return f, nil
		}
	}
	return nil, nil
}

func (g *memGateway) CreateFood(ctx context.Context, userID string, f *model.Food) (*model.Food, error) {
	if existing, _ := g.SearchFood(ctx, userID, f.Name, model.SearchExact); existing != nil {
		return existing, nil
	}
	created := *f
	created.ID = uuid.NewString()
	created.DefaultVariantID = uuid.NewString()
	g.foods = append(g.foods, &created)
	g.variants = append(g.variants, &model.FoodVariant{
		ID:          created.DefaultVariantID,
		FoodID:      created.ID,
		Name:        "base",
		ServingSize: created.ServingSize,
		ServingUnit: created.ServingUnit,
		Calories:    created.Calories,
	})
	return &created, nil
}

func (g *memGateway) FindFoodVariant(ctx context.Context, foodID, servingUnit string) (*model.FoodVariant, error) {
	for _, v := range g.variants {
		if v.FoodID == foodID && strings.EqualFold(v.ServingUnit, servingUnit) {
			return v, nil
		}
	}
	return nil, nil
}

func (g *memGateway) CreateFoodVariant(ctx context.Context, v *model.FoodVariant) (*model.FoodVariant, error) {
	created := *v
	created.ID = uuid.NewString()
	g.variants = append(g.variants, &created)
	return &created, nil
}

func (g *memGateway) CreateDiaryEntry(ctx context.Context, userID string, e *model.DiaryEntry) error {
	g.diary = append(g.diary, e)
	return nil
}

func (g *memGateway) SearchExercise(ctx context.Context, userID, name string, mode model.SearchMode) (*model.Exercise, error) {
	for _, ex := range g.exercises {
		if mode == model.SearchExact && strings.EqualFold(ex.Name, name) {
			return ex, nil
		}
		if mode == model.SearchBroad && strings.Contains(strings.ToLower(ex.Name), strings.ToLower(name)) {
			return ex, nil
		}
	}
	return nil, nil
}

func (g *memGateway) CreateExercise(ctx context.Context, userID string, ex *model.Exercise) (*model.Exercise, error) {
	created := *ex
	created.ID = uuid.NewString()
	g.exercises = append(g.exercises, &created)
	return &created, nil
}

func (g *memGateway) CreateExerciseEntry(ctx context.Context, userID string, e *model.ExerciseEntry) error {
	g.sessions = append(g.sessions, e)
	return nil
}

func (g *memGateway) UpsertCheckIn(ctx context.Context, userID, day string, field model.CheckInField, value float64) error {
	if g.upsertCheckInErr != nil {
		if err := g.upsertCheckInErr(field); err != nil {
			return err
		}
	}
	if g.checkIns[day] == nil {
		g.checkIns[day] = map[model.CheckInField]float64{}
	}
	g.checkIns[day][field] = value
	return nil
}

func (g *memGateway) SearchCustomCategory(ctx context.Context, userID, name string) (*model.CustomCategory, error) {
	for _, c := range g.categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

func (g *memGateway) CreateCustomCategory(ctx context.Context, userID string, c *model.CustomCategory) (*model.CustomCategory, error) {
	created := *c
	created.ID = uuid.NewString()
	g.categories = append(g.categories, &created)
	return &created, nil
}

func (g *memGateway) CreateCustomMeasurement(ctx context.Context, userID string, m *model.CustomMeasurement) error {
	g.measurements = append(g.measurements, m)
	return nil
}

func (g *memGateway) CreateWaterEntry(ctx context.Context, userID string, w *model.WaterEntry) error {
	if g.waterErr != nil {
		return g.waterErr
	}
	g.water = append(g.water, w)
	return nil
}

var _ model.EntityGateway = (*memGateway)(nil)

var errStoreDown = fmt.Errorf("store unavailable")
