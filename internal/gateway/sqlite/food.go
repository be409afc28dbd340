package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutricoach/coach-core/internal/coach/model"
	errx "github.com/nutricoach/coach-core/internal/core/error"
)

const foodColumns = `id, name, serving_size, serving_unit, calories, protein, carbs, fat,
        COALESCE(default_variant_id, ''), user_owned`

func (s *Store) SearchFood(ctx context.Context, userID, name string, mode model.SearchMode) (*model.Food, error) {
	var query string
	var args []any
	switch mode {
	case model.SearchBroad:
		// shortest name first so "apple" beats "apple pie"
		query = `SELECT ` + foodColumns + ` FROM foods
            WHERE user_id = ? AND LOWER(name) LIKE '%' || LOWER(?) || '%'
            ORDER BY LENGTH(name) ASC LIMIT 1`
		args = []any{userID, name}
	default:
		query = `SELECT ` + foodColumns + ` FROM foods
            WHERE user_id = ? AND LOWER(name) = LOWER(?) LIMIT 1`
		args = []any{userID, name}
	}

	food := &model.Food{}
	var userOwned int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&food.ID, &food.Name, &food.ServingSize, &food.ServingUnit,
		&food.Calories, &food.Protein, &food.Carbs, &food.Fat,
		&food.DefaultVariantID, &userOwned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapEntity(fmt.Errorf("failed to query food: %w", err))
	}
	food.UserOwned = userOwned != 0
	return food, nil
}

// CreateFood inserts a food together with its base variant. On a duplicate
// name race the existing row is returned instead of an error.
func (s *Store) CreateFood(ctx context.Context, userID string, f *model.Food) (*model.Food, error) {
	created := *f
	created.ID = uuid.NewString()
	created.DefaultVariantID = uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errx.WrapEntity(fmt.Errorf("failed to start transaction: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO foods (id, user_id, name, serving_size, serving_unit, calories, protein, carbs, fat, default_variant_id, user_owned, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, userID, created.Name, created.ServingSize, created.ServingUnit,
		created.Calories, created.Protein, created.Carbs, created.Fat,
		created.DefaultVariantID, boolToInt(created.UserOwned), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return s.SearchFood(ctx, userID, f.Name, model.SearchExact)
		}
		return nil, errx.WrapEntity(fmt.Errorf("failed to insert food: %w", err))
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO food_variants (id, food_id, name, serving_size, serving_unit, calories, protein, carbs, fat)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.DefaultVariantID, created.ID, "base", created.ServingSize, created.ServingUnit,
		created.Calories, created.Protein, created.Carbs, created.Fat)
	if err != nil {
		return nil, errx.WrapEntity(fmt.Errorf("failed to insert base variant: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, errx.WrapEntity(fmt.Errorf("failed to commit food: %w", err))
	}
	return &created, nil
}

func (s *Store) FindFoodVariant(ctx context.Context, foodID, servingUnit string) (*model.FoodVariant, error) {
	variant := &model.FoodVariant{}
	err := s.db.QueryRowContext(ctx, `
        SELECT id, food_id, name, serving_size, serving_unit, calories, protein, carbs, fat
        FROM food_variants
        WHERE food_id = ? AND LOWER(serving_unit) = LOWER(?) LIMIT 1`,
		foodID, servingUnit).Scan(
		&variant.ID, &variant.FoodID, &variant.Name, &variant.ServingSize, &variant.ServingUnit,
		&variant.Calories, &variant.Protein, &variant.Carbs, &variant.Fat)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapEntity(fmt.Errorf("failed to query food variant: %w", err))
	}
	return variant, nil
}

func (s *Store) CreateFoodVariant(ctx context.Context, v *model.FoodVariant) (*model.FoodVariant, error) {
	created := *v
	created.ID = uuid.NewString()
	if created.Name == "" {
		created.Name = created.ServingUnit
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO food_variants (id, food_id, name, serving_size, serving_unit, calories, protein, carbs, fat)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.FoodID, created.Name, created.ServingSize, created.ServingUnit,
		created.Calories, created.Protein, created.Carbs, created.Fat)
	if err != nil {
		if isUniqueViolation(err) {
			return s.FindFoodVariant(ctx, v.FoodID, v.ServingUnit)
		}
		return nil, errx.WrapEntity(fmt.Errorf("failed to insert food variant: %w", err))
	}
	return &created, nil
}

func (s *Store) CreateDiaryEntry(ctx context.Context, userID string, e *model.DiaryEntry) error {
	var variantID any
	if e.VariantID != "" {
		variantID = e.VariantID
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO diary_entries (id, user_id, food_id, variant_id, meal_type, quantity, unit, entry_date, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, e.FoodID, variantID, e.MealType, e.Quantity, e.Unit,
		e.EntryDate, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errx.WrapEntity(fmt.Errorf("failed to insert diary entry: %w", err))
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
