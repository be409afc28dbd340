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

func (s *Store) SearchExercise(ctx context.Context, userID, name string, mode model.SearchMode) (*model.Exercise, error) {
	var query string
	switch mode {
	case model.SearchBroad:
		query = `SELECT id, name, calories_per_hour, user_owned FROM exercises
            WHERE user_id = ? AND LOWER(name) LIKE '%' || LOWER(?) || '%'
            ORDER BY LENGTH(name) ASC LIMIT 1`
	default:
		query = `SELECT id, name, calories_per_hour, user_owned FROM exercises
            WHERE user_id = ? AND LOWER(name) = LOWER(?) LIMIT 1`
	}

	exercise := &model.Exercise{}
	var userOwned int
	err := s.db.QueryRowContext(ctx, query, userID, name).Scan(
		&exercise.ID, &exercise.Name, &exercise.CaloriesPerHour, &userOwned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapEntity(fmt.Errorf("failed to query exercise: %w", err))
	}
	exercise.UserOwned = userOwned != 0
	return exercise, nil
}

func (s *Store) CreateExercise(ctx context.Context, userID string, ex *model.Exercise) (*model.Exercise, error) {
	created := *ex
	created.ID = uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO exercises (id, user_id, name, calories_per_hour, user_owned)
        VALUES (?, ?, ?, ?, ?)`,
		created.ID, userID, created.Name, created.CaloriesPerHour, boolToInt(created.UserOwned))
	if err != nil {
		if isUniqueViolation(err) {
			return s.SearchExercise(ctx, userID, ex.Name, model.SearchExact)
		}
		return nil, errx.WrapEntity(fmt.Errorf("failed to insert exercise: %w", err))
	}
	return &created, nil
}

func (s *Store) CreateExerciseEntry(ctx context.Context, userID string, e *model.ExerciseEntry) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO exercise_entries (id, user_id, exercise_id, duration_minutes, calories_burned, entry_date, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, e.ExerciseID, e.DurationMinutes, e.CaloriesBurned,
		e.EntryDate, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errx.WrapEntity(fmt.Errorf("failed to insert exercise entry: %w", err))
	}
	return nil
}
