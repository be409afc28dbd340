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

// checkInColumns whitelists the updatable check-in columns. Field names come
// from parsed model output, so an unknown field must never reach the SQL text.
var checkInColumns = map[model.CheckInField]string{
	model.CheckInWeight: "weight",
	model.CheckInNeck:   "neck",
	model.CheckInWaist:  "waist",
	model.CheckInHips:   "hips",
	model.CheckInSteps:  "steps",
}

func (s *Store) UpsertCheckIn(ctx context.Context, userID, day string, field model.CheckInField, value float64) error {
	column, ok := checkInColumns[field]
	if !ok {
		return fmt.Errorf("unknown check-in field %q", field)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := fmt.Sprintf(`
        INSERT INTO check_ins (user_id, day, %s, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(user_id, day) DO UPDATE SET %s = excluded.%s, updated_at = excluded.updated_at`,
		column, column, column)

	if _, err := s.db.ExecContext(ctx, query, userID, day, value, now); err != nil {
		return errx.WrapEntity(fmt.Errorf("failed to upsert check-in: %w", err))
	}
	return nil
}

func (s *Store) SearchCustomCategory(ctx context.Context, userID, name string) (*model.CustomCategory, error) {
	category := &model.CustomCategory{}
	err := s.db.QueryRowContext(ctx, `
        SELECT id, name, frequency, type FROM custom_categories
        WHERE user_id = ? AND LOWER(name) = LOWER(?) LIMIT 1`,
		userID, name).Scan(&category.ID, &category.Name, &category.Frequency, &category.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapEntity(fmt.Errorf("failed to query custom category: %w", err))
	}
	return category, nil
}

func (s *Store) CreateCustomCategory(ctx context.Context, userID string, c *model.CustomCategory) (*model.CustomCategory, error) {
	created := *c
	created.ID = uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO custom_categories (id, user_id, name, frequency, type)
        VALUES (?, ?, ?, ?, ?)`,
		created.ID, userID, created.Name, created.Frequency, created.Type)
	if err != nil {
		if isUniqueViolation(err) {
			return s.SearchCustomCategory(ctx, userID, c.Name)
		}
		return nil, errx.WrapEntity(fmt.Errorf("failed to insert custom category: %w", err))
	}
	return &created, nil
}

func (s *Store) CreateCustomMeasurement(ctx context.Context, userID string, m *model.CustomMeasurement) error {
	recordedAt := m.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO custom_measurements (id, user_id, category_id, value, unit, entry_date, recorded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, m.CategoryID, m.Value, m.Unit, m.EntryDate,
		recordedAt.Format(time.RFC3339))
	if err != nil {
		return errx.WrapEntity(fmt.Errorf("failed to insert custom measurement: %w", err))
	}
	return nil
}
