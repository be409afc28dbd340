package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutricoach/coach-core/internal/coach/model"
	errx "github.com/nutricoach/coach-core/internal/core/error"
)

func (s *Store) CreateWaterEntry(ctx context.Context, userID string, w *model.WaterEntry) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO water_entries (id, user_id, milliliters, entry_date, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, w.Milliliters, w.EntryDate,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errx.WrapEntity(fmt.Errorf("failed to insert water entry: %w", err))
	}
	return nil
}
