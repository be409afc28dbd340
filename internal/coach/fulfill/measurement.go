package fulfill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nutricoach/coach-core/internal/coach/model"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

const (
	customCategoryFrequency = "Daily"
	customCategoryType      = "numeric"
)

// LogMeasurements processes a measurement batch. Recognized types upsert the
// per-day check-in row (last write wins per field per day); anything else
// lands in an auto-created custom category. Each item is independent: a
// failure is reported as an inline warning and the rest of the batch still
// runs.
func (h *Handlers) LogMeasurements(ctx context.Context, userID string, data model.MeasurementLogData, entryDate string) *model.CoachResult {
	if len(data.Measurements) == 0 {
		return resultNone("What measurement would you like to log?")
	}

	var logged []string
	var warnings []string
	for _, item := range data.Measurements {
		label, err := h.logOneMeasurement(ctx, userID, item, entryDate)
		if err != nil {
			logx.Error().Err(err).Str("type", item.Type).Msg("measurement failed")
			warnings = append(warnings, fmt.Sprintf("couldn't save %s", displayName(item)))
			continue
		}
		logged = append(logged, label)
	}

	if len(logged) == 0 {
		return resultNone("Sorry, I couldn't save any of those measurements. Please try again.")
	}

	response := fmt.Sprintf("Recorded %s for %s.", strings.Join(logged, ", "), entryDate)
	if len(warnings) > 0 {
		response += " Warning: " + strings.Join(warnings, "; ") + "."
	}
	return &model.CoachResult{
		Action:   model.ActionMeasurementAdded,
		Response: response,
	}
}

func (h *Handlers) logOneMeasurement(ctx context.Context, userID string, item model.MeasurementItem, entryDate string) (string, error) {
	if field, ok := model.CheckInFieldFor(strings.ToLower(strings.TrimSpace(item.Type))); ok {
		// single atomic write; concurrent devices must not lose updates
		if err := h.entities.UpsertCheckIn(ctx, userID, entryDate, field, item.Value); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s%s", field, formatAmount(item.Value), unitSuffix(item.Unit)), nil
	}

	name := displayName(item)
	category, err := h.entities.SearchCustomCategory(ctx, userID, name)
	if err != nil {
		return "", err
	}
	if category == nil {
		category, err = h.entities.CreateCustomCategory(ctx, userID, &model.CustomCategory{
			Name:      name,
			Frequency: customCategoryFrequency,
			Type:      customCategoryType,
		})
		if err != nil {
			return "", err
		}
	}

	err = h.entities.CreateCustomMeasurement(ctx, userID, &model.CustomMeasurement{
		CategoryID: category.ID,
		Value:      item.Value,
		Unit:       item.Unit,
		EntryDate:  entryDate,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s%s", name, formatAmount(item.Value), unitSuffix(item.Unit)), nil
}

func displayName(item model.MeasurementItem) string {
	if strings.TrimSpace(item.Name) != "" {
		return strings.TrimSpace(item.Name)
	}
	return strings.TrimSpace(item.Type)
}

func unitSuffix(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return ""
	}
	return " " + unit
}
