package fulfill

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutricoach/coach-core/internal/coach/model"
	logx "github.com/nutricoach/coach-core/pkg/logger"
)

// fixed standard-serving conversions to milliliters
const (
	ozToMl    = 29.5735
	cupMl     = 240
	glassMl   = 240
	litreToMl = 1000
)

// LogWater normalizes the declared unit to milliliters before persisting.
// Non-positive quantities get a clarification, never a zero row.
func (h *Handlers) LogWater(ctx context.Context, userID string, data model.WaterLogData, entryDate string) *model.CoachResult {
	if data.Quantity <= 0 {
		return resultNone("How much water did you drink?")
	}

	ml, ok := toMilliliters(data.Quantity, data.Unit)
	if !ok {
		return resultNone("Which unit was that? I can log water in oz, cups, glasses, liters, or ml.")
	}

	entry := &model.WaterEntry{
		Milliliters: ml,
		EntryDate:   entryDate,
	}
	if err := h.entities.CreateWaterEntry(ctx, userID, entry); err != nil {
		logx.Error().Err(err).Float64("ml", ml).Msg("water entry insert failed")
		return resultNone(entityFailureReply)
	}

	return &model.CoachResult{
		Action: model.ActionWaterAdded,
		Response: fmt.Sprintf("Logged %s ml of water for %s.",
			formatAmount(ml), entryDate),
	}
}

func toMilliliters(quantity float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "oz", "ounce", "ounces", "fl oz":
		return quantity * ozToMl, true
	case "cup", "cups":
		return quantity * cupMl, true
	case "glass", "glasses":
		return quantity * glassMl, true
	case "l", "liter", "liters", "litre", "litres":
		return quantity * litreToMl, true
	case "ml", "milliliter", "milliliters":
		return quantity, true
	default:
		return 0, false
	}
}
