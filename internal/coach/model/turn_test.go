package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingSelection_MetadataRoundTrip(t *testing.T) {
	pending := &PendingSelection{
		MealType:  "lunch",
		Quantity:  1.5,
		Unit:      "bowl",
		EntryDate: "2026-09-01",
		FoodOptions: []FoodOption{
			{Name: "Chicken Soup", Calories: 120, ServingSize: 1, ServingUnit: "bowl"},
		},
	}

	meta := pending.ToMetadata()
	require.NotNil(t, meta)

	restored, ok := PendingFromMetadata(meta)
	require.True(t, ok)
	assert.Equal(t, pending.MealType, restored.MealType)
	assert.Equal(t, pending.Quantity, restored.Quantity)
	assert.Equal(t, pending.EntryDate, restored.EntryDate)
	require.Len(t, restored.FoodOptions, 1)
	assert.Equal(t, "Chicken Soup", restored.FoodOptions[0].Name)
}

func TestPendingFromMetadata_SurvivesJSONStorage(t *testing.T) {
	// metadata goes through a marshal/unmarshal cycle when the assistant
	// turn is persisted, so numbers come back as float64 inside map[string]any
	pending := &PendingSelection{
		Quantity:  2,
		Unit:      "slice",
		EntryDate: "2026-09-01",
		FoodOptions: []FoodOption{
			{Name: "Toast", Calories: 80, ServingSize: 1, ServingUnit: "slice"},
		},
	}

	stored, err := json.Marshal(pending.ToMetadata())
	require.NoError(t, err)
	var loaded map[string]any
	require.NoError(t, json.Unmarshal(stored, &loaded))

	restored, ok := PendingFromMetadata(loaded)
	require.True(t, ok)
	assert.Equal(t, 2.0, restored.Quantity)
	assert.Equal(t, "Toast", restored.FoodOptions[0].Name)
}

func TestPendingFromMetadata_Rejections(t *testing.T) {
	_, ok := PendingFromMetadata(nil)
	assert.False(t, ok)

	_, ok = PendingFromMetadata(map[string]any{"is_fallback": true})
	assert.False(t, ok)

	_, ok = PendingFromMetadata(map[string]any{"foodOptions": []any{}})
	assert.False(t, ok)
}

func TestKnownIntent(t *testing.T) {
	assert.True(t, KnownIntent(IntentLogFood))
	assert.True(t, KnownIntent(IntentChat))
	assert.False(t, KnownIntent(IntentTag("delete_account")))
	assert.False(t, KnownIntent(IntentTag("")))
}
