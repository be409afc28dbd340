package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type TurnRepository interface {
	// AddTurn appends a turn to the history for the given conversation
	AddTurn(ctx context.Context, conversationID string, turn *schema.Message) error

	// LoadHistory retrieves the turn history for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*TurnHistory, error)

	// ClearHistory removes all turn history for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// CountTurns returns the number of turns in the conversation
	CountTurns(ctx context.Context, conversationID string) (int, error)
}

// TurnHistory represents loaded conversation data with metadata.
type TurnHistory struct {
	ConversationID string
	Turns          []*schema.Message
}
