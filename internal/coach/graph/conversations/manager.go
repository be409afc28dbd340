package conversations

import (
	"context"
	"strings"

	"github.com/nutricoach/coach-core/internal/coach/model"

	"github.com/cloudwego/eino/schema"
)

// TurnsManager mediates between the graph and the turn repository: it loads
// the bounded recent history, surfaces the previous assistant turn's pending
// selection, and persists both sides of a turn.
type TurnsManager struct {
	turnRepo model.TurnRepository
	maxTurns int
}

func NewTurnsManager(turnRepo model.TurnRepository, config model.ConversationConfig) *TurnsManager {
	max := config.Context.MaxTurns
	if max <= 0 {
		max = 10
	}
	return &TurnsManager{
		turnRepo: turnRepo,
		maxTurns: max,
	}
}

// RecentTurns loads the conversation and returns the trailing maxTurns turns.
func (tm *TurnsManager) RecentTurns(ctx context.Context, conversationID string) ([]*schema.Message, error) {
	history, err := tm.turnRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return trimTail(history.Turns, tm.maxTurns), nil
}

// PendingSelection returns typed food-options metadata from the most recent
// assistant turn, if any. Only the immediately preceding assistant turn
// counts: older offers are stale once the conversation moved on.
func (tm *TurnsManager) PendingSelection(turns []*schema.Message) *model.PendingSelection {
	for i := len(turns) - 1; i >= 0; i-- {
		msg := turns[i]
		if msg == nil {
			continue
		}
		if msg.Role != schema.Assistant {
			return nil
		}
		pending, ok := model.PendingFromMetadata(msg.Extra)
		if !ok {
			return nil
		}
		return pending
	}
	return nil
}

// SaveUserTurn appends the user's message to history.
func (tm *TurnsManager) SaveUserTurn(ctx context.Context, conversationID, text string, hadImage bool) error {
	content := text
	if strings.TrimSpace(content) == "" && hadImage {
		content = "(image)"
	}
	return tm.turnRepo.AddTurn(ctx, conversationID, schema.UserMessage(content))
}

// SaveResult appends the engine's reply to history, carrying the result
// metadata on the message so a food-options offer round-trips verbatim into
// the next turn.
func (tm *TurnsManager) SaveResult(ctx context.Context, conversationID string, result *model.CoachResult) error {
	if result == nil || strings.TrimSpace(result.Response) == "" {
		return nil
	}
	msg := schema.AssistantMessage(result.Response, nil)
	if len(result.Metadata) > 0 {
		msg.Extra = result.Metadata
	}
	return tm.turnRepo.AddTurn(ctx, conversationID, msg)
}

// BuildModelContext assembles the single user message sent to the classifier:
// the current message first, then the recent conversation for context. The
// image, when present, rides along as a separate message part.
func (tm *TurnsManager) BuildModelContext(systemPrompt, currentText, imageDataURL string, recent []*schema.Message) []*schema.Message {
	var content strings.Builder
	content.WriteString("<current_message>\n")
	content.WriteString(currentText)
	content.WriteString("\n</current_message>\n")
	content.WriteString(buildContextBlock(recent))

	userMsg := schema.UserMessage(content.String())
	if imageDataURL != "" {
		userMsg.MultiContent = []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: content.String()},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL: imageDataURL,
				},
			},
		}
		userMsg.Content = ""
	}

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		userMsg,
	}
}

func buildContextBlock(turns []*schema.Message) string {
	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range turns {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>")
	return b.String()
}

// ====================== Helper function ======================
func trimTail(turns []*schema.Message, maxTurns int) []*schema.Message {
	if len(turns) <= maxTurns {
		result := make([]*schema.Message, len(turns))
		copy(result, turns)
		return result
	}
	source := turns[len(turns)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
