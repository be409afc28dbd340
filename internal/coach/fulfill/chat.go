package fulfill

import (
	"strings"

	"github.com/nutricoach/coach-core/internal/coach/model"
)

// Chat handles the two conversational intents and the degraded
// unparsable-reply case. Pure passthrough of the model's own response text;
// nothing is persisted.
func (h *Handlers) Chat(parsed *model.ParsedReply) *model.CoachResult {
	if parsed.Unparsed {
		return &model.CoachResult{
			Action:   model.ActionAdvice,
			Response: parsed.Raw,
		}
	}

	response := strings.TrimSpace(parsed.Response)
	if response == "" {
		return resultNone(clarifyReply)
	}

	action := model.ActionChat
	if parsed.Intent == model.IntentAskQuestion {
		action = model.ActionAdvice
	}
	return &model.CoachResult{
		Action:   action,
		Response: response,
	}
}

// Clarify handles an intent value outside the closed set: the model's
// response text when it offered one, a generic nudge otherwise.
func (h *Handlers) Clarify(parsed *model.ParsedReply) *model.CoachResult {
	if parsed != nil && strings.TrimSpace(parsed.Response) != "" {
		return resultNone(strings.TrimSpace(parsed.Response))
	}
	return resultNone(clarifyReply)
}
