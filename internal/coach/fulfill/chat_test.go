package fulfill

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nutricoach/coach-core/internal/coach/model"
)

func TestChat_QuestionBecomesAdvice(t *testing.T) {
	h := New(newMemGateway())

	result := h.Chat(&model.ParsedReply{
		Intent:   model.IntentAskQuestion,
		Response: "Aim for roughly 1.6 g of protein per kg of body weight.",
	})

	assert.Equal(t, model.ActionAdvice, result.Action)
	assert.Contains(t, result.Response, "protein")
}

func TestChat_SmallTalk(t *testing.T) {
	h := New(newMemGateway())

	result := h.Chat(&model.ParsedReply{
		Intent:   model.IntentChat,
		Response: "Nice work staying consistent this week!",
	})

	assert.Equal(t, model.ActionChat, result.Action)
}

func TestChat_UnparsedReplyPassesRawThrough(t *testing.T) {
	h := New(newMemGateway())

	result := h.Chat(&model.ParsedReply{
		Unparsed: true,
		Raw:      "Here are some thoughts on your training split...",
	})

	assert.Equal(t, model.ActionAdvice, result.Action)
	assert.Equal(t, "Here are some thoughts on your training split...", result.Response)
}

func TestClarify(t *testing.T) {
	h := New(newMemGateway())

	withText := h.Clarify(&model.ParsedReply{Response: "Did you mean to log a food?"})
	assert.Equal(t, "Did you mean to log a food?", withText.Response)

	empty := h.Clarify(&model.ParsedReply{})
	assert.Equal(t, clarifyReply, empty.Response)
}
