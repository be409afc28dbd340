package model

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// TurnState stores per-invocation state for the coach graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type TurnState struct {
	UserID    string
	LocalDate time.Time
	RawText   string

	History []*schema.Message // recent turns loaded once at intake
	Pending *PendingSelection // previous assistant turn's food options, if any

	Parsed    *ParsedReply // set by parser post-handler, read by handlers
	EntryDate string       // canonical YYYY-MM-DD, resolved once per turn

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}
