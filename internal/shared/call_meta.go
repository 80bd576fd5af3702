package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a model request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// CallMeta describes one call to an external service: a recipe search, a
// page import or a model request.
type CallMeta struct {
	Source    string
	Operation string
	Usage     TokenUsage
	Results   int
	Latency   time.Duration
	Failed    bool
}
