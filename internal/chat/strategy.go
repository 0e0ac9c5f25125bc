package chat

import (
	"time"

	"github.com/hvga/hvga-og/internal/llm"
)

// Mode selects how a strategy talks to its provider.
type Mode string

const (
	// ModeConversational sends the full history with tool definitions and
	// runs requested tools.
	ModeConversational Mode = "conversational"
	// ModeStateless sends only the system prompt and the latest user message.
	ModeStateless Mode = "stateless"
)

// Strategy is one provider attempt in the ordered fallback list.
type Strategy struct {
	Provider    llm.Provider
	Model       string
	Mode        Mode
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Primary returns the conversational strategy: temperature 0.7, up to 1000
// output tokens, automatic tool choice.
func Primary(p llm.Provider, model string, timeout time.Duration) Strategy {
	return Strategy{
		Provider:    p,
		Model:       model,
		Mode:        ModeConversational,
		Timeout:     timeout,
		MaxTokens:   1000,
		Temperature: 0.7,
	}
}

// Fallback returns the stateless strategy: temperature 0.7, up to 150
// output tokens, no tools.
func Fallback(p llm.Provider, model string, timeout time.Duration) Strategy {
	return Strategy{
		Provider:    p,
		Model:       model,
		Mode:        ModeStateless,
		Timeout:     timeout,
		MaxTokens:   150,
		Temperature: 0.7,
	}
}

func (s Strategy) name() string {
	if s.Provider == nil {
		return "none"
	}
	return s.Provider.Name()
}
