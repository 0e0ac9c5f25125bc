package chat

import "github.com/hvga/hvga-og/internal/llm"

// DefaultHistoryLimit is the longest history kept between turns.
const DefaultHistoryLimit = 10

// Prune bounds history to the system message plus the most recent limit-1
// messages once it grows past limit. Tool results left at the front without
// their originating call are dropped too.
func Prune(history []llm.Message, limit int) []llm.Message {
	if limit <= 1 || len(history) <= limit {
		return history
	}

	tail := history[len(history)-(limit-1):]
	for len(tail) > 0 && tail[0].Role == llm.RoleTool {
		tail = tail[1:]
	}

	out := make([]llm.Message, 0, 1+len(tail))
	out = append(out, history[0])
	return append(out, tail...)
}

// clone returns a copy of history that can be appended to freely.
func clone(history []llm.Message) []llm.Message {
	return append(make([]llm.Message, 0, len(history)+4), history...)
}

// withSystemPrompt returns a copy of history that starts with the current
// system prompt, replacing whatever system message was stored.
func withSystemPrompt(history []llm.Message, prompt string) []llm.Message {
	system := llm.Message{Role: llm.RoleSystem, Content: prompt}
	if len(history) > 0 && history[0].Role == llm.RoleSystem {
		out := clone(history)
		out[0] = system
		return out
	}
	return append([]llm.Message{system}, history...)
}
