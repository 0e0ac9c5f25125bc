package llm

import "context"

// Provider is a chat-completion backend. Implementations translate
// CompletionRequest, including tool definitions and tool-role messages, to
// their wire format and report any tool calls the model made in the
// response. A provider that cannot call tools ignores req.Tools.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name identifies the provider in logs, spans and chat replies.
	Name() string
}
