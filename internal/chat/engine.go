// Package chat runs a conversation turn: it keeps per-session history, asks
// the primary model (running any tools it requests), and falls back to a
// stateless call on a secondary model when the primary fails.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hvga/hvga-og/internal/llm"
	"github.com/hvga/hvga-og/internal/tools"
)

var (
	// ErrNoProviders means the engine was built without any strategy.
	ErrNoProviders = errors.New("no chat providers configured")
	// ErrEmptyMessage means the turn had no user text.
	ErrEmptyMessage = errors.New("message is required")
	// ErrAllProvidersFailed wraps the last error once every strategy failed.
	ErrAllProvidersFailed = errors.New("all chat providers failed")
)

var tracer = otel.Tracer("github.com/hvga/hvga-og/internal/chat")

// Dispatcher runs tool calls. *tools.Registry implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, call tools.Call) (tools.Result, error)
	Definitions() []tools.Definition
}

// Options configure an Engine.
type Options struct {
	SystemPrompt string
	Tools        Dispatcher
	Store        Store
	Strategies   []Strategy
	// NominalModel is reported in every reply regardless of which provider
	// answered.
	NominalModel string
	HistoryLimit int
}

// Turn is one inbound user message.
type Turn struct {
	SessionID string
	Message   string
}

// Reply is the answer to a Turn.
type Reply struct {
	Text      string `json:"response"`
	Model     string `json:"model"`
	Provider  string `json:"provider"`
	SessionID string `json:"session_id"`
}

// Engine answers chat turns.
type Engine struct {
	systemPrompt string
	tools        Dispatcher
	toolDefs     []llm.ToolDefinition
	store        Store
	strategies   []Strategy
	model        string
	limit        int
	locks        *keyedMutex
}

// NewEngine validates opts and builds an Engine.
func NewEngine(opts Options) (*Engine, error) {
	if len(opts.Strategies) == 0 {
		return nil, ErrNoProviders
	}
	for i, s := range opts.Strategies {
		if s.Provider == nil {
			return nil, fmt.Errorf("strategy %d: %w", i, ErrNoProviders)
		}
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore(0)
	}
	if opts.HistoryLimit <= 1 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.NominalModel == "" {
		opts.NominalModel = opts.Strategies[0].Model
	}

	e := &Engine{
		systemPrompt: opts.SystemPrompt,
		tools:        opts.Tools,
		store:        opts.Store,
		strategies:   opts.Strategies,
		model:        opts.NominalModel,
		limit:        opts.HistoryLimit,
		locks:        newKeyedMutex(),
	}
	if opts.Tools != nil {
		for _, d := range opts.Tools.Definitions() {
			e.toolDefs = append(e.toolDefs, llm.ToolDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			})
		}
	}
	return e, nil
}

// Model returns the nominal model reported in replies.
func (e *Engine) Model() string { return e.model }

// Respond answers one turn. Turns of the same session run one at a time.
func (e *Engine) Respond(ctx context.Context, turn Turn) (*Reply, error) {
	text := strings.TrimSpace(turn.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	sessionID := turn.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := tracer.Start(ctx, "chat.Respond")
	defer span.End()
	span.SetAttributes(attribute.String("chat.session_id", sessionID))

	unlock := e.locks.Lock(sessionID)
	defer unlock()

	history, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	history = append(withSystemPrompt(history, e.systemPrompt), llm.Message{Role: llm.RoleUser, Content: text})

	var lastErr error
	for i, s := range e.strategies {
		answer, updated, err := e.attempt(ctx, s, history, text)
		if err == nil {
			updated = append(updated, llm.Message{Role: llm.RoleAssistant, Content: answer})
			updated = Prune(updated, e.limit)
			if err := e.store.Save(ctx, sessionID, updated); err != nil {
				return nil, fmt.Errorf("saving session: %w", err)
			}
			span.SetAttributes(attribute.String("chat.provider", s.name()))
			return &Reply{Text: answer, Model: e.model, Provider: s.name(), SessionID: sessionID}, nil
		}

		if errors.Is(err, tools.ErrUnknownTool) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		lastErr = err
		log.Warn().
			Err(err).
			Str("provider", s.name()).
			Int("strategy", i).
			Str("session", sessionID).
			Msg("chat strategy failed")
	}

	err = fmt.Errorf("%w: %w", ErrAllProvidersFailed, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// attempt runs one strategy under its own deadline. It returns the answer and
// the history to persist (without the final assistant message).
func (e *Engine) attempt(ctx context.Context, s Strategy, history []llm.Message, userText string) (string, []llm.Message, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "chat.strategy")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", s.name()),
		attribute.String("llm.mode", string(s.Mode)),
	)

	start := time.Now()
	var (
		answer  string
		updated []llm.Message
		err     error
	)
	if s.Mode == ModeStateless {
		answer, err = e.stateless(ctx, s, userText)
		updated = history
	} else {
		answer, updated, err = e.conversational(ctx, s, clone(history))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", nil, err
	}
	log.Debug().
		Str("provider", s.name()).
		Dur("duration", time.Since(start)).
		Msg("chat strategy answered")
	return answer, updated, nil
}

func (e *Engine) conversational(ctx context.Context, s Strategy, history []llm.Message) (string, []llm.Message, error) {
	req := llm.CompletionRequest{
		Model:       s.Model,
		Messages:    history,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	}
	if len(e.toolDefs) > 0 {
		req.Tools = e.toolDefs
		req.ToolChoice = llm.ToolChoiceAuto
	}

	resp, err := s.Provider.Complete(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("%s completion: %w", s.name(), err)
	}
	recordUsage(ctx, s, resp)
	answer := resp.Content

	for _, call := range resp.ToolCalls {
		result, err := e.runTool(ctx, call)
		if err != nil {
			return "", nil, err
		}
		history = append(history,
			llm.Message{Role: llm.RoleAssistant, Content: answer, ToolCalls: []llm.ToolCall{call}},
			llm.Message{Role: llm.RoleTool, Content: result.Content(), ToolCallID: call.ID},
		)

		follow, err := s.Provider.Complete(ctx, llm.CompletionRequest{
			Model:       s.Model,
			Messages:    history,
			MaxTokens:   s.MaxTokens,
			Temperature: s.Temperature,
		})
		if err != nil {
			return "", nil, fmt.Errorf("%s follow-up after %s: %w", s.name(), call.Name, err)
		}
		recordUsage(ctx, s, follow)
		answer = follow.Content
	}
	return answer, history, nil
}

// runTool dispatches one call. Bad arguments come back to the model as a
// tool error; an unknown tool aborts the turn.
func (e *Engine) runTool(ctx context.Context, call llm.ToolCall) (tools.Result, error) {
	if e.tools == nil {
		return tools.Result{}, fmt.Errorf("%w: %s", tools.ErrUnknownTool, call.Name)
	}
	args, err := tools.ParseArguments(call.Arguments)
	if err != nil {
		return tools.Result{Error: err.Error()}, nil
	}

	result, err := e.tools.Dispatch(ctx, tools.Call{ID: call.ID, Name: call.Name, Arguments: args})
	var pe *tools.ParamError
	switch {
	case errors.As(err, &pe):
		log.Info().Str("tool", call.Name).Err(err).Msg("rejected tool arguments")
		return tools.Result{Error: pe.Error()}, nil
	case err != nil:
		return tools.Result{}, err
	}
	return result, nil
}

func (e *Engine) stateless(ctx context.Context, s Strategy, userText string) (string, error) {
	resp, err := s.Provider.Complete(ctx, llm.CompletionRequest{
		Model: s.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: e.systemPrompt},
			{Role: llm.RoleUser, Content: userText},
		},
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", s.name(), err)
	}
	recordUsage(ctx, s, resp)
	return resp.Content, nil
}

// recordUsage attaches token counts and the estimated price to the current span.
func recordUsage(ctx context.Context, s Strategy, resp *llm.CompletionResponse) {
	if resp == nil {
		return
	}
	model := resp.Model
	if model == "" {
		model = s.Model
	}
	cost := llm.EstimateCost(model, resp.InputTokens, resp.OutputTokens)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("llm.input_tokens", resp.InputTokens),
		attribute.Int("llm.output_tokens", resp.OutputTokens),
		attribute.Float64("llm.cost_usd", cost),
	)
	log.Debug().
		Str("provider", s.name()).
		Str("model", model).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Float64("cost_usd", cost).
		Msg("llm usage")
}

// Reset forgets a session's history.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	unlock := e.locks.Lock(sessionID)
	defer unlock()
	return e.store.Delete(ctx, sessionID)
}
