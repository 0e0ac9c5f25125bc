// Package tools holds the functions the chat model may call, their parameter
// schemas, and the dispatcher that validates and runs them.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrUnknownTool is returned by Dispatch when no tool has the requested name.
var ErrUnknownTool = errors.New("unknown tool")

var tracer = otel.Tracer("github.com/hvga/hvga-og/internal/tools")

// ParamType is the JSON-schema type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// Param describes one named tool parameter.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Handler runs a tool. Handlers report failures through Result.Error.
type Handler func(ctx context.Context, args Args) Result

// Tool is a named, schema-described function the model can invoke.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Call is a model's request to run a tool.
type Call struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Result is what a tool produced. Exactly one of Message and Error is set;
// Data carries a structured payload when there is no message.
type Result struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Content renders the result as the text of a tool-role message: the
// message when present, otherwise the JSON encoding of the result.
func (r Result) Content() string {
	if r.Message != "" {
		return r.Message
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(b)
}

// Failed reports whether the result carries an error.
func (r Result) Failed() bool { return r.Error != "" }

// ParamError reports arguments that do not satisfy a tool's schema.
type ParamError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("tool %s: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("tool %s: parameter %q %s", e.Tool, e.Param, e.Reason)
}

// Definition is a tool exported as a JSON-schema function declaration.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Registry is a fixed set of tools keyed by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from the given tools. Tool names must be
// unique and non-empty.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Name == "" || t.Handler == nil {
			return nil, fmt.Errorf("tool %q: name and handler are required", t.Name)
		}
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("tool %q registered twice", t.Name)
		}
		r.tools[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

// Lookup returns the tool with the given name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions exports every tool as a function declaration for providers.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, t := range r.Tools() {
		defs = append(defs, Definition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema(),
		})
	}
	return defs
}

// Dispatch validates the call's arguments and runs the tool. An unknown
// name yields ErrUnknownTool and invalid arguments a *ParamError; every
// other failure is reported inside the Result.
func (r *Registry) Dispatch(ctx context.Context, call Call) (Result, error) {
	ctx, span := tracer.Start(ctx, "tools.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	)

	t, ok := r.tools[call.Name]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	args := Args(call.Arguments)
	if args == nil {
		args = Args{}
	}
	if err := t.Validate(args); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	log.Debug().
		Str("tool", call.Name).
		Interface("args", call.Arguments).
		Msg("dispatching tool call")

	res := t.Handler(ctx, args)
	if res.Failed() {
		span.SetAttributes(attribute.String("tool.error", res.Error))
	}
	return res, nil
}

// Schema returns the tool's parameters as a JSON-schema object.
func (t Tool) Schema() map[string]any {
	props := make(map[string]any, len(t.Params))
	required := []string{}
	for _, p := range t.Params {
		props[p.Name] = map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Validate checks args against the tool's parameters: required ones must be
// present, every value must match its declared type, and unknown names are
// rejected.
func (t Tool) Validate(args Args) error {
	known := make(map[string]Param, len(t.Params))
	for _, p := range t.Params {
		known[p.Name] = p
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return &ParamError{Tool: t.Name, Param: p.Name, Reason: "is required"}
			}
			continue
		}
		if p.Required && p.Type == TypeString {
			if s, _ := v.(string); strings.TrimSpace(s) == "" {
				return &ParamError{Tool: t.Name, Param: p.Name, Reason: "must not be empty"}
			}
		}
		if !typeMatches(p.Type, v) {
			return &ParamError{Tool: t.Name, Param: p.Name, Reason: fmt.Sprintf("must be a %s", p.Type)}
		}
	}
	for name := range args {
		if _, ok := known[name]; !ok {
			return &ParamError{Tool: t.Name, Param: name, Reason: "is not a known parameter"}
		}
	}
	return nil
}

func typeMatches(pt ParamType, v any) bool {
	switch pt {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeNumber:
		_, ok := toFloat(v)
		return ok
	case TypeInteger:
		f, ok := toFloat(v)
		return ok && f == float64(int64(f))
	}
	return false
}

// ParseArguments decodes a provider's raw JSON argument string. An empty
// string decodes to no arguments.
func ParseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("decoding tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
