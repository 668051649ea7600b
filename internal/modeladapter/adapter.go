// Package modeladapter defines the Model Adapter capability: two operations,
// GenerateWithTools and Embed, plus Dispose. The concrete model weights are
// explicitly out of scope (§1); this package only supplies the interface
// and the HTTP-backed remote variant the core calls through it.
package modeladapter

import "context"

// Message is a chat message in the OpenAI/OpenRouter tool-calling wire
// shape, carried over from the donor's pkg/agent.Message.
type Message struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function call the model asked to make.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall is a tool call's name + JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition is the OpenAI-compatible tool schema passed to GenerateWithTools.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function ToolFunctionSchema `json:"function"`
}

// ToolFunctionSchema describes one callable tool.
type ToolFunctionSchema struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// Adapter is the polymorphic capability {GenerateWithTools, Embed, Dispose}.
// Lifecycle is lazy (load on first call) and single-process; callers never
// invoke it concurrently with itself (the Message Router serializes all
// calls through it).
type Adapter interface {
	// GenerateWithTools returns the model's raw text output as produced; the
	// core does its own tool-call parsing (package prompt), never trusting
	// a structured tool_calls field even when the transport surfaces one.
	GenerateWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (string, error)

	// Embed returns a vector of a fixed dimension for the adapter's
	// lifetime.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dim reports the fixed embedding dimension. Only meaningful after the
	// first successful Embed call; 0 beforehand.
	Dim() int

	// Dispose releases underlying resources. Idempotent.
	Dispose() error
}
