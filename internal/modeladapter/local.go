package modeladapter

import (
	"context"
	"errors"
)

// ErrLocalNotImplemented is returned by every localAdapter method. Running
// a concrete embedding/generation model in-process is explicitly out of
// scope; this shim exists so the daemon can be wired up and fail loudly
// and immediately if a caller ever selects the local variant without a
// remote endpoint configured, rather than silently no-op'ing.
var ErrLocalNotImplemented = errors.New("modeladapter: local model execution is not implemented")

type localAdapter struct{}

// NewLocal returns an Adapter stub for the in-process model variant.
func NewLocal() Adapter {
	return &localAdapter{}
}

func (localAdapter) GenerateWithTools(context.Context, []Message, []ToolDefinition) (string, error) {
	return "", ErrLocalNotImplemented
}

func (localAdapter) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrLocalNotImplemented
}

func (localAdapter) Dim() int { return 0 }

func (localAdapter) Dispose() error { return nil }
