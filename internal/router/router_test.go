package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude-mem/memoryd/internal/modeladapter"
	"github.com/claude-mem/memoryd/internal/store"
)

// noopAdapter is a modeladapter.Adapter that would fail the test if ever
// called — the unknown-session guard in Processor must return before any
// model call is made.
type noopAdapter struct{ t *testing.T }

func (a *noopAdapter) GenerateWithTools(context.Context, []modeladapter.Message, []modeladapter.ToolDefinition) (string, error) {
	a.t.Fatal("adapter should not be called for an unknown session")
	return "", nil
}

func (a *noopAdapter) Embed(context.Context, string) ([]float32, error) {
	a.t.Fatal("adapter should not be called for an unknown session")
	return nil, nil
}

func (a *noopAdapter) Dim() int { return 4 }

func (a *noopAdapter) Dispose() error { return nil }

type recordingProcessor struct {
	mu       sync.Mutex
	messages []Message
}

func (p *recordingProcessor) Process(_ context.Context, msg Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *recordingProcessor) snapshot() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

type panickingProcessor struct{ recordingProcessor }

func (p *panickingProcessor) Process(ctx context.Context, msg Message) {
	if _, ok := msg.(Complete); ok {
		panic("boom")
	}
	p.recordingProcessor.Process(ctx, msg)
}

func TestEnqueueProcessesInOrder(t *testing.T) {
	proc := &recordingProcessor{}
	r := New(context.Background(), proc, zerolog.Nop(), 0)

	r.Enqueue(Observation{ExternalSessionID: "s1", ToolName: "Edit"})
	r.Enqueue(Summarize{ExternalSessionID: "s1"})
	r.Enqueue(Complete{ExternalSessionID: "s1"})
	r.Shutdown()

	got := proc.snapshot()
	require.Len(t, got, 3)
	assert.IsType(t, Observation{}, got[0])
	assert.IsType(t, Summarize{}, got[1])
	assert.IsType(t, Complete{}, got[2])
}

func TestEnqueueRecoversFromProcessorPanic(t *testing.T) {
	proc := &panickingProcessor{}
	r := New(context.Background(), proc, zerolog.Nop(), 0)

	r.Enqueue(Complete{ExternalSessionID: "s1"})
	r.Enqueue(Observation{ExternalSessionID: "s1", ToolName: "Edit"})
	r.Shutdown()

	got := proc.snapshot()
	require.Len(t, got, 1)
	assert.IsType(t, Observation{}, got[0])
}

func TestEnqueueMergesAdjacentSameToolObservationsWithinBatchWindow(t *testing.T) {
	proc := &recordingProcessor{}
	r := New(context.Background(), proc, zerolog.Nop(), time.Hour)

	r.Enqueue(Observation{ExternalSessionID: "s1", ToolName: "Edit", ToolInput: "first"})
	r.Shutdown()
	r.Enqueue(Observation{ExternalSessionID: "s1", ToolName: "Edit", ToolInput: "second"})
	r.Shutdown()
	r.Enqueue(Observation{ExternalSessionID: "s1", ToolName: "Read", ToolInput: "third"})
	r.Shutdown()

	got := proc.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].(Observation).ToolInput)
	assert.Equal(t, "third", got[1].(Observation).ToolInput)
}

func TestPendingReflectsQueueLength(t *testing.T) {
	block := make(chan struct{})
	proc := &blockingProcessor{release: block}
	r := New(context.Background(), proc, zerolog.Nop(), 0)

	r.Enqueue(Observation{ExternalSessionID: "s1", ToolName: "Edit"})
	r.Enqueue(Observation{ExternalSessionID: "s1", ToolName: "Read"})

	require.Eventually(t, func() bool { return r.Pending() >= 1 }, time.Second, time.Millisecond)
	close(block)
	r.Shutdown()
	assert.Equal(t, 0, r.Pending())
}

type blockingProcessor struct {
	release chan struct{}
	once    sync.Once
}

func (p *blockingProcessor) Process(context.Context, Message) {
	p.once.Do(func() { <-p.release })
}

// TestProcessObservation_UnknownSessionDoesNotPanic exercises the real
// Processor directly (bypassing the router's own recover wrapper in
// drain()), so a regression in the session == nil guard fails this test
// with a panic rather than being silently swallowed.
func TestProcessObservation_UnknownSessionDoesNotPanic(t *testing.T) {
	log := zerolog.Nop()
	s, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	proc := &Processor{Store: s, Adapter: &noopAdapter{t: t}, Log: log}
	r := New(context.Background(), proc, log, 0)
	proc.Router = r

	require.NotPanics(t, func() {
		proc.Process(context.Background(), Observation{
			ExternalSessionID: "never-created",
			ToolName:          "Edit",
			ToolInput:         `{"file_path":"/p/app/a.go"}`,
			ToolResponse:      "ok",
		})
	})
	r.Shutdown()

	observations, err := s.GetRecentObservations("", 10)
	require.NoError(t, err)
	require.Empty(t, observations)
}
