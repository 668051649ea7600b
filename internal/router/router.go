package router

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Processor handles one drained message. Implemented by processor.go's
// Processor type; kept as an interface here so router.go stays testable
// without a real Store/Adapter wired up.
type Processor interface {
	Process(ctx context.Context, msg Message)
}

// Router is a single-consumer FIFO queue: one drainer at a time processes
// the queue to completion. When a new message arrives and no drain is in
// flight, a drain is started.
type Router struct {
	mu       sync.Mutex
	queue    []Message
	draining bool
	doneCh   chan struct{}

	proc Processor
	log  zerolog.Logger
	ctx  context.Context

	// batchWindow and lastObs implement the BATCH_WINDOW_MS merge window
	// (§6): an Observation for the same session+tool arriving within the
	// window of the previous one is coalesced (dropped, not re-enqueued)
	// rather than driving a second redundant model call. Zero disables
	// merging.
	batchWindow time.Duration
	lastObs     map[string]time.Time
}

// New builds a Router bound to a context (canceled at process shutdown)
// and the given Processor. batchWindow is the BATCH_WINDOW_MS merge
// window for adjacent same-tool observations; 0 disables merging.
func New(ctx context.Context, proc Processor, log zerolog.Logger, batchWindow time.Duration) *Router {
	return &Router{
		proc:        proc,
		log:         log,
		ctx:         ctx,
		batchWindow: batchWindow,
		lastObs:     make(map[string]time.Time),
	}
}

// Enqueue appends msg to the queue and starts a drain if none is running.
// Non-blocking: the caller (an HTTP handler) never waits on processing. An
// Observation arriving within the batch window of the previous one for the
// same session+tool is merged (dropped) rather than enqueued again.
func (r *Router) Enqueue(msg Message) {
	r.mu.Lock()
	if obs, ok := msg.(Observation); ok && r.batchWindow > 0 {
		key := obs.ExternalSessionID + "|" + obs.ToolName
		now := time.Now()
		if last, seen := r.lastObs[key]; seen && now.Sub(last) < r.batchWindow {
			r.lastObs[key] = now
			r.mu.Unlock()
			r.log.Debug().Str("session", obs.ExternalSessionID).Str("tool", obs.ToolName).Msg("router: merged adjacent same-tool observation")
			return
		}
		r.lastObs[key] = now
	}

	r.queue = append(r.queue, msg)
	start := !r.draining
	if start {
		r.draining = true
		r.doneCh = make(chan struct{})
	}
	r.mu.Unlock()

	if start {
		go r.drain()
	}
}

// Pending returns the current queue length.
func (r *Router) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Shutdown resolves when the in-flight drain (if any) completes.
func (r *Router) Shutdown() {
	r.mu.Lock()
	done := r.doneCh
	draining := r.draining
	r.mu.Unlock()
	if draining && done != nil {
		<-done
	}
}

func (r *Router) drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.draining = false
			done := r.doneCh
			r.doneCh = nil
			r.mu.Unlock()
			if done != nil {
				close(done)
			}
			return
		}
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Error().Interface("panic", rec).Msg("router: recovered from processor panic")
				}
			}()
			r.proc.Process(r.ctx, msg)
		}()
	}
}
