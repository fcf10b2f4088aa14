package dispatch

import (
	"sync"
	"time"
)

// Sink receives results. Deliver must not block for long; it is called from
// the goroutine that ran the command.
type Sink interface {
	Deliver(CommandResult)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(CommandResult)

func (f SinkFunc) Deliver(r CommandResult) { f(r) }

// Recorder is a Sink that keeps every delivery.
type Recorder struct {
	mu      sync.Mutex
	results []CommandResult
	notify  chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

func (r *Recorder) Deliver(res CommandResult) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Results returns a copy of the deliveries so far.
func (r *Recorder) Results() []CommandResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommandResult, len(r.results))
	copy(out, r.results)
	return out
}

// Wait blocks until at least n results arrived or timeout elapses, and
// returns what was received.
func (r *Recorder) Wait(n int, timeout time.Duration) []CommandResult {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if res := r.Results(); len(res) >= n {
			return res
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			return r.Results()
		}
	}
}
