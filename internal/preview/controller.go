package preview

import (
	"sync"
	"time"

	"github.com/codecanvas/codecanvas/internal/metrics"
	"github.com/codecanvas/codecanvas/pkg/types"
)

// Controller owns the sandbox generation state for one session. Each
// refresh is a fresh generation; only the last-instantiated generation's
// signals are honored, and stale generations are silently dropped rather
// than torn down (the host simply stops listening).
type Controller struct {
	mu         sync.Mutex
	generation int64
	document   string
	consoleErr *types.ConsoleError
	logs       []string

	debounce time.Duration
	timer    *time.Timer
}

// NewController creates a controller with the given refresh debounce.
func NewController(debounce time.Duration) *Controller {
	return &Controller{debounce: debounce}
}

// NextGeneration discards the current generation: it bumps the counter,
// clears captured error and log state, and cancels any pending debounced
// refresh. The caller builds the new document against the returned
// generation and hands it back via Publish.
func (c *Controller) NextGeneration() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.consoleErr = nil
	c.logs = nil
	metrics.PreviewRefreshesTotal.Inc()
	return c.generation
}

// Publish installs the document for a generation. A document built for a
// generation that has since been superseded is discarded.
func (c *Controller) Publish(generation int64, document string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	c.document = document
	return true
}

// Document returns the current document and its generation. Generation 0
// means no document has been built yet.
func (c *Controller) Document() (string, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document, c.generation
}

// Generation returns the live generation.
func (c *Controller) Generation() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Schedule arranges fn to run after the debounce quiet period. A new call
// before the timer fires replaces the pending one, so at most one refresh
// is ever pending regardless of keystroke rate.
func (c *Controller) Schedule(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, fn)
}

// HandleSignal applies a signal from the rendering context. Signals from a
// superseded generation, and payloads that fail shape validation, are
// dropped. An error overwrites the previous one; a success signal clears
// it. Log lines accumulate for the life of the generation.
func (c *Controller) HandleSignal(generation int64, sig types.PreviewSignal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		metrics.StaleSignalsTotal.Inc()
		return false
	}
	if !sig.Valid() {
		return false
	}
	switch sig.Type {
	case types.SignalError:
		err := *sig.Error
		c.consoleErr = &err
	case types.SignalSuccess:
		c.consoleErr = nil
	case types.SignalLog:
		c.logs = append(c.logs, sig.Message)
	}
	return true
}

// Console returns the captured state of the live generation.
func (c *Controller) Console() types.ConsoleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := types.ConsoleState{Generation: c.generation}
	if c.consoleErr != nil {
		err := *c.consoleErr
		state.Error = &err
	}
	state.Logs = append(state.Logs, c.logs...)
	return state
}

// Close cancels any pending refresh.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
