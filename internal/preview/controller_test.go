package preview

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/codecanvas/codecanvas/pkg/types"
)

func TestPublishStaleGenerationDiscarded(t *testing.T) {
	c := NewController(time.Millisecond)

	g1 := c.NextGeneration()
	g2 := c.NextGeneration()

	if c.Publish(g1, "old") {
		t.Error("publish for a superseded generation must be discarded")
	}
	if !c.Publish(g2, "new") {
		t.Fatal("publish for the live generation failed")
	}
	doc, gen := c.Document()
	if doc != "new" || gen != g2 {
		t.Errorf("Document() = %q gen %d, want %q gen %d", doc, gen, "new", g2)
	}
}

func TestStaleSignalsDropped(t *testing.T) {
	c := NewController(time.Millisecond)

	g1 := c.NextGeneration()
	if !c.HandleSignal(g1, types.PreviewSignal{Type: types.SignalError, Error: &types.ConsoleError{Message: "boom"}}) {
		t.Fatal("live-generation signal rejected")
	}

	g2 := c.NextGeneration()
	if c.Console().Error != nil {
		t.Fatal("NextGeneration must clear captured error state")
	}

	// A slow-finishing prior generation must not clobber the new one.
	if c.HandleSignal(g1, types.PreviewSignal{Type: types.SignalError, Error: &types.ConsoleError{Message: "late"}}) {
		t.Error("stale signal was honored")
	}
	if c.Console().Error != nil {
		t.Error("stale signal altered displayed error state")
	}

	if !c.HandleSignal(g2, types.PreviewSignal{Type: types.SignalLog, Message: `"hello"`}) {
		t.Error("live log signal rejected")
	}
	if logs := c.Console().Logs; len(logs) != 1 || logs[0] != `"hello"` {
		t.Errorf("unexpected logs: %v", logs)
	}
}

func TestSuccessClearsError(t *testing.T) {
	c := NewController(time.Millisecond)
	gen := c.NextGeneration()

	c.HandleSignal(gen, types.PreviewSignal{Type: types.SignalError, Error: &types.ConsoleError{Message: "boom"}})
	c.HandleSignal(gen, types.PreviewSignal{Type: types.SignalSuccess})

	if c.Console().Error != nil {
		t.Error("success signal must clear the captured error")
	}
}

func TestMalformedSignalIgnored(t *testing.T) {
	c := NewController(time.Millisecond)
	gen := c.NextGeneration()

	if c.HandleSignal(gen, types.PreviewSignal{Type: types.SignalError}) {
		t.Error("preview_error without an error payload must be rejected")
	}
	if c.HandleSignal(gen, types.PreviewSignal{Type: "bogus"}) {
		t.Error("unknown tag must be rejected")
	}
}

func TestScheduleReplacesPending(t *testing.T) {
	c := NewController(20 * time.Millisecond)

	var fired int32
	for i := 0; i < 5; i++ {
		c.Schedule(func() { atomic.AddInt32(&fired, 1) })
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(60 * time.Millisecond)
	if n := atomic.LoadInt32(&fired); n != 1 {
		t.Errorf("debounced refresh fired %d times, want 1", n)
	}
}

func TestNextGenerationCancelsPending(t *testing.T) {
	c := NewController(10 * time.Millisecond)

	var fired int32
	c.Schedule(func() { atomic.AddInt32(&fired, 1) })
	c.NextGeneration()

	time.Sleep(40 * time.Millisecond)
	if n := atomic.LoadInt32(&fired); n != 0 {
		t.Errorf("explicit refresh must cancel the pending debounced one, fired=%d", n)
	}
}
