// Package stream implements the single-slot write-in-progress overlay that
// shadows one file's persisted content while a generator is producing it.
package stream

import (
	"sync"

	"github.com/codecanvas/codecanvas/pkg/types"
)

// Overlay holds at most one live StreamingTarget per session. While a
// target is installed it is the authoritative view of its file's content;
// the persisted tree is never touched by the overlay itself. Committing
// the final text into the tree is the caller's decision on End, so an
// abandoned stream never promotes partial content.
type Overlay struct {
	mu     sync.Mutex
	target *types.StreamingTarget
	onEnd  func(final types.StreamingTarget)
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// OnEnd registers a completion observer, invoked exactly once per
// Begin/End pair with the final accumulated target. A stream superseded
// by a later Begin is abandoned, not completed, and fires nothing.
func (o *Overlay) OnEnd(fn func(final types.StreamingTarget)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onEnd = fn
}

// Begin installs a new target, replacing any prior one wholesale. Only one
// generation stream is supported at a time; starting a new one implicitly
// abandons the previous.
func (o *Overlay) Begin(filePath string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = &types.StreamingTarget{FilePath: filePath}
}

// Append replaces the target's code with the generator's full accumulated
// text. The generator supplies cumulative state each call, not a delta, so
// a resend after a reconnect cannot double-apply. Append without an active
// stream is a no-op.
func (o *Overlay) Append(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.target != nil {
		o.target.Code = code
	}
}

// End clears the slot and returns the final target. The completion
// observer fires once, after the slot is already empty, so observers see
// the overlay as inactive.
func (o *Overlay) End() (types.StreamingTarget, bool) {
	o.mu.Lock()
	if o.target == nil {
		o.mu.Unlock()
		return types.StreamingTarget{}, false
	}
	final := *o.target
	o.target = nil
	fn := o.onEnd
	o.mu.Unlock()

	if fn != nil {
		fn(final)
	}
	return final, true
}

// Active reports whether a stream is in progress.
func (o *Overlay) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target != nil
}

// Target returns a copy of the live target, if any.
func (o *Overlay) Target() (types.StreamingTarget, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.target == nil {
		return types.StreamingTarget{}, false
	}
	return *o.target, true
}

// CodeFor returns the overlay's code when it shadows the given path. This
// is the cross-cutting read override: every read site serving editor or
// preview content consults it before the persisted tree.
func (o *Overlay) CodeFor(path string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.target == nil || o.target.FilePath != path {
		return "", false
	}
	return o.target.Code, true
}
