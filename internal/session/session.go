// Package session owns the per-session aggregate: the project reference,
// the streaming overlay, the preview sandbox controller, and the remote
// execution guard. All project mutation goes through whole-value
// replacement — copy, mutate the copy, publish the copy — so holders of an
// older reference never observe a partial edit.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/codecanvas/codecanvas/internal/metrics"
	"github.com/codecanvas/codecanvas/internal/preview"
	"github.com/codecanvas/codecanvas/internal/project"
	"github.com/codecanvas/codecanvas/internal/runner"
	"github.com/codecanvas/codecanvas/internal/stream"
	"github.com/codecanvas/codecanvas/internal/vfs"
	"github.com/codecanvas/codecanvas/pkg/types"
)

var (
	// ErrStreamActive rejects user edits while a generator stream owns
	// the editing surface.
	ErrStreamActive = errors.New("a stream is writing to this session")

	// ErrNoStream is returned by stream operations without a Begin.
	ErrNoStream = errors.New("no active stream")

	// ErrRunInProgress guards against concurrent execution runs.
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrNotRunnable is returned for non-python paths.
	ErrNotRunnable = errors.New("file is not runnable")
)

// Options configure a session.
type Options struct {
	Name        string
	Project     *types.Project // resume from a snapshot; nil scaffolds a starter project
	Debounce    time.Duration
	FormatDelay time.Duration // delay before the post-stream format pass
	Runner      *runner.Client
	Store       *project.Store // optional; nil disables snapshots

	// SignalURL builds the WebSocket URL a preview generation reports to.
	// Nil produces documents with a dead signal channel (still renderable).
	SignalURL func(sessionID string, generation int64) string

	// OnStreamEnd is notified, not commanded: the shell UI decides its own
	// view transition when a stream completes.
	OnStreamEnd func(final types.StreamingTarget)
}

// Session is one editing session. Methods are safe for concurrent use.
type Session struct {
	ID string

	mu          sync.Mutex
	project     *types.Project
	running     bool
	transcript  []string
	overlay     *stream.Overlay
	preview     *preview.Controller
	runner      *runner.Client
	store       *project.Store
	signalURL   func(string, int64) string
	formatDelay time.Duration
}

// New creates a session. Without a resumed project it scaffolds the
// default starter tree so the preview is never empty.
func New(id string, opts Options) *Session {
	p := opts.Project
	if p == nil {
		p = scaffoldProject(opts.Name)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	formatDelay := opts.FormatDelay
	if formatDelay <= 0 {
		formatDelay = 100 * time.Millisecond
	}

	s := &Session{
		ID:          id,
		project:     p,
		overlay:     stream.NewOverlay(),
		preview:     preview.NewController(debounce),
		runner:      opts.Runner,
		store:       opts.Store,
		signalURL:   opts.SignalURL,
		formatDelay: formatDelay,
	}
	if opts.OnStreamEnd != nil {
		s.overlay.OnEnd(opts.OnStreamEnd)
	}
	return s
}

// Close releases the session's timers.
func (s *Session) Close() {
	s.preview.Close()
}

// Project returns the current project reference.
func (s *Session) Project() *types.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// Info describes the session.
func (s *Session) Info() types.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.SessionInfo{
		ID:        s.ID,
		ProjectID: s.project.ID,
		Name:      s.project.Name,
		Streaming: s.overlay.Active(),
	}
}

// Streaming reports whether a generator stream is active; the editor
// surfaces this as a read-only flag.
func (s *Session) Streaming() bool {
	return s.overlay.Active()
}

// ReadFile returns the content visible at path. An active overlay for the
// path supersedes the persisted tree; a missing path reads as "".
func (s *Session) ReadFile(path string) string {
	if code, ok := s.overlay.CodeFor(path); ok {
		return code
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return vfs.Get(s.project, path)
}

// FlatFiles returns the flattened project with the overlay override
// applied, the view both the editor file list and the preview consume.
func (s *Session) FlatFiles() map[string]string {
	s.mu.Lock()
	flat := vfs.Flatten(s.project.Files)
	s.mu.Unlock()
	if t, ok := s.overlay.Target(); ok {
		flat[t.FilePath] = t.Code
	}
	return flat
}

// EditFile applies a user edit. Edits are rejected while a stream is
// active. Edits to web-typed files schedule a debounced preview refresh
// rather than rebuilding on every keystroke.
func (s *Session) EditFile(path, content string) error {
	if s.overlay.Active() {
		return ErrStreamActive
	}

	s.mu.Lock()
	s.project = vfs.SetContent(s.project, path, content)
	s.saveSnapshotLocked()
	s.mu.Unlock()

	if TypeOf(path) == FileWeb {
		s.preview.Schedule(s.RefreshPreview)
	}
	return nil
}

// BeginStream installs the overlay for path, superseding any prior stream.
func (s *Session) BeginStream(path string) {
	s.overlay.Begin(path)
}

// StreamChunk applies the generator's full accumulated text.
func (s *Session) StreamChunk(code string) error {
	if !s.overlay.Active() {
		return ErrNoStream
	}
	s.overlay.Append(code)
	metrics.StreamChunksTotal.Inc()
	return nil
}

// EndStream clears the overlay. With commit, the final text is persisted
// into the tree and a deferred format pass is scheduled; without it the
// tree keeps its pre-stream content. Either way the completion observer
// fires and, for web targets, the preview is rebuilt against the
// now-overlay-free state.
func (s *Session) EndStream(commit bool) error {
	final, ok := s.overlay.End()
	if !ok {
		return ErrNoStream
	}

	if commit {
		s.mu.Lock()
		s.project = vfs.SetContent(s.project, final.FilePath, final.Code)
		s.saveSnapshotLocked()
		s.mu.Unlock()

		// Formatting runs after the editor has accepted the final
		// synchronous content update, never inline with End.
		time.AfterFunc(s.formatDelay, func() {
			s.applyFormat(final.FilePath, final.Code)
		})
	}

	if TypeOf(final.FilePath) == FileWeb {
		s.RefreshPreview()
	}
	return nil
}

// applyFormat normalizes the committed text, skipping the pass when a
// newer edit already replaced it.
func (s *Session) applyFormat(path, committed string) {
	s.mu.Lock()
	current := vfs.Get(s.project, path)
	if current != committed {
		s.mu.Unlock()
		return
	}
	formatted := normalizeCode(committed)
	if formatted == current {
		s.mu.Unlock()
		return
	}
	s.project = vfs.SetContent(s.project, path, formatted)
	s.saveSnapshotLocked()
	s.mu.Unlock()

	if TypeOf(path) == FileWeb {
		s.RefreshPreview()
	}
}

// normalizeCode strips trailing whitespace per line and guarantees a
// final newline.
func normalizeCode(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// RefreshPreview instantiates a new preview generation from the current
// tree/overlay state. Used for manual refresh, debounced edit refresh,
// and stream completion.
func (s *Session) RefreshPreview() {
	gen := s.preview.NextGeneration()

	s.mu.Lock()
	flat := vfs.Flatten(s.project.Files)
	s.mu.Unlock()

	var override *types.StreamingTarget
	if t, ok := s.overlay.Target(); ok {
		override = &t
	}

	url := ""
	if s.signalURL != nil {
		url = s.signalURL(s.ID, gen)
	}
	s.preview.Publish(gen, preview.BuildDocument(flat, override, url))
}

// PreviewDocument returns the current generation's document, building the
// first generation on demand.
func (s *Session) PreviewDocument() (string, int64) {
	if _, gen := s.preview.Document(); gen == 0 {
		s.RefreshPreview()
	}
	return s.preview.Document()
}

// PreviewGeneration returns the live sandbox generation.
func (s *Session) PreviewGeneration() int64 {
	return s.preview.Generation()
}

// HandleSignal applies a rendering-context signal; stale generations and
// malformed payloads are dropped.
func (s *Session) HandleSignal(generation int64, sig types.PreviewSignal) bool {
	return s.preview.HandleSignal(generation, sig)
}

// Console returns the live generation's captured error and log state.
func (s *Session) Console() types.ConsoleState {
	return s.preview.Console()
}

// Run executes the python file at path remotely and returns the rendered
// transcript. Only one run may be active; a second invocation is rejected
// rather than spawning a concurrent poll loop. Abandonment is the
// caller's context.
func (s *Session) Run(ctx context.Context, path string) ([]string, error) {
	if TypeOf(path) != FilePython {
		return nil, ErrNotRunnable
	}
	if s.runner == nil {
		return nil, fmt.Errorf("no execution service configured")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.transcript = []string{fmt.Sprintf("$ python %s", path)}
	s.mu.Unlock()

	source := s.ReadFile(path)
	lines := s.runner.Run(ctx, source)

	s.mu.Lock()
	s.transcript = append(s.transcript, lines...)
	out := append([]string(nil), s.transcript...)
	s.running = false
	s.mu.Unlock()

	return out, nil
}

// Output returns the last run's transcript.
func (s *Session) Output() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.transcript...)
}

func (s *Session) saveSnapshotLocked() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.project); err != nil {
		log.Printf("session: snapshot save failed for %s: %v", s.ID, err)
	}
}
