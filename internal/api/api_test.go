package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codecanvas/codecanvas/internal/runner"
	"github.com/codecanvas/codecanvas/internal/session"
	"github.com/codecanvas/codecanvas/pkg/types"
)

func newTestServer(t *testing.T, opts session.Options, serverOpts ServerOpts) *Server {
	t.Helper()
	reg := session.NewRegistry(opts)
	t.Cleanup(reg.Close)
	return NewServer(reg, serverOpts)
}

func doRequest(t *testing.T, h http.Handler, method, target, apiKey string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, srv *Server) types.SessionInfo {
	t.Helper()
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/sessions", "", types.SessionConfig{Name: "test"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var info types.SessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode session info: %v", err)
	}
	return info
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{})
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAPIKeyEnforced(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{APIKey: "secret"})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/sessions", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions", "wrong", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions", "secret", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", rec.Code)
	}
}

func TestPreviewRouteSkipsAPIKey(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{APIKey: "secret"})
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/sessions", "secret", types.SessionConfig{})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d", rec.Code)
	}
	var info types.SessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode session info: %v", err)
	}

	// The iframe cannot set headers, so the document route must not
	// require the key.
	rec = doRequest(t, srv.Handler(), http.MethodGet, "/preview/"+info.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("preview document: status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<html") && !strings.Contains(rec.Body.String(), "<!DOCTYPE") {
		t.Errorf("preview document does not look like HTML: %q", rec.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{})

	info := createSession(t, srv)
	if info.ID == "" {
		t.Fatal("session id is empty")
	}
	if info.Name != "test" {
		t.Errorf("name = %q, want %q", info.Name, "test")
	}

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get session: status = %d", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list sessions: status = %d", rec.Code)
	}
	var list []types.SessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != info.ID {
		t.Errorf("list = %+v, want one session %s", list, info.ID)
	}

	rec = doRequest(t, srv.Handler(), http.MethodDelete, "/sessions/"+info.ID, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete session: status = %d", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted session: status = %d, want 404", rec.Code)
	}
}

func TestFileEndpoints(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{})
	info := createSession(t, srv)

	// The scaffolded starter project has an index.html.
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/files?path=index.html", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read file: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<html") {
		t.Errorf("index.html = %q, expected markup", rec.Body.String())
	}

	rec = doRequest(t, srv.Handler(), http.MethodPut, "/sessions/"+info.ID+"/files", "",
		types.WriteFileRequest{Path: "style.css", Content: "body { margin: 0 }"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("write file: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/files?path=style.css", "", nil)
	if got := rec.Body.String(); got != "body { margin: 0 }" {
		t.Errorf("read after write = %q", got)
	}

	// Missing paths read as empty, not as errors.
	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/files?path=nope.txt", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "" {
		t.Errorf("missing path: status = %d, body = %q", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/files?path=", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty path: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/files/list", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list files: status = %d", rec.Code)
	}
	var flat map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &flat); err != nil {
		t.Fatalf("decode flat listing: %v", err)
	}
	if flat["style.css"] != "body { margin: 0 }" {
		t.Errorf("flat listing missing updated style.css: %+v", flat)
	}
}

func TestStreamEndpoints(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{})
	info := createSession(t, srv)
	base := "/sessions/" + info.ID + "/stream"

	// Chunks before a Begin are conflicts.
	rec := doRequest(t, srv.Handler(), http.MethodPut, base, "", types.StreamChunkRequest{Code: "x"})
	if rec.Code != http.StatusConflict {
		t.Errorf("chunk without stream: status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodPost, base, "", types.StreamBeginRequest{Path: "script.js"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("begin stream: status = %d", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodPut, base, "", types.StreamChunkRequest{Code: "const a = 1;"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("stream chunk: status = %d", rec.Code)
	}

	// Reads during the stream see the overlay, not the tree.
	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/files?path=script.js", "", nil)
	if rec.Body.String() != "const a = 1;" {
		t.Errorf("read during stream = %q", rec.Body.String())
	}

	// Edits are rejected while the stream owns the file surface.
	rec = doRequest(t, srv.Handler(), http.MethodPut, "/sessions/"+info.ID+"/files", "",
		types.WriteFileRequest{Path: "script.js", Content: "const b = 2;"})
	if rec.Code != http.StatusConflict {
		t.Errorf("edit during stream: status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodDelete, base+"?commit=true", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("end stream: status = %d", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/files?path=script.js", "", nil)
	if rec.Body.String() != "const a = 1;" {
		t.Errorf("read after commit = %q", rec.Body.String())
	}

	// A second End has nothing to close.
	rec = doRequest(t, srv.Handler(), http.MethodDelete, base, "", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("end without stream: status = %d, want 409", rec.Code)
	}
}

func runTestProject() *types.Project {
	return &types.Project{
		ID:   "proj-run",
		Name: "run",
		Files: map[string]*types.FileNode{
			"main.py": types.NewFile("print('hi')"),
		},
	}
}

func TestRunEndpoints(t *testing.T) {
	judge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"token":"tok-1"}`)
			return
		}
		fmt.Fprint(w, `{"status":{"id":3},"stdout":"hi\n","time":"0.01","memory":3040}`)
	}))
	defer judge.Close()

	rc := runner.NewClient(runner.Config{
		BaseURL:      judge.URL,
		PollInterval: time.Millisecond,
	})
	srv := newTestServer(t, session.Options{Project: runTestProject(), Runner: rc}, ServerOpts{})
	info := createSession(t, srv)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/sessions/"+info.ID+"/run", "",
		types.RunRequest{Path: "index.html"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("run non-python: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodPost, "/sessions/"+info.ID+"/run", "",
		types.RunRequest{Path: "main.py"})
	if rec.Code != http.StatusOK {
		t.Fatalf("run: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result types.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Lines) == 0 || result.Lines[0] != "$ python main.py" {
		t.Fatalf("transcript = %v, want command line first", result.Lines)
	}
	joined := strings.Join(result.Lines, "\n")
	if !strings.Contains(joined, "hi") {
		t.Errorf("transcript missing stdout: %v", result.Lines)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/output", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("output: status = %d", rec.Code)
	}
	var replay types.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &replay); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if strings.Join(replay.Lines, "\n") != joined {
		t.Errorf("output = %v, want the run transcript", replay.Lines)
	}
}

func TestPreviewRefreshAndConsole(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{})
	info := createSession(t, srv)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/sessions/"+info.ID+"/preview/refresh", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d", rec.Code)
	}

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/console", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("console: status = %d", rec.Code)
	}
	var state types.ConsoleState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode console: %v", err)
	}
	if state.Error != nil || len(state.Logs) != 0 {
		t.Errorf("fresh console state = %+v, want empty", state)
	}
}

func TestPreviewSignalChannel(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{})
	info := createSession(t, srv)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Materialize generation 1.
	resp, err := http.Get(ts.URL + "/preview/" + info.ID)
	if err != nil {
		t.Fatalf("fetch preview: %v", err)
	}
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/preview/" + info.ID + "/signals?gen=1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial signal channel: %v", err)
	}
	defer conn.Close()

	sig := types.PreviewSignal{
		Type:  types.SignalError,
		Error: &types.ConsoleError{Message: "boom", Stack: "at <anonymous>"},
	}
	if err := conn.WriteJSON(sig); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		rec := doRequest(t, srv.Handler(), http.MethodGet, "/sessions/"+info.ID+"/console", "", nil)
		var state types.ConsoleState
		if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
			t.Fatalf("decode console: %v", err)
		}
		if state.Error != nil {
			if state.Error.Message != "boom" {
				t.Errorf("error message = %q, want %q", state.Error.Message, "boom")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("signal never reached the console state")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPreviewSignalBadGeneration(t *testing.T) {
	srv := newTestServer(t, session.Options{}, ServerOpts{})
	info := createSession(t, srv)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/preview/"+info.ID+"/signals?gen=abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad generation: status = %d, want 400", rec.Code)
	}
}
