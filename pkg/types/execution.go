package types

// RunRequest asks the server to execute an interpreted-language file from
// the session's tree.
type RunRequest struct {
	Path string `json:"path"`
}

// RunResult is the rendered transcript of one remote execution run.
type RunResult struct {
	Lines []string `json:"lines"`
}

// SessionInfo describes an editing session.
type SessionInfo struct {
	ID        string `json:"sessionID"`
	ProjectID string `json:"projectID"`
	Name      string `json:"name"`
	Streaming bool   `json:"streaming"`
}

// SessionConfig is the request body for creating a session.
type SessionConfig struct {
	Name      string `json:"name,omitempty"`
	ProjectID string `json:"projectID,omitempty"` // resume from a persisted snapshot
}

// WriteFileRequest is the request body for editing a file.
type WriteFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// StreamBeginRequest starts a generator stream targeting one file.
type StreamBeginRequest struct {
	Path string `json:"path"`
}

// StreamChunkRequest carries the generator's full accumulated text so far.
type StreamChunkRequest struct {
	Code string `json:"code"`
}
