package types

// Preview signal tags sent from the sandboxed rendering context to the host.
const (
	SignalError   = "preview_error"
	SignalLog     = "preview_log"
	SignalSuccess = "preview_success"
)

// PreviewSignal is one message from the rendering context. The channel is
// unauthenticated beyond the generation/token check, so receivers validate
// the tag and shape before acting on it.
type PreviewSignal struct {
	Type    string        `json:"type"`
	Error   *ConsoleError `json:"error,omitempty"`
	Message string        `json:"message,omitempty"` // preview_log: args pre-serialized, space-joined
}

// Valid reports whether the signal carries a known tag with the payload
// that tag requires.
func (s PreviewSignal) Valid() bool {
	switch s.Type {
	case SignalError:
		return s.Error != nil
	case SignalLog, SignalSuccess:
		return true
	}
	return false
}

// ConsoleState is the host-side view of the current preview generation's
// captured signals.
type ConsoleState struct {
	Generation int64         `json:"generation"`
	Error      *ConsoleError `json:"error,omitempty"`
	Logs       []string      `json:"logs,omitempty"`
}
