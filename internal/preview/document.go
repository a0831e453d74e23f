// Package preview materializes a flattened web project into a
// self-contained document for an isolated rendering context and manages
// the generation-scoped signal channel coming back from it.
package preview

import (
	"regexp"
	"sort"
	"strings"

	"github.com/codecanvas/codecanvas/pkg/types"
)

// placeholderDocument is returned when a project has no entry HTML file.
// It is intentionally uninstrumented: there is nothing to signal about.
const placeholderDocument = `<html><body><div style="padding: 1rem; font-family: sans-serif; color: #6b7280;">No HTML file found in project.</div></body></html>`

var (
	baseTagRe   = regexp.MustCompile(`(?i)<base[^>]*>`)
	headCloseRe = regexp.MustCompile(`(?i)</head>`)
)

// instrumentation is injected into every preview document. It captures
// uncaught errors (suppressing default handling), forwards console.log
// with pre-serialized space-joined arguments, and reports load completion.
// Signals are sent over a WebSocket back to the host, buffered until the
// socket opens; the host decides whether they belong to a live generation.
const instrumentation = `
<script>
(function () {
  var queued = [];
  var sock = null;
  try {
    sock = new WebSocket("__SIGNAL_URL__");
    sock.onopen = function () {
      for (var i = 0; i < queued.length; i++) sock.send(queued[i]);
      queued = [];
    };
  } catch (e) { sock = null; }
  function post(payload) {
    var msg = JSON.stringify(payload);
    if (sock && sock.readyState === 1) sock.send(msg);
    else if (sock) queued.push(msg);
    if (window.parent !== window) window.parent.postMessage(payload, "*");
  }
  window.onerror = function (message, source, lineno, colno, error) {
    post({ type: "preview_error", error: { message: String(message), stack: error && error.stack ? error.stack : "" } });
    return true;
  };
  console.log = function () {
    var args = Array.prototype.slice.call(arguments);
    post({ type: "preview_log", message: args.map(function (a) { return JSON.stringify(a); }).join(" ") });
  };
  window.addEventListener("load", function () {
    post({ type: "preview_success" });
  });
})();
</script>
`

// SelectEntry picks the entry HTML document from a flattened project:
// a literal index.html wins, otherwise the lexicographically first path
// ending in .html. Returns "" when the project has no HTML file.
func SelectEntry(flat map[string]string) string {
	if _, ok := flat["index.html"]; ok {
		return "index.html"
	}
	var candidates []string
	for path := range flat {
		if strings.HasSuffix(path, ".html") {
			candidates = append(candidates, path)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[0]
}

// BuildDocument assembles the preview document for one generation.
// The overlay override supersedes the persisted tree when it targets the
// entry document; an .html override with no persisted entry becomes the
// entry itself, since the generator may be producing a file the tree does
// not hold yet. The <base> tag is stripped so relative-resource resolution
// cannot escape the sandbox root, and the instrumentation block lands
// immediately before </head>, or at the end when no </head> exists.
func BuildDocument(flat map[string]string, override *types.StreamingTarget, signalURL string) string {
	entryPath := SelectEntry(flat)
	html := flat[entryPath]

	if override != nil && strings.HasSuffix(override.FilePath, ".html") {
		if override.FilePath == entryPath || entryPath == "" {
			html = override.Code
		}
	}
	if html == "" {
		return placeholderDocument
	}

	html = baseTagRe.ReplaceAllString(html, "")

	block := strings.ReplaceAll(instrumentation, "__SIGNAL_URL__", signalURL)
	if loc := headCloseRe.FindStringIndex(html); loc != nil {
		return html[:loc[0]] + block + html[loc[0]:]
	}
	return html + block
}
