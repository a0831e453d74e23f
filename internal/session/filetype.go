package session

import "strings"

// FileType classifies a path for the editing surface: web assets drive the
// preview sandbox, python files are runnable remotely, everything else is
// edit-only.
type FileType int

const (
	FileUnsupported FileType = iota
	FileWeb
	FilePython
)

var webExtensions = []string{".html", ".tsx", ".jsx", ".css", ".js", ".ts"}

// TypeOf classifies a file path by extension.
func TypeOf(path string) FileType {
	if path == "" {
		return FileUnsupported
	}
	if strings.HasSuffix(path, ".py") {
		return FilePython
	}
	for _, ext := range webExtensions {
		if strings.HasSuffix(path, ext) {
			return FileWeb
		}
	}
	return FileUnsupported
}
