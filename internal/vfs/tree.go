// Package vfs implements the in-memory virtual file tree backing an
// editing session: path resolution, depth-first flattening, and
// copy-on-write content updates at project granularity.
package vfs

import (
	"strings"

	"github.com/codecanvas/codecanvas/pkg/types"
)

// Resolved points at a node inside a file tree together with the mapping
// that owns it, so a caller holding a mutable tree can overwrite in place.
type Resolved struct {
	Parent map[string]*types.FileNode
	Key    string
	Node   *types.FileNode
}

// Resolve walks a slash-delimited path through the tree one segment at a
// time. It fails if any intermediate segment is missing or is a file, or
// if the final segment is absent. The empty path never resolves: there is
// no addressable root node, only the implicit root mapping.
func Resolve(files map[string]*types.FileNode, path string) (Resolved, bool) {
	if path == "" || files == nil {
		return Resolved{}, false
	}
	parts := strings.Split(path, "/")
	current := files
	for i, part := range parts {
		node, ok := current[part]
		if !ok {
			return Resolved{}, false
		}
		if i == len(parts)-1 {
			return Resolved{Parent: current, Key: part, Node: node}, true
		}
		if !node.IsDir() {
			return Resolved{}, false
		}
		current = node.Children
	}
	return Resolved{}, false
}

// Flatten produces a full-path-to-content mapping by a pre-order
// depth-first walk. Directories are invisible in the flattened view; only
// file nodes contribute entries. A fresh map is returned on every call.
func Flatten(files map[string]*types.FileNode) map[string]string {
	flat := map[string]string{}
	flattenInto(flat, files, "")
	return flat
}

func flattenInto(flat map[string]string, nodes map[string]*types.FileNode, prefix string) {
	for name, node := range nodes {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		switch {
		case node.IsFile():
			flat[path] = node.Content
		case node.IsDir():
			flattenInto(flat, node.Children, path)
		}
	}
}

// Get returns the content of the file at path, or "" when the path does
// not resolve to a file. Lookup failure is not an error for content reads:
// a path may reference a file a concurrent overlay has not created yet.
func Get(project *types.Project, path string) string {
	if project == nil {
		return ""
	}
	return Flatten(project.Files)[path]
}

// SetContent deep-clones the project, resolves path against the clone,
// and overwrites the content if the resolved node is a file. A path that
// does not resolve to an existing file leaves the content untouched; the
// clone is returned either way and callers must replace their held
// reference wholesale. Implicit file creation is a scaffolding concern,
// not an edit concern.
func SetContent(project *types.Project, path, content string) *types.Project {
	clone := Clone(project)
	if clone == nil {
		return nil
	}
	if r, ok := Resolve(clone.Files, path); ok && r.Node.IsFile() {
		r.Node.Content = content
	}
	return clone
}

// Clone deep-copies a project. Holders of the original reference observe
// no mutation through the clone boundary.
func Clone(project *types.Project) *types.Project {
	if project == nil {
		return nil
	}
	return &types.Project{
		ID:    project.ID,
		Name:  project.Name,
		Files: cloneNodes(project.Files),
	}
}

func cloneNodes(nodes map[string]*types.FileNode) map[string]*types.FileNode {
	out := make(map[string]*types.FileNode, len(nodes))
	for name, node := range nodes {
		out[name] = cloneNode(node)
	}
	return out
}

func cloneNode(node *types.FileNode) *types.FileNode {
	if node == nil {
		return nil
	}
	c := &types.FileNode{Kind: node.Kind, Content: node.Content}
	if node.Children != nil {
		c.Children = cloneNodes(node.Children)
	}
	return c
}
