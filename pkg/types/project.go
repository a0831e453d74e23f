package types

// NodeKind discriminates the two FileNode variants.
type NodeKind string

const (
	NodeFile      NodeKind = "file"
	NodeDirectory NodeKind = "dir"
)

// FileNode is one node of a project's virtual file tree. A node is exactly
// one of the two variants: a file carries Content, a directory carries
// Children. Sibling names are unique within a directory's Children map;
// last write wins on collision.
type FileNode struct {
	Kind     NodeKind             `json:"kind"`
	Content  string               `json:"content,omitempty"`
	Children map[string]*FileNode `json:"children,omitempty"`
}

// NewFile creates a file node.
func NewFile(content string) *FileNode {
	return &FileNode{Kind: NodeFile, Content: content}
}

// NewDirectory creates a directory node with the given children.
func NewDirectory(children map[string]*FileNode) *FileNode {
	if children == nil {
		children = map[string]*FileNode{}
	}
	return &FileNode{Kind: NodeDirectory, Children: children}
}

// IsFile reports whether the node is a file.
func (n *FileNode) IsFile() bool { return n != nil && n.Kind == NodeFile }

// IsDir reports whether the node is a directory.
func (n *FileNode) IsDir() bool { return n != nil && n.Kind == NodeDirectory }

// Project is the root aggregate of an editing session's file tree.
// Mutations never patch a held reference: every change deep-copies the
// project, mutates the copy, and publishes the copy wholesale.
type Project struct {
	ID    string               `json:"id"`
	Name  string               `json:"name"`
	Files map[string]*FileNode `json:"files"`
}

// ProjectInfo describes a persisted project snapshot without its tree.
type ProjectInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updatedAt"`
}

// StreamingTarget is the single-slot write-in-progress overlay for one
// file while a generator is producing it. Code always holds the
// generator's full accumulated text, never a delta.
type StreamingTarget struct {
	FilePath string `json:"filePath"`
	Code     string `json:"code"`
}

// ConsoleError is a runtime error captured inside the preview sandbox.
type ConsoleError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}
