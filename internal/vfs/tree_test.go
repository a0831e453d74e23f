package vfs

import (
	"testing"

	"github.com/codecanvas/codecanvas/pkg/types"
)

func testProject() *types.Project {
	return &types.Project{
		ID:   "p1",
		Name: "demo",
		Files: map[string]*types.FileNode{
			"index.html": types.NewFile("<html></html>"),
			"src": types.NewDirectory(map[string]*types.FileNode{
				"app.js": types.NewFile("console.log(1)"),
				"lib": types.NewDirectory(map[string]*types.FileNode{
					"util.js": types.NewFile("export {}"),
				}),
			}),
		},
	}
}

func TestResolve(t *testing.T) {
	p := testProject()

	r, ok := Resolve(p.Files, "src/lib/util.js")
	if !ok {
		t.Fatal("expected src/lib/util.js to resolve")
	}
	if r.Key != "util.js" || r.Node.Content != "export {}" {
		t.Errorf("resolved wrong node: key=%s content=%q", r.Key, r.Node.Content)
	}

	if _, ok := Resolve(p.Files, "src"); !ok {
		t.Error("expected directory path to resolve")
	}
}

func TestResolveNotFound(t *testing.T) {
	p := testProject()

	cases := []string{
		"",                      // empty path, no addressable root
		"missing.js",            // absent at root
		"src/missing.js",        // absent leaf
		"index.html/child",      // cannot descend into a file
		"src/",                  // trailing slash
		"src//lib",              // empty segment
		"src/lib/util.js/extra", // descend past a leaf file
	}
	for _, path := range cases {
		if _, ok := Resolve(p.Files, path); ok {
			t.Errorf("expected %q to not resolve", path)
		}
	}
}

func TestFlatten(t *testing.T) {
	p := testProject()

	flat := Flatten(p.Files)
	want := map[string]string{
		"index.html":      "<html></html>",
		"src/app.js":      "console.log(1)",
		"src/lib/util.js": "export {}",
	}
	if len(flat) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(flat), flat)
	}
	for path, content := range want {
		if flat[path] != content {
			t.Errorf("flat[%q] = %q, want %q", path, flat[path], content)
		}
	}

	// Directories are invisible in the flattened view.
	if _, ok := flat["src"]; ok {
		t.Error("directory leaked into flattened view")
	}
}

func TestFlattenMatchesResolve(t *testing.T) {
	p := testProject()

	for path, content := range Flatten(p.Files) {
		r, ok := Resolve(p.Files, path)
		if !ok {
			t.Fatalf("flattened path %q does not resolve", path)
		}
		if !r.Node.IsFile() || r.Node.Content != content {
			t.Errorf("flat[%q] = %q disagrees with resolved node %q", path, content, r.Node.Content)
		}
	}
}

func TestGetMissingIsEmpty(t *testing.T) {
	p := testProject()

	if got := Get(p, "src/app.js"); got != "console.log(1)" {
		t.Errorf("Get returned %q", got)
	}
	if got := Get(p, "does/not/exist.js"); got != "" {
		t.Errorf("missing path returned %q, want empty string", got)
	}
	if got := Get(nil, "src/app.js"); got != "" {
		t.Errorf("nil project returned %q, want empty string", got)
	}
}

func TestSetContentCopyOnWrite(t *testing.T) {
	p := testProject()

	next := SetContent(p, "src/app.js", "console.log(2)")
	if Get(next, "src/app.js") != "console.log(2)" {
		t.Error("new project missing updated content")
	}
	if Get(p, "src/app.js") != "console.log(1)" {
		t.Error("old reference observed the mutation")
	}
	if next == p {
		t.Error("expected a fresh project reference")
	}
}

func TestSetContentIdempotent(t *testing.T) {
	p := testProject()

	once := SetContent(p, "index.html", "<p>hi</p>")
	twice := SetContent(once, "index.html", "<p>hi</p>")

	a, b := Flatten(once.Files), Flatten(twice.Files)
	if len(a) != len(b) {
		t.Fatalf("flat sizes differ: %d vs %d", len(a), len(b))
	}
	for path, content := range a {
		if b[path] != content {
			t.Errorf("content diverged at %q: %q vs %q", path, content, b[path])
		}
	}
}

func TestSetContentNoImplicitCreate(t *testing.T) {
	p := testProject()

	next := SetContent(p, "brand/new.js", "x")
	if _, ok := Flatten(next.Files)["brand/new.js"]; ok {
		t.Error("SetContent must not create files")
	}

	// Writing to a directory path is also a no-op on content.
	next = SetContent(p, "src", "x")
	if r, _ := Resolve(next.Files, "src"); !r.Node.IsDir() {
		t.Error("directory node was replaced")
	}
}

func TestSiblingOverwritePolicy(t *testing.T) {
	// Children is a plain map, so two siblings named "a" cannot coexist;
	// the last write wins.
	dir := types.NewDirectory(nil)
	dir.Children["a"] = types.NewFile("first")
	dir.Children["a"] = types.NewFile("second")

	if len(dir.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(dir.Children))
	}
	if dir.Children["a"].Content != "second" {
		t.Errorf("expected last write to win, got %q", dir.Children["a"].Content)
	}
}
