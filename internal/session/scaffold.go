package session

import (
	"github.com/google/uuid"

	"github.com/codecanvas/codecanvas/pkg/types"
)

const (
	starterHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>New Project</title>
  <link rel="stylesheet" href="style.css">
</head>
<body>
  <h1>Hello, Canvas</h1>
  <p>Edit index.html to get started.</p>
  <script src="script.js"></script>
</body>
</html>
`

	starterCSS = `body {
  font-family: sans-serif;
  margin: 2rem;
  color: #111827;
}
`

	starterJS = `console.log('project ready');
`
)

// scaffoldProject builds the default starter tree for a fresh session.
func scaffoldProject(name string) *types.Project {
	if name == "" {
		name = "Untitled Project"
	}
	return &types.Project{
		ID:   uuid.New().String()[:8],
		Name: name,
		Files: map[string]*types.FileNode{
			"index.html": types.NewFile(starterHTML),
			"style.css":  types.NewFile(starterCSS),
			"script.js":  types.NewFile(starterJS),
		},
	}
}
