package normalize

import (
	"path/filepath"
	"strings"
)

// RelativeToRoot resolves path against the project root. Relative paths
// are cleaned as-is; absolute paths are made relative when they sit under
// root. ok is false for absolute paths outside root and for paths that
// climb above it.
func RelativeToRoot(path, root string) (rel string, ok bool) {
	if path == "" {
		return "", false
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		rel = filepath.ToSlash(filepath.Clean(path))
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return "", false
		}
		return rel, true
	}
	if root == "" {
		return "", false
	}
	root = filepath.ToSlash(filepath.Clean(root))
	cleaned := filepath.ToSlash(filepath.Clean(path))
	if cleaned == root {
		return ".", true
	}
	prefix := strings.TrimSuffix(root, "/") + "/"
	if !strings.HasPrefix(cleaned, prefix) {
		return "", false
	}
	return strings.TrimPrefix(cleaned, prefix), true
}

// AtRoot reports whether a root-relative path names an entry directly in
// the root, i.e. has no directory component once cleaned.
func AtRoot(rel string) bool {
	return rel != "" && rel != "." && !strings.Contains(rel, "/")
}
