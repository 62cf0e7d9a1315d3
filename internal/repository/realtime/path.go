package realtime

import (
	"fmt"
	"strings"
)

// Join builds a store path from its segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split returns the collection a path belongs to and its name inside it.
func Split(path string) (collection, name string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

func validatePath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

func validateLeaf(path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if collection, _ := Split(path); collection == "" {
		return fmt.Errorf("%w: %q has no collection", ErrInvalidPath, path)
	}
	return nil
}

// affects reports whether a change announced for changed is visible to a
// watcher of collection: either the same collection or one of its ancestors.
func affects(collection, changed string) bool {
	return collection == changed || strings.HasPrefix(collection, changed+"/")
}
