package zest

import (
	"fmt"
	"path"
	"strings"
)

// ValidateName checks that a component name is safe to use as a path
// fragment under a components root. Names are made of one or more
// `/`-separated segments; no segment may be empty, `.` or `..`, and the name
// may not contain backslashes or NUL bytes.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty component name: %w", ErrInvalidName)
	}
	if strings.ContainsAny(name, "\\\x00") {
		return fmt.Errorf("component name %q contains a forbidden character: %w", name, ErrInvalidName)
	}
	for _, segment := range strings.Split(name, "/") {
		switch segment {
		case "", ".", "..":
			return fmt.Errorf("component name %q contains segment %q: %w", name, segment, ErrInvalidName)
		}
	}
	return nil
}

// baseName returns the last segment of a component name, which is the stem
// every file belonging to the component is named after.
func baseName(name string) string {
	return path.Base(name)
}

// splitNamespace splits "ns/rest" into its first segment and the remainder.
// ok is false when the name has a single segment.
func splitNamespace(name string) (namespace, rest string, ok bool) {
	namespace, rest, ok = strings.Cut(name, "/")
	if !ok || rest == "" {
		return "", name, false
	}
	return namespace, rest, true
}
