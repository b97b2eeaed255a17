// Package pathname splits and classifies the 8.3-style paths the driver
// accepts: the root, a bare directory, or a directory/file pair. It only
// describes shape; length limits and permission rules are enforced by the
// caller so each request handler can report its own error in the priority
// order the handler protocol requires.
package pathname

import "strings"

// Kind classifies the shape of a parsed path.
type Kind int

const (
	// Root is the path "/".
	Root Kind = iota
	// Directory is a single path component directly under root: "/<dir>".
	Directory
	// File is a two-component path: "/<dir>/<name>.<ext>".
	File
	// Malformed is anything that doesn't fit the two-level namespace: deeper
	// nesting, empty components, or a final component with no extension.
	Malformed
)

// Parsed is the result of splitting a path into its named components. Dir,
// Name, and Ext are populated verbatim from the path text, including any
// that exceed the on-disk field widths — callers are responsible for
// rejecting those with NameTooLong before acting on a Parsed value.
type Parsed struct {
	Kind Kind
	Dir  string
	Name string
	Ext  string
}

// Parse classifies path into one of the four shapes described by Kind.
func Parse(path string) Parsed {
	if len(path) == 0 || path[0] != '/' {
		return Parsed{Kind: Malformed}
	}
	if path == "/" {
		return Parsed{Kind: Root}
	}
	if strings.HasSuffix(path, "/") {
		return Parsed{Kind: Malformed}
	}

	segments := strings.Split(path[1:], "/")
	switch len(segments) {
	case 1:
		dir := segments[0]
		if dir == "" {
			return Parsed{Kind: Malformed}
		}
		return Parsed{Kind: Directory, Dir: dir}
	case 2:
		dir := segments[0]
		leaf := segments[1]
		if dir == "" || leaf == "" {
			return Parsed{Kind: Malformed}
		}

		dot := strings.LastIndexByte(leaf, '.')
		if dot <= 0 || dot == len(leaf)-1 {
			// No extension, a leading dot, or a trailing dot: not a valid
			// "name.ext" leaf.
			return Parsed{Kind: Malformed}
		}

		return Parsed{
			Kind: File,
			Dir:  dir,
			Name: leaf[:dot],
			Ext:  leaf[dot+1:],
		}
	default:
		return Parsed{Kind: Malformed}
	}
}

// MaxNameLength and MaxExtLength are the 8.3 field-width limits a caller
// checks against a Parsed value's Dir/Name/Ext before using them.
const (
	MaxNameLength = 8
	MaxExtLength  = 3
)
