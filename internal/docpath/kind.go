package docpath

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath  = errors.New("invalid path")
	ErrPathConflict = errors.New("path shape conflict")
)

// Kind classifies a document node.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "scalar"
	}
}

// KindOf reports the kind of v. nil is a scalar.
func KindOf(v any) Kind {
	switch v.(type) {
	case []any:
		return KindList
	case map[string]any:
		return KindMap
	default:
		return KindScalar
	}
}

// ConflictError reports a container whose kind disagrees with the path
// addressing into it.
type ConflictError struct {
	Path string // prefix holding the offending value; empty for the root
	Want Kind
	Got  Kind
}

func (e *ConflictError) Error() string {
	at := e.Path
	if at == "" {
		at = "(root)"
	}
	return fmt.Sprintf("%s: %s holds a %s, path needs a %s", ErrPathConflict, at, e.Got, e.Want)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrPathConflict
}

// Clone deep-copies the maps and lists of a document. Scalars are shared.
func Clone(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, val := range c {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, val := range c {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}
