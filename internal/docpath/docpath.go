// Package docpath reads and writes values inside nested documents addressed by
// dotted paths such as "occurrence.infoReceivedAtPS.date" or "accused.0.name".
//
// A document is any JSON-shaped value: scalars, []any lists and map[string]any
// maps. A path segment made only of ASCII digits addresses a list index; every
// other segment (including the empty string) addresses a map key.
//
// Writes keep containers coherent with the path that reaches them: a map found
// where the next segment is an index is replaced by a fresh list, and the other
// way round. The replaced container's contents are discarded. SetStrict reports
// these conflicts instead of resolving them.
//
// List indexes are capped at MaxIndex (1024). Parse rejects larger indexes
// with ErrInvalidPath, so a catalog key or API path such as "accused.5000.name"
// is refused rather than padding the list with thousands of nil entries.
package docpath

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxIndex is the largest list index a path may address. Writing index n pads
// the list to n+1 entries.
const MaxIndex = 1024

// Segment is one element of a Path.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Path is a parsed dotted path.
type Path []Segment

// Parse splits a dotted path into segments.
func Parse(dotted string) (Path, error) {
	if dotted == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(dotted, ".")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if !isDigits(part) {
			p = append(p, Segment{Name: part})
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > MaxIndex {
			return nil, fmt.Errorf("%w: index %s exceeds %d", ErrInvalidPath, part, MaxIndex)
		}
		p = append(p, Segment{Name: part, Index: n, IsIndex: true})
	}
	return p, nil
}

// MustParse is Parse for paths known at compile time.
func MustParse(dotted string) Path {
	p, err := Parse(dotted)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return strings.Join(names, ".")
}

// Set writes value at p and returns the root, which is replaced when its own
// kind disagrees with the first segment. Intermediate containers are created
// or coerced as needed.
func (p Path) Set(root, value any) any {
	if len(p) == 0 {
		return root
	}
	return setIn(root, p, value)
}

// SetStrict is Set without coercion: if an existing value on the way to the
// leaf has the wrong kind it returns a *ConflictError and leaves root untouched.
func (p Path) SetStrict(root, value any) (any, error) {
	if err := p.conflict(root); err != nil {
		return root, err
	}
	return p.Set(root, value), nil
}

// Get returns the value at p. The boolean is false when any step of the path
// is missing or runs into a container of the wrong kind.
func (p Path) Get(root any) (any, bool) {
	cur := root
	for _, seg := range p {
		switch c := cur.(type) {
		case map[string]any:
			if seg.IsIndex {
				return nil, false
			}
			v, ok := c[seg.Name]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if !seg.IsIndex || seg.Index >= len(c) {
				return nil, false
			}
			cur = c[seg.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}

func setIn(node any, segs Path, value any) any {
	seg := segs[0]
	last := len(segs) == 1

	if seg.IsIndex {
		list, ok := node.([]any)
		if !ok || list == nil {
			list = []any{}
		}
		for len(list) <= seg.Index {
			list = append(list, emptyFor(segs[1:]))
		}
		if last {
			list[seg.Index] = value
			return list
		}
		list[seg.Index] = setIn(list[seg.Index], segs[1:], value)
		return list
	}

	m, ok := node.(map[string]any)
	if !ok || m == nil {
		m = map[string]any{}
	}
	if last {
		m[seg.Name] = value
		return m
	}
	m[seg.Name] = setIn(m[seg.Name], segs[1:], value)
	return m
}

// emptyFor returns the padding container for a list slot followed by rest.
func emptyFor(rest Path) any {
	if len(rest) > 0 && rest[0].IsIndex {
		return []any{}
	}
	return map[string]any{}
}

// conflict walks the existing part of the tree and reports the first
// container whose kind disagrees with the segment that addresses into it.
func (p Path) conflict(root any) error {
	cur := root
	for i, seg := range p {
		if cur == nil {
			return nil
		}
		switch c := cur.(type) {
		case []any:
			if !seg.IsIndex {
				return &ConflictError{Path: p[:i].String(), Want: KindMap, Got: KindList}
			}
			if seg.Index >= len(c) {
				return nil
			}
			cur = c[seg.Index]
		case map[string]any:
			if seg.IsIndex {
				return &ConflictError{Path: p[:i].String(), Want: KindList, Got: KindMap}
			}
			v, ok := c[seg.Name]
			if !ok {
				return nil
			}
			cur = v
		default:
			return &ConflictError{Path: p[:i].String(), Want: wantKind(seg), Got: KindScalar}
		}
	}
	return nil
}

func wantKind(seg Segment) Kind {
	if seg.IsIndex {
		return KindList
	}
	return KindMap
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Set parses dotted and writes value into root.
func Set(root any, dotted string, value any) (any, error) {
	p, err := Parse(dotted)
	if err != nil {
		return root, err
	}
	return p.Set(root, value), nil
}

// SetStrict parses dotted and writes value into root without coercion.
func SetStrict(root any, dotted string, value any) (any, error) {
	p, err := Parse(dotted)
	if err != nil {
		return root, err
	}
	return p.SetStrict(root, value)
}

// Get parses dotted and reads from root. Unparseable paths read as absent.
func Get(root any, dotted string) (any, bool) {
	p, err := Parse(dotted)
	if err != nil {
		return nil, false
	}
	return p.Get(root)
}
