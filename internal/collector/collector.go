// Package collector walks an ordered list of fields one answer at a time,
// recording each accepted answer into a document through docpath.
package collector

import (
	"fmt"
	"strings"

	"github.com/dgallion1/firdesk/internal/docpath"
)

// Field is one question in a collection session.
type Field struct {
	Key     string    `yaml:"key" json:"key"`
	Label   string    `yaml:"label" json:"label"`
	Default any       `yaml:"default,omitempty" json:"default,omitempty"`
	Kind    FieldKind `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// State is the collector's position: Collecting(Index) or Complete.
type State struct {
	Index    int  `json:"index"`
	Complete bool `json:"complete"`
}

// Collector is the slot-filling state machine. It is not safe for concurrent
// use; callers serialise access per session.
type Collector struct {
	fields []Field
	paths  []docpath.Path
	index  int
	tree   any
	strict bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithStrictPaths makes answers that would coerce an existing container fail
// with docpath.ErrPathConflict instead.
func WithStrictPaths() Option {
	return func(c *Collector) { c.strict = true }
}

// New builds a collector over fields, writing into tree. A nil tree starts as
// an empty map. Field order is fixed for the collector's lifetime.
func New(fields []Field, tree any, opts ...Option) (*Collector, error) {
	if tree == nil {
		tree = map[string]any{}
	}
	c := &Collector{
		fields: append([]Field(nil), fields...),
		paths:  make([]docpath.Path, len(fields)),
		tree:   tree,
	}
	for i, f := range fields {
		p, err := docpath.Parse(f.Key)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("field %s: unknown kind %q", f.Key, f.Kind)
		}
		c.paths[i] = p
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State reports the current position.
func (c *Collector) State() State {
	return State{Index: c.index, Complete: c.Done()}
}

// Done reports whether every field has been answered or skipped.
func (c *Collector) Done() bool {
	return c.index >= len(c.fields)
}

// Current returns the field awaiting an answer.
func (c *Collector) Current() (Field, bool) {
	if c.Done() {
		return Field{}, false
	}
	return c.fields[c.index], true
}

// Value returns what the document currently holds for the current field.
func (c *Collector) Value() (any, bool) {
	if c.Done() {
		return nil, false
	}
	return c.paths[c.index].Get(c.tree)
}

// Fields returns a copy of the ordered field list.
func (c *Collector) Fields() []Field {
	return append([]Field(nil), c.fields...)
}

// Progress returns how many fields have been passed and the total.
func (c *Collector) Progress() (done, total int) {
	return c.index, len(c.fields)
}

// Tree returns the document being filled. The collector keeps writing into it.
func (c *Collector) Tree() any {
	return c.tree
}

// Submit records raw as the answer to the current field and advances.
// Empty or rejected answers leave both position and document unchanged.
func (c *Collector) Submit(raw string) error {
	f, ok := c.Current()
	if !ok {
		return ErrComplete
	}
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return &InputError{Key: f.Key, Err: ErrEmptyAnswer}
	}
	value, err := f.Kind.Extract(answer)
	if err != nil {
		return &InputError{Key: f.Key, Err: err}
	}

	p := c.paths[c.index]
	if c.strict {
		tree, err := p.SetStrict(c.tree, value)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Key, err)
		}
		c.tree = tree
	} else {
		c.tree = p.Set(c.tree, value)
	}
	c.index++
	return nil
}

// Skip advances without writing; the field keeps its default or prior value.
func (c *Collector) Skip() error {
	if c.Done() {
		return ErrComplete
	}
	c.index++
	return nil
}

// Back moves to the previous field without clearing anything. At the first
// field it does nothing; from Complete it reopens the last field.
func (c *Collector) Back() {
	if c.index > 0 {
		c.index--
	}
}

// Edit writes value at dotted without moving, honouring strict paths.
func (c *Collector) Edit(dotted string, value any) error {
	p, err := docpath.Parse(dotted)
	if err != nil {
		return err
	}
	if c.strict {
		tree, err := p.SetStrict(c.tree, value)
		if err != nil {
			return err
		}
		c.tree = tree
		return nil
	}
	c.tree = p.Set(c.tree, value)
	return nil
}
