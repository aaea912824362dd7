// Package catalog holds the ordered question lists a collection session walks
// through. The built-in catalogs are YAML files compiled into the binary.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/dgallion1/firdesk/internal/collector"
	"github.com/dgallion1/firdesk/internal/docpath"
	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var builtin embed.FS

// Catalog is a named, ordered list of fields.
type Catalog struct {
	Name   string            `yaml:"name" json:"name"`
	Title  string            `yaml:"title" json:"title"`
	Fields []collector.Field `yaml:"fields" json:"fields"`
}

// Names lists the built-in catalogs.
func Names() []string {
	entries, err := fs.ReadDir(builtin, "catalogs")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Load returns the built-in catalog called name.
func Load(name string) (*Catalog, error) {
	data, err := builtin.ReadFile("catalogs/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown catalog %q", name)
	}
	return parse(data, name)
}

// LoadFile reads a catalog from disk.
func LoadFile(p string) (*Catalog, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(data, p)
}

func parse(data []byte, source string) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", source, err)
	}
	if len(c.Fields) == 0 {
		return nil, fmt.Errorf("catalog %s has no fields", source)
	}
	seen := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		if _, err := docpath.Parse(f.Key); err != nil {
			return nil, fmt.Errorf("catalog %s field %d: %w", source, i, err)
		}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("catalog %s field %s: unknown kind %q", source, f.Key, f.Kind)
		}
		if seen[f.Key] {
			return nil, fmt.Errorf("catalog %s: duplicate field %s", source, f.Key)
		}
		seen[f.Key] = true
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(path.Base(source), path.Ext(source))
	}
	return &c, nil
}

// Seed builds a fresh document holding every non-empty default.
func (c *Catalog) Seed() map[string]any {
	var doc any = map[string]any{}
	for _, f := range c.Fields {
		if f.Default == nil || f.Default == "" {
			continue
		}
		doc = docpath.MustParse(f.Key).Set(doc, docpath.Clone(f.Default))
	}
	return doc.(map[string]any)
}

// Collector starts a collection session over a seeded document.
func (c *Catalog) Collector(opts ...collector.Option) (*collector.Collector, error) {
	return collector.New(c.Fields, c.Seed(), opts...)
}

// Resolve loads the catalog at path when one is given, else the built-in
// catalog called name.
func Resolve(name, path string) (*Catalog, error) {
	if path != "" {
		return LoadFile(path)
	}
	return Load(name)
}
