// Package corpus loads the per-dialect catalog: statement terminator, fence
// tag, generation instructions and the static few-shot examples used when
// vector search is unavailable.
package corpus

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/forge/internal/domain"
)

//go:embed dialects/*.yaml
var builtin embed.FS

// ErrNoInstructions is returned for dialects without instructions.
var ErrNoInstructions = errors.New("no dialect instructions")

// Dialect is one catalog entry as stored on disk.
type Dialect struct {
	Name         string                 `yaml:"name"`
	Terminator   string                 `yaml:"terminator"`
	FenceTag     string                 `yaml:"fence_tag"`
	Instructions string                 `yaml:"instructions"`
	Examples     []domain.CorpusExample `yaml:"examples"`
}

// Catalog is an immutable, in-memory dialect catalog.
type Catalog struct {
	dialects map[string]Dialect
}

// Load reads the built-in catalog. Dialects found in the optional overlay
// directories replace built-in entries of the same name.
func Load(overlays ...fs.FS) (*Catalog, error) {
	c := &Catalog{dialects: make(map[string]Dialect)}

	sub, err := fs.Sub(builtin, "dialects")
	if err != nil {
		return nil, fmt.Errorf("failed to open built-in dialects: %w", err)
	}
	if err := c.loadFS(sub); err != nil {
		return nil, err
	}

	for _, overlay := range overlays {
		if err := c.loadFS(overlay); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Catalog) loadFS(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return fmt.Errorf("failed to list dialect files: %w", err)
	}

	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}

		var d Dialect
		if err := yaml.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if d.Name == "" {
			d.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
		}
		if d.FenceTag == "" {
			d.FenceTag = d.Name
		}
		d.Instructions = strings.TrimSpace(d.Instructions)
		for i := range d.Examples {
			d.Examples[i].Code = strings.TrimSpace(d.Examples[i].Code)
		}

		c.dialects[strings.ToLower(d.Name)] = d
	}
	return nil
}

// Lookup returns the constraints of dialect.
func (c *Catalog) Lookup(dialect string) (domain.DialectConstraints, bool) {
	d, ok := c.dialects[strings.ToLower(dialect)]
	if !ok {
		return domain.DialectConstraints{}, false
	}
	return domain.DialectConstraints{
		Name:         d.Name,
		Instructions: d.Instructions,
		Terminator:   d.Terminator,
		FenceTag:     d.FenceTag,
	}, true
}

// Examples returns the static examples of dialect.
func (c *Catalog) Examples(dialect string) []domain.CorpusExample {
	return c.dialects[strings.ToLower(dialect)].Examples
}

// Instructions returns the catalog instructions of dialect.
func (c *Catalog) Instructions(_ context.Context, dialect string) (string, error) {
	d, ok := c.dialects[strings.ToLower(dialect)]
	if !ok || d.Instructions == "" {
		return "", fmt.Errorf("%w for %q", ErrNoInstructions, dialect)
	}
	return d.Instructions, nil
}

// Names lists the catalog's dialects in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.dialects))
	for _, d := range c.dialects {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}
