package semantic

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed references/*.yaml
var referenceFS embed.FS

// TypeSpec describes one external type.
type TypeSpec struct {
	Name    string       `yaml:"name"`
	Alias   string       `yaml:"alias,omitempty"`
	Base    string       `yaml:"base,omitempty"`
	Static  bool         `yaml:"static,omitempty"`
	Members []MemberSpec `yaml:"members,omitempty"`
}

// MemberSpec describes one member of an external type. Type is the field
// or property type, or the method return type.
type MemberSpec struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Type   string `yaml:"type,omitempty"`
	Params *int   `yaml:"params,omitempty"`
	Static bool   `yaml:"static,omitempty"`
}

type referenceFile struct {
	Assembly string     `yaml:"assembly"`
	Types    []TypeSpec `yaml:"types"`
}

// Catalog is the set of external types visible to every file, the
// stand-in for metadata references. It is read-only after loading.
type Catalog struct {
	types      map[string]*TypeSpec
	aliases    map[string]string
	namespaces map[string]bool
	assemblies []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		types:      make(map[string]*TypeSpec),
		aliases:    make(map[string]string),
		namespaces: make(map[string]bool),
	}
}

// DefaultCatalog returns the embedded reference set.
func DefaultCatalog() (*Catalog, error) {
	c := NewCatalog()
	entries, err := fs.Glob(referenceFS, "references/*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	for _, name := range entries {
		data, err := referenceFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := c.Add(data); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return c, nil
}

// LoadCatalog returns the embedded references plus every YAML file named by
// paths. A directory contributes all of its *.yaml and *.yml files.
func LoadCatalog(paths ...string) (*Catalog, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		files, err := referenceFiles(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading references: %w", err)
			}
			if err := c.Add(data); err != nil {
				return nil, fmt.Errorf("%s: %w", f, err)
			}
		}
	}
	return c, nil
}

func referenceFiles(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(p, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)
	return files, nil
}

// Add merges one reference document. Later definitions of a type replace
// earlier ones.
func (c *Catalog) Add(data []byte) error {
	var doc referenceFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding references: %w", err)
	}
	for i := range doc.Types {
		spec := doc.Types[i]
		if spec.Name == "" {
			return fmt.Errorf("type %d: missing name", i)
		}
		c.types[spec.Name] = &spec
		if spec.Alias != "" {
			c.aliases[spec.Alias] = spec.Name
		}
		for ns := namespaceOf(spec.Name); ns != ""; ns = namespaceOf(ns) {
			if _, isType := c.types[ns]; !isType {
				c.namespaces[ns] = true
			}
		}
	}
	if doc.Assembly != "" {
		c.assemblies = append(c.assemblies, doc.Assembly)
	}
	return nil
}

// Type returns the spec for a full type name.
func (c *Catalog) Type(full string) (*TypeSpec, bool) {
	t, ok := c.types[full]
	return t, ok
}

// HasNamespace reports whether any external type lives in ns or below it.
func (c *Catalog) HasNamespace(ns string) bool {
	if c.namespaces[ns] {
		_, isType := c.types[ns]
		return !isType
	}
	return false
}

// Keyword returns the full type name a keyword alias stands for.
func (c *Catalog) Keyword(alias string) (string, bool) {
	full, ok := c.aliases[alias]
	return full, ok
}

// Assemblies lists the reference documents loaded, by assembly name.
func (c *Catalog) Assemblies() []string {
	return append([]string(nil), c.assemblies...)
}

// Len returns the number of external types.
func (c *Catalog) Len() int {
	return len(c.types)
}

func namespaceOf(full string) string {
	i := strings.LastIndex(full, ".")
	if i < 0 {
		return ""
	}
	return full[:i]
}

func simpleName(full string) string {
	return full[strings.LastIndex(full, ".")+1:]
}
