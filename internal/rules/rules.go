// Package rules loads the keyword rule set that decides which API uses
// start a slice.
package rules

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category names, as they appear in the keyword file.
const (
	Invocation  = "invocation"
	Invoke      = "invoke"
	StaticClass = "staticclass"
	Property    = "property"
	Class       = "class"
)

// Categories lists every category a rule set must define.
var Categories = []string{Invocation, Invoke, StaticClass, Property, Class}

// ErrInvalidRules is wrapped by every load failure.
var ErrInvalidRules = errors.New("invalid keyword rules")

// Set holds the patterns of the five categories. It is read-only once
// loaded and safe to share between goroutines.
type Set struct {
	Invocation  []string `yaml:"invocation" json:"invocation"`
	Invoke      []string `yaml:"invoke" json:"invoke"`
	StaticClass []string `yaml:"staticclass" json:"staticclass"`
	Property    []string `yaml:"property" json:"property"`
	Class       []string `yaml:"class" json:"class"`
}

// Load reads a keyword file. JSON is accepted since it is valid YAML.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a keyword document. Every category must be present; an
// empty list is allowed.
func Parse(data []byte) (*Set, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidRules)
	}
	var missing []string
	for _, c := range Categories {
		if _, ok := raw[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing categories %s", ErrInvalidRules, strings.Join(missing, ", "))
	}
	s := &Set{
		Invocation:  clean(raw[Invocation]),
		Invoke:      clean(raw[Invoke]),
		StaticClass: clean(raw[StaticClass]),
		Property:    clean(raw[Property]),
		Class:       clean(raw[Class]),
	}
	return s, nil
}

func clean(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MatchInvocation reports whether a qualified method name matches an
// invocation pattern. A pattern without a dot matches as a suffix. A dotted
// pattern is split at its last dot; the name must contain the prefix and end
// with the suffix, so partially qualified containing types still match.
func (s *Set) MatchInvocation(name string) bool {
	for _, p := range s.Invocation {
		i := strings.LastIndex(p, ".")
		if i < 0 {
			if strings.HasSuffix(name, p) {
				return true
			}
			continue
		}
		if strings.Contains(name, p[:i]) && strings.HasSuffix(name, p[i+1:]) {
			return true
		}
	}
	return false
}

// MatchInvoke reports whether name ends with an invoke pattern. Callers
// must also check for a foreign import marker on the target.
func (s *Set) MatchInvoke(name string) bool {
	return anySuffix(name, s.Invoke)
}

// MatchStaticClass reports whether name contains a staticclass pattern.
func (s *Set) MatchStaticClass(name string) bool {
	for _, p := range s.StaticClass {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// MatchProperty reports whether name ends with a property pattern.
func (s *Set) MatchProperty(name string) bool {
	return anySuffix(name, s.Property)
}

// MatchClass reports whether a rendered type name equals a class pattern.
func (s *Set) MatchClass(typeName string) bool {
	for _, p := range s.Class {
		if p == typeName {
			return true
		}
	}
	return false
}

// ClassSuffixes returns the simple names of the class patterns: the text
// after each pattern's last dot.
func (s *Set) ClassSuffixes() []string {
	out := make([]string, 0, len(s.Class))
	for _, p := range s.Class {
		out = append(out, p[strings.LastIndex(p, ".")+1:])
	}
	return out
}

// Merged returns the patterns of the invocation, staticclass and invoke
// categories, deduplicated and sorted.
func (s *Set) Merged() []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{s.Invocation, s.StaticClass, s.Invoke} {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ContainsAny returns the first pattern that occurs in text, or "".
func ContainsAny(text string, patterns []string) string {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return p
		}
	}
	return ""
}

// Len returns the total number of patterns.
func (s *Set) Len() int {
	return len(s.Invocation) + len(s.Invoke) + len(s.StaticClass) + len(s.Property) + len(s.Class)
}

func anySuffix(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(name, p) {
			return true
		}
	}
	return false
}
