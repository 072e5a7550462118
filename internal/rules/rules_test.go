package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = `{
  "invocation": ["Process.Start", "VirtualAlloc"],
  "invoke": ["CreateRemoteThread"],
  "staticclass": ["System.Reflection.Assembly"],
  "property": ["Environment.MachineName"],
  "class": ["System.Net.WebClient", "string"]
}`

func TestParseJSON(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &Set{
		Invocation:  []string{"Process.Start", "VirtualAlloc"},
		Invoke:      []string{"CreateRemoteThread"},
		StaticClass: []string{"System.Reflection.Assembly"},
		Property:    []string{"Environment.MachineName"},
		Class:       []string{"System.Net.WebClient", "string"},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != 7 {
		t.Errorf("Len = %d, want 7", s.Len())
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	doc := `invocation: [Start]
invoke: []
staticclass: []
property: []
class:
  - "  System.Net.WebClient  "
  - ""
`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff([]string{"System.Net.WebClient"}, s.Class); diff != "" {
		t.Errorf("Class mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"malformed", "{invocation: ["},
		{"missing category", `{"invocation": [], "invoke": [], "staticclass": [], "property": []}`},
		{"wrong shape", `{"invocation": "Start"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidRules) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidRules", tt.doc, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, ErrInvalidRules) {
		t.Errorf("Load(missing) error = %v, want ErrInvalidRules", err)
	}
}

func TestMatchInvocation(t *testing.T) {
	t.Parallel()

	s := &Set{Invocation: []string{"Process.Start", "VirtualAlloc"}}
	tests := []struct {
		name string
		want bool
	}{
		{"System.Diagnostics.Process.Start", true},
		{"Company.ProcessHelpers.Launcher.Start", true},
		{"System.Diagnostics.Process.Kill", false},
		{"<global namespace>.Native.VirtualAlloc", true},
		{"<global namespace>.Native.VirtualAllocEx", false},
		{"System.Threading.Thread.Start", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.MatchInvocation(tt.name); got != tt.want {
				t.Errorf("MatchInvocation(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMatchOtherCategories(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"invoke suffix", s.MatchInvoke, "<global namespace>.Native.CreateRemoteThread", true},
		{"invoke miss", s.MatchInvoke, "Native.CreateThread", false},
		{"staticclass contains", s.MatchStaticClass, "System.Reflection.Assembly.Load", true},
		{"staticclass miss", s.MatchStaticClass, "System.Reflection.MethodInfo.Invoke", false},
		{"property suffix", s.MatchProperty, "System.Environment.MachineName", true},
		{"property miss", s.MatchProperty, "System.Environment.UserName", false},
		{"class exact", s.MatchClass, "System.Net.WebClient", true},
		{"class keyword", s.MatchClass, "string", true},
		{"class no suffix match", s.MatchClass, "My.System.Net.WebClient", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("%s(%q) = %v, want %v", tt.name, tt.in, got, tt.want)
			}
		})
	}
}

func TestMergedAndSuffixes(t *testing.T) {
	t.Parallel()

	s := &Set{
		Invocation:  []string{"Start", "Process.Start"},
		Invoke:      []string{"Start"},
		StaticClass: []string{"Assembly"},
		Class:       []string{"System.Net.WebClient", "string"},
	}
	if diff := cmp.Diff([]string{"Assembly", "Process.Start", "Start"}, s.Merged()); diff != "" {
		t.Errorf("Merged mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"WebClient", "string"}, s.ClassSuffixes()); diff != "" {
		t.Errorf("ClassSuffixes mismatch (-want +got):\n%s", diff)
	}
	if got := ContainsAny("Foo.Start(x)", s.Merged()); got != "Start" {
		t.Errorf("ContainsAny = %q, want Start", got)
	}
	if got := ContainsAny("Foo.Bar(x)", s.Merged()); got != "" {
		t.Errorf("ContainsAny = %q, want empty", got)
	}
}
