// Package discover finds the C# source files of an input directory.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/apislice/internal/lang"
)

// IgnoreFile lists paths to leave out of a run, in .gitignore syntax. It is
// read from the input root alongside .gitignore.
const IgnoreFile = ".sliceignore"

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the input root
	Identity string // Path with / separators and no extension
}

var skipDirs = map[string]struct{}{
	"bin":          {},
	"obj":          {},
	"packages":     {},
	"node_modules": {},
	"TestResults":  {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	".vs":          {},
}

// Files discovers C# files under root, sorted by path.
func Files(root string) ([]FileEntry, error) {
	gitFiles := gitLsFiles(root)
	var ignores []*ignore.GitIgnore
	if gitFiles == nil {
		ignores = append(ignores, loadIgnore(root, ".gitignore"))
	}
	ignores = append(ignores, loadIgnore(root, IgnoreFile))

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if lang.ForExtension(filepath.Ext(name)) != lang.CSharp {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		}
		for _, gi := range ignores {
			if gi != nil && gi.MatchesPath(rel) {
				return nil
			}
		}

		results = append(results, FileEntry{Path: rel, Identity: Identity(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// Identity returns the identity of a file at rel: the slash-separated path
// without its extension. Checkpoints and artifact names use it.
func Identity(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadIgnore(root, name string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, name))
	if err != nil {
		return nil
	}
	return gi
}
