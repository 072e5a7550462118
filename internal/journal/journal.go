// Package journal keeps the append-only run logs: the finished checkpoint
// used for resume and the per-outcome diagnostic lists.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// Log names one journal file under the log directory.
type Log string

const (
	Finished          Log = "finished.txt"
	Timeout           Log = "timeout.txt"
	Error             Log = "error.txt"
	Empty             Log = "empty.txt"
	NamespaceNotFound Log = "namespace_not_found.txt"
)

// Journal appends lines to the logs of one directory. Every append opens,
// writes and closes its file under one mutex, so concurrent workers never
// interleave partial lines.
type Journal struct {
	dir string
	mu  sync.Mutex
}

// Open creates dir if needed and returns a Journal writing into it.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &Journal{dir: dir}, nil
}

// Append writes line to log.
func (j *Journal) Append(log Log, line string) (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(j.dir, string(log)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", log, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if _, err := f.WriteString(strings.TrimRight(line, "\n") + "\n"); err != nil {
		return fmt.Errorf("writing %s: %w", log, err)
	}
	return nil
}

// Failure records an error line of the form "<reason>, <identity>".
func (j *Journal) Failure(reason, identity string) error {
	return j.Append(Error, reason+", "+identity)
}

// Lines returns the lines of log. A log that was never written is empty.
func (j *Journal) Lines(log Log) ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(filepath.Join(j.dir, string(log)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", log, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", log, err)
	}
	return lines, nil
}

// Checkpoint returns the identities already in the finished log.
func (j *Journal) Checkpoint() (map[string]bool, error) {
	lines, err := j.Lines(Finished)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(lines))
	for _, l := range lines {
		done[l] = true
	}
	return done, nil
}
