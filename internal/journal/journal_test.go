package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLines(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "log")
	j, err := Open(dir)
	require.NoError(t, err)

	lines, err := j.Lines(Timeout)
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, j.Append(Timeout, "a/B"))
	require.NoError(t, j.Append(Timeout, "c/D\n"))
	require.NoError(t, j.Failure("slice too large", "e/F"))

	lines, err = j.Lines(Timeout)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/B", "c/D"}, lines)

	raw, err := os.ReadFile(filepath.Join(dir, string(Error)))
	require.NoError(t, err)
	assert.Equal(t, "slice too large, e/F\n", string(raw))
}

func TestConcurrentAppendsStayWhole(t *testing.T) {
	t.Parallel()

	j, err := Open(t.TempDir())
	require.NoError(t, err)

	const workers, each = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				assert.NoError(t, j.Append(Finished, fmt.Sprintf("worker%d/file%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	done, err := j.Checkpoint()
	require.NoError(t, err)
	assert.Len(t, done, workers*each)
	assert.True(t, done["worker3/file49"])
}

func TestOpenFailsOnFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := Open(path)
	assert.Error(t, err)
}
