package pattern

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFSGlobberMatchesRelative(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(""), 0o644))
	}

	g := FSGlobber{}
	matches, err := g.Glob("*.txt", dir)
	require.NoError(t, err)
	sort.Strings(matches)
	require.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, matches)
}

func TestFSGlobberNoMatch(t *testing.T) {
	dir := t.TempDir()
	g := FSGlobber{}
	matches, err := g.Glob("*.nope", dir)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestFSGlobberDoubleStar(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "dir", "deep.txt"), []byte(""), 0o644))

	g := FSGlobber{}
	matches, err := g.Glob("**/*.txt", dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "nested", "dir", "deep.txt")}, matches)
}
