package pattern

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FSGlobber is the default shellapi.Globber: it walks the real
// filesystem and matches names with doublestar, which natively
// understands "**" the way bash's globstar option does.
type FSGlobber struct{}

func (FSGlobber) Glob(pattern, cwd string) ([]string, error) {
	if filepath.IsAbs(pattern) {
		return doublestar.FilepathGlob(pattern)
	}
	root := cwd
	if root == "" {
		root = "."
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		matches[i] = filepath.Join(root, m)
	}
	return matches, nil
}
