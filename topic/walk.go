package topic

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// walkError is a filesystem problem hit while walking, tagged with the lexical path it occurred at.
type walkError struct {
	Path string
	Err  error
}

func (e *walkError) Error() string { return e.Err.Error() }
func (e *walkError) Unwrap() error { return e.Err }

// walker visits a directory tree in lexical order and follows symbolic links. A directory whose
// resolved path is one of its own ancestors is skipped, so symlink cycles terminate while aliases
// of sibling directories are still visited.
type walker struct {
	// skipDir is consulted for every directory below the walk root.
	skipDir func(path string) bool
	visit   func(path string, info fs.FileInfo)

	// ancestors holds the resolved paths of the directories on the current recursion stack.
	ancestors map[string]struct{}
	errs      []error
}

func (w *walker) walk(root string) []error {
	w.ancestors = make(map[string]struct{})
	w.errs = nil
	w.walkDir(root, true)
	return w.errs
}

func (w *walker) fail(path string, err error) {
	w.errs = append(w.errs, &walkError{Path: path, Err: err})
}

func (w *walker) walkDir(dir string, isRoot bool) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		w.fail(dir, errors.Wrapf(err, "failed to resolve directory '%v'", dir))
		return
	}
	if _, ok := w.ancestors[resolved]; ok {
		return
	}
	w.ancestors[resolved] = struct{}{}
	defer delete(w.ancestors, resolved)

	if !isRoot && w.skipDir != nil && w.skipDir(dir) {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.fail(dir, errors.Wrapf(err, "failed to read directory '%v'", dir))
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// os.Stat follows symlinks, entry.Info does not
		info, err := os.Stat(path)
		if err != nil {
			w.fail(path, errors.Wrapf(err, "failed to stat '%v'", path))
			continue
		}

		if info.IsDir() {
			w.walkDir(path, false)
			continue
		}
		if info.Mode().IsRegular() {
			w.visit(path, info)
		}
	}
}
