package topic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a directory below the topics root that holds a topic config file.
type Dir struct {
	// Name is the topic name, derived from the path relative to the root with separators
	// replaced by dots: <root>/a/b/c becomes "a.b.c".
	Name       string
	Path       string
	ConfigPath string
}

// Layout describes the on-disk convention of a topics tree.
type Layout struct {
	Root            string
	ConfigSuffix    string
	SchemaExtension string
}

// NameFromPath derives the topic name for dir relative to root.
func NameFromPath(root string, dir string) (string, error) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(dir))
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", fmt.Errorf("directory '%v' is the topics root and has no topic name", dir)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("directory '%v' is outside of the topics root '%v'", dir, root)
	}

	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "."), nil
}

// Scan walks the topics root once and returns every topic directory in traversal order. Problems
// with single entries, such as an unreadable directory, a config file placed directly in the root
// or two config files in one directory, are joined into the returned error while the remaining
// topics are still returned. Filesystem problems below a topic directory are left to Discover of
// that topic so each is reported once.
func (l Layout) Scan() ([]Dir, error) {
	if _, err := os.Stat(l.Root); err != nil {
		return nil, fmt.Errorf("failed to access topics root: %w", err)
	}

	var dirs []Dir
	var errs []error
	byPath := make(map[string]int)

	w := walker{
		visit: func(path string, _ fs.FileInfo) {
			if !strings.HasSuffix(filepath.Base(path), l.ConfigSuffix) {
				return
			}
			dirPath := filepath.Dir(path)
			if idx, ok := byPath[dirPath]; ok {
				errs = append(errs, fmt.Errorf("directory '%v' contains more than one topic config: '%v' and '%v'",
					dirPath, filepath.Base(dirs[idx].ConfigPath), filepath.Base(path)))
				return
			}
			name, err := NameFromPath(l.Root, dirPath)
			if err != nil {
				errs = append(errs, fmt.Errorf("ignoring topic config '%v': %w", path, err))
				return
			}
			byPath[dirPath] = len(dirs)
			dirs = append(dirs, Dir{Name: name, Path: dirPath, ConfigPath: path})
		},
	}
	for _, err := range w.walk(l.Root) {
		var walkErr *walkError
		if errors.As(err, &walkErr) && insideTopic(dirs, walkErr.Path) {
			continue
		}
		errs = append(errs, err)
	}

	return dirs, errors.Join(errs...)
}

func insideTopic(dirs []Dir, path string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir.Path, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return true
	}
	return false
}

// isTopicDir reports whether dir directly contains a topic config file.
func (l Layout) isTopicDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), l.ConfigSuffix) {
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err == nil && info.Mode().IsRegular() {
				return true
			}
		}
	}
	return false
}
