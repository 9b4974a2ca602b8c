package topic

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jellydator/ttlcache/v2"
)

type Role string

const (
	RoleKey   Role = "key"
	RoleValue Role = "value"
)

var (
	ErrUnknownRole   = errors.New("unknown schema role")
	ErrDuplicateRole = errors.New("more than one schema file for role")
)

// ParseRole accepts exactly "key" or "value".
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleKey, RoleValue:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w '%v', expected '%v' or '%v'", ErrUnknownRole, s, RoleKey, RoleValue)
	}
}

// SchemaFile is a schema discovered inside a topic directory. Err is set if the file name breaks
// the naming convention (unknown or duplicate role); such files must not be processed further.
type SchemaFile struct {
	Topic    string
	Role     Role
	RoleName string
	Path     string
	Err      error
}

// Subject is the registry subject the schema is registered under, "<topic>-<role>".
func (f SchemaFile) Subject() string {
	return f.Topic + "-" + f.RoleName
}

func (l Layout) schemaPattern() string {
	return "*-schema." + l.SchemaExtension
}

func (l Layout) schemaSuffix() string {
	return "-schema." + l.SchemaExtension
}

// Discover walks a topic directory and returns its schema files in traversal order. Every call
// walks the filesystem again. Subdirectories that are topics on their own are not descended into.
// The returned error reports directories that could not be walked.
func (l Layout) Discover(dir Dir) ([]SchemaFile, error) {
	pattern := l.schemaPattern()

	var files []SchemaFile
	byRole := make(map[string][]int)

	w := walker{
		skipDir: l.isTopicDir,
		visit: func(path string, _ fs.FileInfo) {
			base := filepath.Base(path)
			if ok, _ := doublestar.Match(pattern, base); !ok {
				return
			}
			roleName := strings.TrimSuffix(base, l.schemaSuffix())
			f := SchemaFile{Topic: dir.Name, RoleName: roleName, Path: path}
			f.Role, f.Err = ParseRole(roleName)

			byRole[roleName] = append(byRole[roleName], len(files))
			files = append(files, f)
		},
	}
	errs := w.walk(dir.Path)

	for roleName, idxs := range byRole {
		if len(idxs) < 2 {
			continue
		}
		for _, idx := range idxs {
			if files[idx].Err != nil {
				continue
			}
			files[idx].Err = fmt.Errorf("%w '%v' in topic '%v' (%v files)", ErrDuplicateRole, roleName, dir.Name, len(idxs))
		}
	}

	return files, errors.Join(errs...)
}

type discoveryResult struct {
	files []SchemaFile
	err   error
}

// DiscoveryCache memoizes Discover results per topic directory. Only paths are cached; callers
// still read every schema file when they process it.
type DiscoveryCache struct {
	layout Layout
	cache  *ttlcache.Cache
}

func NewDiscoveryCache(layout Layout, ttl time.Duration) (*DiscoveryCache, error) {
	cache := ttlcache.NewCache()
	if err := cache.SetTTL(ttl); err != nil {
		return nil, fmt.Errorf("failed to set discovery cache ttl: %w", err)
	}
	cache.SkipTTLExtensionOnHit(true)

	return &DiscoveryCache{layout: layout, cache: cache}, nil
}

func (c *DiscoveryCache) Discover(dir Dir) ([]SchemaFile, error) {
	if cached, err := c.cache.Get(dir.Path); err == nil {
		res := cached.(discoveryResult)
		return res.files, res.err
	}

	files, err := c.layout.Discover(dir)
	_ = c.cache.Set(dir.Path, discoveryResult{files: files, err: err})

	return files, err
}

func (c *DiscoveryCache) Close() error {
	return c.cache.Close()
}
