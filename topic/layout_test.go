package topic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFromPath(t *testing.T) {
	tests := []struct {
		dir     string
		want    string
		wantErr bool
	}{
		{dir: "topics/orders", want: "orders"},
		{dir: "topics/a/b/c", want: "a.b.c"},
		{dir: "topics/a/b/c/", want: "a.b.c"},
		{dir: "topics", wantErr: true},
		{dir: "elsewhere/orders", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			got, err := NameFromPath("./topics", tt.dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLayout_Scan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"orders/config.yaml":               validConfig,
		"orders/value-schema.avsc":         `"string"`,
		"a/b/c/config.yaml":                validConfig,
		"a/readme.md":                      "not a topic",
		"payments/refunds/config.yaml":     validConfig,
		"payments/config.yaml":             validConfig,
		"payments/refunds/key-schema.avsc": `"string"`,
	})

	dirs, err := testLayout(root).Scan()
	require.NoError(t, err)

	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a.b.c", "orders", "payments", "payments.refunds"}, names)
	assert.Equal(t, filepath.Join(root, "orders", "config.yaml"), dirs[1].ConfigPath)
}

func TestLayout_ScanRootConfigAndDuplicates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"config.yaml":            validConfig,
		"orders/config.yaml":     validConfig,
		"orders/old-config.yaml": validConfig,
		"users/config.yaml":      validConfig,
	})

	dirs, err := testLayout(root).Scan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no topic name")
	assert.Contains(t, err.Error(), "more than one topic config")

	require.Len(t, dirs, 2)
	assert.Equal(t, "orders", dirs[0].Name)
	assert.Equal(t, "users", dirs[1].Name)
}

func TestLayout_ScanFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	shared := t.TempDir()
	writeTree(t, shared, map[string]string{"config.yaml": validConfig})
	writeTree(t, root, map[string]string{"orders/config.yaml": validConfig})

	require.NoError(t, os.Symlink(shared, filepath.Join(root, "shared")))
	// A cycle back to the root must not loop forever.
	require.NoError(t, os.Symlink(root, filepath.Join(root, "orders", "loop")))

	dirs, err := testLayout(root).Scan()
	require.NoError(t, err)
	require.Len(t, dirs, 2)
	assert.Equal(t, "orders", dirs[0].Name)
	assert.Equal(t, "shared", dirs[1].Name)
}

func TestLayout_ScanSymlinkAlias(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"orders/config.yaml": validConfig})
	require.NoError(t, os.Symlink(filepath.Join(root, "orders"), filepath.Join(root, "alias")))

	dirs, err := testLayout(root).Scan()
	require.NoError(t, err)

	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"alias", "orders"}, names)
}

func TestLayout_ScanLeavesTopicProblemsToDiscover(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"orders/config.yaml": validConfig})
	require.NoError(t, os.Symlink("missing", filepath.Join(root, "orders", "broken")))
	require.NoError(t, os.Symlink("missing", filepath.Join(root, "dangling")))

	l := testLayout(root)
	dirs, err := l.Scan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling")
	assert.NotContains(t, err.Error(), "broken")
	require.Len(t, dirs, 1)

	_, err = l.Discover(dirs[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLayout_ScanMissingRoot(t *testing.T) {
	_, err := testLayout(filepath.Join(t.TempDir(), "missing")).Scan()
	assert.Error(t, err)
}
