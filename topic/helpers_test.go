package topic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validConfig = `replication_factor: 1
partitions: 3
config:
  retention_ms: 86400000
`

// writeTree creates files below root. Keys are slash separated relative paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func testLayout(root string) Layout {
	return Layout{Root: root, ConfigSuffix: "config.yaml", SchemaExtension: "avsc"}
}
