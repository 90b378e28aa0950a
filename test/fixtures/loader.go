package fixtures

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// LoadProject loads a fixture project API response, as served for
// GET /api/nft/{slug}.
func LoadProject(t *testing.T, slug string) []byte {
	t.Helper()
	path := filepath.Join(fixturesDir(), "projects", slug+".json")
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to load fixture project: %s", slug)
	return data
}
