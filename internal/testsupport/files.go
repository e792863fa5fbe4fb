package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteAttachment creates a file with the given contents, making parent
// directories as needed. Used by upload tests that need a real file path.
func WriteAttachment(t testing.TB, path string, contents []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
