package proc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveSocketOwnersMatchesFDSymlink(t *testing.T) {
	root := t.TempDir()
	fdDir := filepath.Join(root, "42", "fd")
	if err := os.MkdirAll(fdDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("socket:[9001]", filepath.Join(fdDir, "3")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("/dev/null", filepath.Join(fdDir, "0")); err != nil {
		t.Fatal(err)
	}

	owners := ResolveSocketOwners(root, map[uint64]struct{}{9001: {}, 9002: {}})

	if owners[9001] != 42 {
		t.Errorf("owners[9001] = %d, want 42", owners[9001])
	}
	if _, ok := owners[9002]; ok {
		t.Errorf("owners[9002] should be absent, got %v", owners[9002])
	}
}
