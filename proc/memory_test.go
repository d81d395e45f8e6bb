package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func writeFakeSmapsRollup(t *testing.T, dir string, pid int, rssKB, pssKB, privCleanKB, privDirtyKB uint64) {
	t.Helper()
	pidDir := filepath.Join(dir, strconv.Itoa(pid))
	if err := os.MkdirAll(pidDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := fmt.Sprintf(
		"Rss:            %d kB\nPss:            %d kB\nPrivate_Clean:  %d kB\nPrivate_Dirty:  %d kB\n",
		rssKB, pssKB, privCleanKB, privDirtyKB,
	)
	if err := os.WriteFile(filepath.Join(pidDir, "smaps_rollup"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestReadMemoryRoundTrip covers R1: parse_memory(write_fake_smaps(...))
// reproduces (rss, pss, priv_clean+priv_dirty) in bytes.
func TestReadMemoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFakeSmapsRollup(t, dir, 1000, 100, 80, 40, 20)

	got, err := ReadMemory(dir, 1000, 0)
	if err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if got.RSSBytes != 100*1024 {
		t.Errorf("RSSBytes = %d, want %d", got.RSSBytes, 100*1024)
	}
	if got.PSSBytes != 80*1024 {
		t.Errorf("PSSBytes = %d, want %d", got.PSSBytes, 80*1024)
	}
	if got.USSBytes != (40+20)*1024 {
		t.Errorf("USSBytes = %d, want %d", got.USSBytes, (40+20)*1024)
	}
}

func TestReadMemoryMissingProcess(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadMemory(dir, 9999, 0); err == nil {
		t.Fatal("expected error for missing process")
	}
}
