package proc

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func writeFakeStat(t *testing.T, dir string, pid int, comm string, utime, stime, starttime uint64) {
	t.Helper()
	pidDir := filepath.Join(dir, strconv.Itoa(pid))
	if err := os.MkdirAll(pidDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// pid (comm) state ppid pgrp session tty_nr tpgid flags minflt cminflt
	// majflt cmajflt utime stime cutime cstime priority nice num_threads
	// itrealvalue starttime ...
	content := fmt.Sprintf(
		"%d (%s) S 1 1 1 0 -1 0 0 0 0 0 %d %d 0 0 20 0 1 0 %d 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 17 0 0 0 0 0 0",
		pid, comm, utime, stime, starttime,
	)
	if err := os.WriteFile(filepath.Join(pidDir, "stat"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestReadStatCPUTime covers S1's CPU-time computation: utime=100,
// stime=50 at CLK_TCK=100 yields 1.5 seconds.
func TestReadStatCPUTime(t *testing.T) {
	SetClockTicksPerSecond(100)
	dir := t.TempDir()
	writeFakeStat(t, dir, 1000, "nginx", 100, 50, 0)

	s, err := ReadStat(dir, 1000)
	if err != nil {
		t.Fatalf("ReadStat: %v", err)
	}
	if s.Comm != "nginx" {
		t.Errorf("Comm = %q, want nginx", s.Comm)
	}
	if got := s.CPUTimeSeconds(); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("CPUTimeSeconds() = %v, want 1.5", got)
	}
}

func TestParseStatCommWithParens(t *testing.T) {
	dir := t.TempDir()
	writeFakeStat(t, dir, 1001, "(weird) proc", 10, 10, 0)

	s, err := ReadStat(dir, 1001)
	if err != nil {
		t.Fatalf("ReadStat: %v", err)
	}
	if s.Comm != "(weird) proc" {
		t.Errorf("Comm = %q, want %q", s.Comm, "(weird) proc")
	}
}

func TestReadStatMalformed(t *testing.T) {
	dir := t.TempDir()
	pidDir := filepath.Join(dir, "2000")
	os.MkdirAll(pidDir, 0o755)
	os.WriteFile(filepath.Join(pidDir, "stat"), []byte("2000 (x) S 1 2 3"), 0o644)

	if _, err := ReadStat(dir, 2000); err == nil {
		t.Fatal("expected parse error for truncated stat")
	}
}
