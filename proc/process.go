package proc

import (
	"fmt"
	"os"
	"strings"

	"github.com/ftahirops/herakles/util"
)

// StatReading holds the fields decoded from /proc/[pid]/stat that the
// rest of the pipeline needs.
type StatReading struct {
	Comm          string
	State         string
	UTimeTicks    uint64
	STimeTicks    uint64
	StartTimeTicks uint64
}

// CPUTimeSeconds converts the ticks into seconds using
// ClockTicksPerSecond.
func (s StatReading) CPUTimeSeconds() float64 {
	return float64(s.UTimeTicks+s.STimeTicks) / ClockTicksPerSecond()
}

// UserSeconds and SystemSeconds split the cumulative CPU time (§O2).
func (s StatReading) UserSeconds() float64 {
	return float64(s.UTimeTicks) / ClockTicksPerSecond()
}

func (s StatReading) SystemSeconds() float64 {
	return float64(s.STimeTicks) / ClockTicksPerSecond()
}

// StartTimeSeconds converts the starttime field into seconds since boot.
func (s StatReading) StartTimeSeconds() float64 {
	return float64(s.StartTimeTicks) / ClockTicksPerSecond()
}

// ReadStat reads and parses /proc/[pid]/stat.
func ReadStat(root string, pid int) (StatReading, error) {
	path := fmt.Sprintf("%s/%d/stat", root, pid)
	content, err := util.ReadFileString(path)
	if err != nil {
		return StatReading{}, newError(ErrorKindProcRead, path, err)
	}
	return parseStat(content, path)
}

// parseStat implements the "find the comm between the first '(' and the
// last ')'" trick, since comm may itself contain parentheses or spaces.
func parseStat(content, path string) (StatReading, error) {
	openIdx := strings.IndexByte(content, '(')
	closeIdx := strings.LastIndexByte(content, ')')
	if openIdx < 0 || closeIdx < 0 || closeIdx < openIdx {
		return StatReading{}, newError(ErrorKindParse, path, fmt.Errorf("malformed stat: no comm delimiters"))
	}

	var s StatReading
	s.Comm = content[openIdx+1 : closeIdx]

	rest := strings.Fields(content[closeIdx+2:])
	// rest[0] is field 3 (state); fields 14/15/22 map to rest[11]/rest[12]/rest[19].
	if len(rest) < 20 {
		return StatReading{}, newError(ErrorKindParse, path, fmt.Errorf("stat has %d trailing fields, want >= 20", len(rest)))
	}
	s.State = rest[0]
	s.UTimeTicks = util.ParseUint64(rest[11])
	s.STimeTicks = util.ParseUint64(rest[12])
	s.StartTimeTicks = util.ParseUint64(rest[19])
	return s, nil
}

// ReadSwap returns VmSwap from /proc/[pid]/status in bytes; absent means zero.
func ReadSwap(root string, pid int) (uint64, error) {
	path := fmt.Sprintf("%s/%d/status", root, pid)
	kv, err := util.ParseKeyValueFile(path)
	if err != nil {
		return 0, newError(ErrorKindProcRead, path, err)
	}
	fields := strings.Fields(kv["VmSwap"])
	if len(fields) == 0 {
		return 0, nil
	}
	return util.ParseUint64(fields[0]) * 1024, nil
}

// BlockIO holds cumulative block I/O byte counters for one process.
type BlockIO struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// ReadBlockIO reads /proc/[pid]/io. On failure it returns zero counters
// together with an ErrorKindPermission or ErrorKindProcRead error; the
// scan engine ignores that error and keeps the process with zeros.
func ReadBlockIO(root string, pid int) (BlockIO, error) {
	path := fmt.Sprintf("%s/%d/io", root, pid)
	kv, err := util.ParseKeyValueFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return BlockIO{}, newError(ErrorKindPermission, path, err)
		}
		return BlockIO{}, newError(ErrorKindProcRead, path, err)
	}
	return BlockIO{
		ReadBytes:  util.ParseUint64(kv["read_bytes"]),
		WriteBytes: util.ParseUint64(kv["write_bytes"]),
	}, nil
}

// ReadComm reads /proc/[pid]/comm, trimmed, falling back to "" on error.
// Used by the eBPF manager to resolve PIDs best-effort.
func ReadComm(root string, pid int) string {
	path := fmt.Sprintf("%s/%d/comm", root, pid)
	s, err := util.ReadFileString(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
