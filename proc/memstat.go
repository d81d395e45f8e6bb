package proc

import (
	"strings"

	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/util"
)

// ReadMeminfo parses /proc/meminfo.
func ReadMeminfo() (model.MemoryMetrics, error) {
	kv, err := util.ParseKeyValueFile("/proc/meminfo")
	if err != nil {
		return model.MemoryMetrics{}, newError(ErrorKindProcRead, "/proc/meminfo", err)
	}
	var mem model.MemoryMetrics
	mem.Total = parseMeminfoKB(kv["MemTotal"])
	mem.Free = parseMeminfoKB(kv["MemFree"])
	mem.Available = parseMeminfoKB(kv["MemAvailable"])
	mem.Buffers = parseMeminfoKB(kv["Buffers"])
	mem.Cached = parseMeminfoKB(kv["Cached"])
	mem.SwapTotal = parseMeminfoKB(kv["SwapTotal"])
	mem.SwapFree = parseMeminfoKB(kv["SwapFree"])
	mem.SwapUsed = mem.SwapTotal - mem.SwapFree
	mem.Dirty = parseMeminfoKB(kv["Dirty"])
	mem.Writeback = parseMeminfoKB(kv["Writeback"])
	mem.Slab = parseMeminfoKB(kv["Slab"])
	mem.AnonPages = parseMeminfoKB(kv["AnonPages"])
	mem.Mapped = parseMeminfoKB(kv["Mapped"])
	mem.Shmem = parseMeminfoKB(kv["Shmem"])
	mem.Active = parseMeminfoKB(kv["Active"])
	mem.Inactive = parseMeminfoKB(kv["Inactive"])
	return mem, nil
}

func parseMeminfoKB(s string) uint64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " kB")
	s = strings.TrimSpace(s)
	return util.ParseUint64(s) * 1024
}
