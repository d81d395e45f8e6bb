package proc

import (
	"fmt"
	"strings"

	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/util"
)

// ReadCPUStat parses /proc/stat's cpu and per-cpuN lines.
func ReadCPUStat() (model.CPUTimes, []model.CPUTimes, error) {
	lines, err := util.ReadFileLines("/proc/stat")
	if err != nil {
		return model.CPUTimes{}, nil, newError(ErrorKindProcRead, "/proc/stat", err)
	}
	var total model.CPUTimes
	var perCPU []model.CPUTimes
	for _, line := range lines {
		if strings.HasPrefix(line, "cpu ") {
			total = parseCPULine(line)
		} else if strings.HasPrefix(line, "cpu") {
			perCPU = append(perCPU, parseCPULine(line))
		}
	}
	return total, perCPU, nil
}

func parseCPULine(line string) model.CPUTimes {
	fields := strings.Fields(line)
	var ct model.CPUTimes
	get := func(i int) uint64 {
		if i < len(fields) {
			return util.ParseUint64(fields[i])
		}
		return 0
	}
	ct.User = get(1)
	ct.Nice = get(2)
	ct.System = get(3)
	ct.Idle = get(4)
	ct.IOWait = get(5)
	ct.IRQ = get(6)
	ct.SoftIRQ = get(7)
	ct.Steal = get(8)
	ct.Guest = get(9)
	ct.GuestNice = get(10)
	return ct
}

// ReadLoadAvg parses /proc/loadavg.
func ReadLoadAvg() (model.LoadAvg, error) {
	content, err := util.ReadFileString("/proc/loadavg")
	if err != nil {
		return model.LoadAvg{}, newError(ErrorKindProcRead, "/proc/loadavg", err)
	}
	fields := strings.Fields(content)
	if len(fields) < 5 {
		return model.LoadAvg{}, newError(ErrorKindParse, "/proc/loadavg", fmt.Errorf("want >= 5 fields, got %d", len(fields)))
	}
	var la model.LoadAvg
	la.Load1 = util.ParseFloat64(fields[0])
	la.Load5 = util.ParseFloat64(fields[1])
	la.Load15 = util.ParseFloat64(fields[2])
	if parts := strings.SplitN(fields[3], "/", 2); len(parts) == 2 {
		la.Running = util.ParseUint64(parts[0])
		la.Total = util.ParseUint64(parts[1])
	}
	return la, nil
}

// ReadUptimeSeconds parses /proc/uptime, returning system uptime in seconds.
func ReadUptimeSeconds() (float64, error) {
	content, err := util.ReadFileString("/proc/uptime")
	if err != nil {
		return 0, newError(ErrorKindProcRead, "/proc/uptime", err)
	}
	fields := strings.Fields(content)
	if len(fields) < 1 {
		return 0, newError(ErrorKindParse, "/proc/uptime", fmt.Errorf("empty uptime"))
	}
	return util.ParseFloat64(fields[0]), nil
}

// ReadKernelCounters parses ctxt, processes (forks), and btime from /proc/stat.
func ReadKernelCounters() (model.KernelStats, error) {
	lines, err := util.ReadFileLines("/proc/stat")
	if err != nil {
		return model.KernelStats{}, newError(ErrorKindProcRead, "/proc/stat", err)
	}
	var ks model.KernelStats
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "ctxt":
			ks.ContextSwitches = util.ParseUint64(fields[1])
		case "processes":
			ks.Forks = util.ParseUint64(fields[1])
		case "btime":
			ks.BootTimeUnix = int64(util.ParseUint64(fields[1]))
		}
	}
	if uptime, err := ReadUptimeSeconds(); err == nil {
		ks.UptimeSeconds = uptime
	}
	if bits, err := util.ReadFileString("/proc/sys/kernel/random/entropy_avail"); err == nil {
		ks.EntropyBits = util.ParseUint64(strings.TrimSpace(bits))
	}
	return ks, nil
}
