package proc

import (
	"strings"

	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/util"
)

// ReadDiskStats parses /proc/diskstats, keeping whole-disk devices only.
func ReadDiskStats() ([]model.DiskStats, error) {
	lines, err := util.ReadFileLines("/proc/diskstats")
	if err != nil {
		return nil, newError(ErrorKindProcRead, "/proc/diskstats", err)
	}
	var disks []model.DiskStats
	for _, line := range lines {
		ds, ok := parseDiskstatLine(line)
		if !ok || !isWholeDisk(ds.Name) {
			continue
		}
		disks = append(disks, ds)
	}
	return disks, nil
}

func parseDiskstatLine(line string) (model.DiskStats, bool) {
	fields := strings.Fields(line)
	if len(fields) < 14 {
		return model.DiskStats{}, false
	}
	return model.DiskStats{
		Name:            fields[2],
		ReadsCompleted:  util.ParseUint64(fields[3]),
		ReadsMerged:     util.ParseUint64(fields[4]),
		SectorsRead:     util.ParseUint64(fields[5]),
		ReadTimeMs:      util.ParseUint64(fields[6]),
		WritesCompleted: util.ParseUint64(fields[7]),
		WritesMerged:    util.ParseUint64(fields[8]),
		SectorsWritten:  util.ParseUint64(fields[9]),
		WriteTimeMs:     util.ParseUint64(fields[10]),
		IOsInProgress:   util.ParseUint64(fields[11]),
		IOTimeMs:        util.ParseUint64(fields[12]),
		WeightedIOMs:    util.ParseUint64(fields[13]),
	}, true
}

func isWholeDisk(name string) bool {
	if strings.HasPrefix(name, "loop") {
		return false
	}
	if strings.HasPrefix(name, "nvme") {
		return !strings.Contains(name[4:], "p")
	}
	for _, prefix := range []string{"sd", "vd", "xvd", "hd"} {
		if strings.HasPrefix(name, prefix) {
			suffix := name[len(prefix):]
			return len(suffix) == 1 && suffix[0] >= 'a' && suffix[0] <= 'z'
		}
	}
	return strings.HasPrefix(name, "dm-")
}
