package proc

import (
	"strings"

	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/util"
)

// ReadNetDev parses /proc/net/dev, skipping the two header lines and
// the loopback interface.
func ReadNetDev() ([]model.NetworkStats, error) {
	lines, err := util.ReadFileLines("/proc/net/dev")
	if err != nil {
		return nil, newError(ErrorKindProcRead, "/proc/net/dev", err)
	}
	var ifaces []model.NetworkStats
	for _, line := range lines {
		if strings.Contains(line, "|") || strings.TrimSpace(line) == "" {
			continue
		}
		ns, ok := parseNetDevLine(line)
		if !ok || ns.Name == "lo" {
			continue
		}
		ifaces = append(ifaces, ns)
	}
	return ifaces, nil
}

func parseNetDevLine(line string) (model.NetworkStats, bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return model.NetworkStats{}, false
	}
	name := strings.TrimSpace(parts[0])
	fields := strings.Fields(parts[1])
	if len(fields) < 16 {
		return model.NetworkStats{}, false
	}
	return model.NetworkStats{
		Name:      name,
		RxBytes:   util.ParseUint64(fields[0]),
		RxPackets: util.ParseUint64(fields[1]),
		RxErrors:  util.ParseUint64(fields[2]),
		RxDrops:   util.ParseUint64(fields[3]),
		TxBytes:   util.ParseUint64(fields[8]),
		TxPackets: util.ParseUint64(fields[9]),
		TxErrors:  util.ParseUint64(fields[10]),
		TxDrops:   util.ParseUint64(fields[11]),
		SpeedMbps: -1,
	}, true
}
