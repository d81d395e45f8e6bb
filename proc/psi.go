package proc

import (
	"strings"

	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/util"
)

// ReadPSI parses /proc/pressure/{cpu,memory,io}. A missing file (older
// kernels, PSI disabled) leaves the corresponding resource zeroed and is
// not treated as fatal to the other two.
func ReadPSI() (model.PSIMetrics, error) {
	var psi model.PSIMetrics
	var firstErr error

	if v, err := parsePSIFile("/proc/pressure/cpu"); err == nil {
		psi.CPU = v
	} else if firstErr == nil {
		firstErr = err
	}
	if v, err := parsePSIFile("/proc/pressure/memory"); err == nil {
		psi.Memory = v
	} else if firstErr == nil {
		firstErr = err
	}
	if v, err := parsePSIFile("/proc/pressure/io"); err == nil {
		psi.IO = v
	} else if firstErr == nil {
		firstErr = err
	}
	return psi, firstErr
}

func parsePSIFile(path string) (model.PSIResource, error) {
	var res model.PSIResource
	content, err := util.ReadFileString(path)
	if err != nil {
		return res, newError(ErrorKindProcRead, path, err)
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pl, isFull, ok := parsePSILine(line)
		if !ok {
			continue
		}
		if isFull {
			res.Full = pl
		} else {
			res.Some = pl
		}
	}
	return res, nil
}

// PSITotalSeconds converts a PSILine's cumulative microsecond total into
// seconds for counter export.
func PSITotalSeconds(l model.PSILine) float64 {
	return float64(l.Total) / 1_000_000
}

func parsePSILine(line string) (model.PSILine, bool, bool) {
	var pl model.PSILine
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return pl, false, false
	}
	isFull := fields[0] == "full"
	for _, f := range fields[1:] {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "avg10":
			pl.Avg10 = util.ParseFloat64(parts[1])
		case "avg60":
			pl.Avg60 = util.ParseFloat64(parts[1])
		case "avg300":
			pl.Avg300 = util.ParseFloat64(parts[1])
		case "total":
			// total= is reported in microseconds; callers convert to
			// seconds (PSITotalSeconds) when exposing as a counter.
			pl.Total = util.ParseUint64(parts[1])
		}
	}
	return pl, isFull, true
}
