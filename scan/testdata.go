package scan

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ftahirops/herakles/model"
)

// testDataFile is the on-disk schema of a synthetic dataset (§6 "Test-data
// file"): a JSON document with pre-computed per-process figures that
// replaces /proc enumeration entirely when configured.
type testDataFile struct {
	Processes []testDataProcess `json:"processes"`
}

type testDataProcess struct {
	PID            int     `json:"pid"`
	Name           string  `json:"name"`
	RSSKb          uint64  `json:"rss_kb"`
	PSSKb          uint64  `json:"pss_kb"`
	USSKb          uint64  `json:"uss_kb"`
	SwapKb         uint64  `json:"swap_kb"`
	CPUPercent     float32 `json:"cpu_percent"`
	CPUTimeSeconds float64 `json:"cpu_time_seconds"`
	StartTimeSecs  float64 `json:"start_time_secs"`
	ReadBytes      uint64  `json:"read_bytes"`
	WriteBytes     uint64  `json:"write_bytes"`
	RxBytes        uint64  `json:"rx_bytes"`
	TxBytes        uint64  `json:"tx_bytes"`
}

// loadTestDataSamples reads a synthetic dataset and converts it directly
// into ProcessSamples, bypassing /proc entirely (§4.5 step 3). Missing
// PIDs are assigned sequentially starting at 1 to keep the snapshot's PID
// map well-formed.
func loadTestDataSamples(path string, refreshAt time.Time) (map[int]model.ProcessSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f testDataFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	out := make(map[int]model.ProcessSample, len(f.Processes))
	for i, p := range f.Processes {
		pid := p.PID
		if pid == 0 {
			pid = i + 1
		}
		s := model.ProcessSample{
			PID:            pid,
			Name:           p.Name,
			RSS:            p.RSSKb * 1024,
			PSS:            p.PSSKb * 1024,
			USS:            p.USSKb * 1024,
			Swap:           p.SwapKb * 1024,
			CPUPercent:     p.CPUPercent,
			CPUTimeSeconds: p.CPUTimeSeconds,
			StartTimeSecs:  p.StartTimeSecs,
			ReadBytes:      p.ReadBytes,
			WriteBytes:     p.WriteBytes,
			RxBytes:        p.RxBytes,
			TxBytes:        p.TxBytes,
			LastReadBytes:  p.ReadBytes,
			LastWriteBytes: p.WriteBytes,
			LastRxBytes:    p.RxBytes,
			LastTxBytes:    p.TxBytes,
			LastUpdateTime: refreshAt,
			SampleTime:     refreshAt,
		}
		out[pid] = s
	}
	return out, nil
}

// selfPID returns the exporter's own PID for self-accounting metrics.
func selfPID() int {
	return os.Getpid()
}
