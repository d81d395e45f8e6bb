package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

// testDataFile mirrors scan's on-disk schema so generate-testdata can
// write files scan.Engine can read back via -testdata.
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

// sampleFleet is a small, deterministic fixture representing a typical
// web/db/app host, used to seed demos and integration tests.
var sampleFleet = []testDataProcess{
	{PID: 1001, Name: "nginx", RSSKb: 24_000, PSSKb: 18_000, USSKb: 14_000, CPUPercent: 2.5, CPUTimeSeconds: 1200, StartTimeSecs: 500, ReadBytes: 4_000_000, WriteBytes: 1_000_000},
	{PID: 1002, Name: "postgres", RSSKb: 512_000, PSSKb: 480_000, USSKb: 400_000, CPUPercent: 8.0, CPUTimeSeconds: 9600, StartTimeSecs: 300, ReadBytes: 80_000_000, WriteBytes: 40_000_000},
	{PID: 1003, Name: "node", RSSKb: 96_000, PSSKb: 70_000, USSKb: 60_000, CPUPercent: 4.2, CPUTimeSeconds: 3000, StartTimeSecs: 1800, ReadBytes: 2_000_000, WriteBytes: 500_000},
}

func runGenerateTestdata(args []string) error {
	fs := flag.NewFlagSet("generate-testdata", flag.ContinueOnError)
	out := fs.String("out", "herakles-testdata.json", "output file path")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return ExitCodeError{Code: 1}
	}

	data, err := json.MarshalIndent(testDataFile{Processes: sampleFleet}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "herakles: %v\n", err)
		return ExitCodeError{Code: 1}
	}
	fmt.Printf("wrote %s\n", *out)
	return nil
}
