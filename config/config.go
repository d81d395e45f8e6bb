// Package config holds the on-disk, JSON-backed configuration for the
// exporter: bind address, scan tuning, classification filters, eBPF
// toggles, and buffer sizing. It follows the teacher's Default/Path/Load/Save
// shape, extended for herakles's own knobs.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/ring"
	"github.com/ftahirops/herakles/scan"
)

// Config is the full effective configuration for one exporter process.
type Config struct {
	ListenAddr string `json:"listen_addr"`

	ScanIntervalSec   int `json:"scan_interval_sec"`
	FreshnessWindowSec int `json:"freshness_window_sec"`
	WorkerCount       int `json:"worker_count"`
	MinUSSKb          uint64 `json:"min_uss_kb"`

	SmapsBufBytes       int `json:"smaps_buf_bytes"`
	SmapsRollupBufBytes int `json:"smaps_rollup_buf_bytes"`
	GenericBufBytes     int `json:"generic_buf_bytes"`

	RingCapacity      int `json:"ring_capacity"`
	HistoryWindowSec  int `json:"history_window_sec"`
	RingBudgetMB      int `json:"ring_budget_mb"`

	Classify ClassifyConfig `json:"classify"`
	Ebpf     EbpfConfig     `json:"ebpf"`
	TLS      TLSConfig      `json:"tls"`

	TestDataFile string `json:"test_data_file,omitempty"`

	ProcRoot string `json:"proc_root"`
}

// TLSConfig carries the optional HTTPS material. Validate enforces the
// fatal-startup-error contract: if Enabled is set, both paths must be
// present and readable before the server starts listening.
type TLSConfig struct {
	Enabled  bool   `json:"enabled"`
	CertPath string `json:"cert_path"`
	KeyPath  string `json:"key_path"`
}


// ClassifyConfig mirrors classify.Config plus the overlay file paths.
type ClassifyConfig struct {
	DisableOthers   bool     `json:"disable_others"`
	SearchMode      string   `json:"search_mode"`
	SearchGroups    []string `json:"search_groups"`
	SearchSubgroups []string `json:"search_subgroups"`
	OverlayPaths    []string `json:"overlay_paths"`
}

// EbpfConfig toggles the optional per-process network/block-IO overlay.
type EbpfConfig struct {
	Enabled bool `json:"enabled"`
}

// Default returns a Config with sensible defaults for a general-purpose host.
func Default() Config {
	return Config{
		ListenAddr:          "0.0.0.0:9215",
		ScanIntervalSec:     15,
		FreshnessWindowSec:  5,
		WorkerCount:         0, // 0 = runtime.NumCPU()
		MinUSSKb:            0,
		SmapsBufBytes:       512 * 1024,
		SmapsRollupBufBytes: 256 * 1024,
		GenericBufBytes:     256 * 1024,
		RingCapacity:        0, // 0 = derive from RingBudgetMB and the observed subgroup count (§4.7)
		RingBudgetMB:        ring.DefaultBudgetMB,
		HistoryWindowSec:    15,
		Classify: ClassifyConfig{
			OverlayPaths: []string{"/etc/herakles/subgroups.toml", "subgroups.toml"},
		},
		Ebpf:     EbpfConfig{Enabled: true},
		ProcRoot: "/proc",
	}
}

// Path returns /etc/herakles/config.json, overridable by HERAKLES_CONFIG.
func Path() string {
	if p := os.Getenv("HERAKLES_CONFIG"); p != "" {
		return p
	}
	return "/etc/herakles/config.json"
}

// Load loads the config from disk, falling back to Default on any error
// reading the file (a missing config is not a failure). A parse error in
// a file that does exist is logged and defaults are returned.
func Load(path string) Config {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("herakles: warning: config parse error in %s: %v", path, err)
		return Default()
	}
	return cfg
}

// Save writes cfg to path, creating parent directories as needed.
func Save(cfg Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first configuration error found, per §7's
// ConfigInvalid failure mode (exit status 1 at startup).
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.ScanIntervalSec <= 0 {
		return fmt.Errorf("scan_interval_sec must be positive")
	}
	if c.RingCapacity <= 0 && c.RingBudgetMB <= 0 {
		return fmt.Errorf("either ring_capacity or ring_budget_mb must be positive")
	}
	switch c.Classify.SearchMode {
	case "", "include", "exclude":
	default:
		return fmt.Errorf("classify.search_mode must be one of \"\", \"include\", \"exclude\", got %q", c.Classify.SearchMode)
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	return nil
}

// RingCapacityFor returns the configured ring capacity, or derives it from
// RingBudgetMB and n0 (the observed initial subgroup count) per spec.md
// §4.7's E = clamp(floor(budget_bytes / 256 / max(1, n0)), E_min, E_max).
func (c Config) RingCapacityFor(n0 int) int {
	if c.RingCapacity > 0 {
		return c.RingCapacity
	}
	budgetBytes := uint64(c.RingBudgetMB) * 1024 * 1024
	return ring.Capacity(budgetBytes, n0, ring.DefaultEMin, ring.DefaultEMax)
}

// Validate enforces the fatal TLS-material-missing startup error named in
// spec.md §7, mirroring the original implementation's exact check order
// and messages (see original_source/src/config.rs): both paths unset,
// only one set, or a configured file that doesn't exist are each
// reported distinctly rather than folded into one generic error.
func (c TLSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case c.CertPath == "" && c.KeyPath == "":
		return fmt.Errorf("TLS is enabled but neither tls_cert_path nor tls_key_path are set")
	case c.KeyPath == "":
		return fmt.Errorf("TLS is enabled but tls_key_path is not set")
	case c.CertPath == "":
		return fmt.Errorf("TLS is enabled but tls_cert_path is not set")
	}
	if _, err := os.Stat(c.CertPath); err != nil {
		return fmt.Errorf("TLS certificate file not found: %s", c.CertPath)
	}
	if _, err := os.Stat(c.KeyPath); err != nil {
		return fmt.Errorf("TLS private key file not found: %s", c.KeyPath)
	}
	return nil
}

// ScanOptions derives scan.Options from the effective config.
func (c Config) ScanOptions() scan.Options {
	o := scan.DefaultOptions()
	o.ProcRoot = c.ProcRoot
	o.FreshnessWindow = time.Duration(c.FreshnessWindowSec) * time.Second
	o.WorkerCount = c.WorkerCount
	o.MinUSSKb = c.MinUSSKb
	o.SmapsBufSize = c.SmapsBufBytes
	o.TestDataFile = c.TestDataFile
	return o
}

// ClassifyOptions derives classify.Config from the effective config.
func (c Config) ClassifyOptions() classify.Config {
	return classify.Config{
		DisableOthers:   c.Classify.DisableOthers,
		SearchMode:      c.Classify.SearchMode,
		SearchGroups:    c.Classify.SearchGroups,
		SearchSubgroups: c.Classify.SearchSubgroups,
	}
}

// LoadClassifyTable builds the classification table from the configured
// overlay paths, falling back to the built-in defaults if none are set.
func (c Config) LoadClassifyTable() (*classify.Table, error) {
	paths := c.Classify.OverlayPaths
	if len(paths) == 0 {
		return classify.Load()
	}
	return classify.LoadFrom(paths)
}
