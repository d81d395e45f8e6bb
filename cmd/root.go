// Package cmd implements the top-level CLI surface (§6): a thin
// flag-based subcommand dispatcher in the teacher's style (no cobra),
// plus the default long-running server mode.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/config"
	"github.com/ftahirops/herakles/ebpfmgr"
	"github.com/ftahirops/herakles/globalscan"
	"github.com/ftahirops/herakles/proc"
	"github.com/ftahirops/herakles/ring"
	"github.com/ftahirops/herakles/scan"
	"github.com/ftahirops/herakles/server"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// ExitCodeError signals a non-zero exit code without calling os.Exit
// directly, so main can translate it after any deferred cleanup.
type ExitCodeError struct{ Code int }

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit %d", e.Code) }

func printUsage() {
	fmt.Fprintf(os.Stderr, `herakles v%s — Linux host metrics exporter

Usage:
  herakles [OPTIONS]                 Start the HTTP exporter (default)
  herakles check                     Run one refresh cycle and report health, then exit
  herakles config                    Print the effective merged configuration
  herakles test                      Run one refresh against -testdata and print the snapshot
  herakles subgroups                 Print the classification table
  herakles generate-testdata         Write a synthetic dataset file for -testdata
  herakles install                   Write a systemd unit, default config, and sysctl override
  herakles uninstall                 Remove files written by install
  herakles check-requirements        Report eBPF/root/BTF availability

Options:
  -config PATH       Config file path (default: /etc/herakles/config.json)
  -bind ADDR         Override listen_addr
  -testdata PATH     Synthetic dataset file (see "generate-testdata")
  -ebpf=false        Disable the eBPF overlay regardless of config
  -enable-tls        Serve /metrics over HTTPS (requires -tls-cert and -tls-key)
  -tls-cert PATH     PEM certificate file (with -enable-tls)
  -tls-key PATH      PEM private key file (with -enable-tls)
  -version           Print version and exit

Exit codes: 0 success; 1 validation or permission failure; 2 unreachable subcommand branch.
`, Version)
}

type globalFlags struct {
	configPath string
	bind       string
	testdata   string
	ebpf       bool
	enableTLS  bool
	tlsCert    string
	tlsKey     string
	version    bool
}

func parseGlobalFlags(fs *flag.FlagSet, args []string) (globalFlags, error) {
	var g globalFlags
	fs.StringVar(&g.configPath, "config", "", "config file path")
	fs.StringVar(&g.bind, "bind", "", "override listen address")
	fs.StringVar(&g.testdata, "testdata", "", "synthetic dataset file")
	fs.BoolVar(&g.ebpf, "ebpf", true, "enable eBPF overlay")
	fs.BoolVar(&g.enableTLS, "enable-tls", false, "serve /metrics over HTTPS")
	fs.StringVar(&g.tlsCert, "tls-cert", "", "PEM certificate file")
	fs.StringVar(&g.tlsKey, "tls-key", "", "PEM private key file")
	fs.BoolVar(&g.version, "version", false, "print version and exit")
	fs.Usage = printUsage
	err := fs.Parse(args)
	return g, err
}

// loadEffectiveConfig merges the config file with CLI overrides; CLI flags
// win over the file, mirroring the original implementation's merge order.
func loadEffectiveConfig(g globalFlags) config.Config {
	cfg := config.Load(g.configPath)
	if g.bind != "" {
		cfg.ListenAddr = g.bind
	}
	if g.testdata != "" {
		cfg.TestDataFile = g.testdata
	}
	cfg.Ebpf.Enabled = cfg.Ebpf.Enabled && g.ebpf
	if g.enableTLS {
		cfg.TLS.Enabled = true
	}
	if g.tlsCert != "" {
		cfg.TLS.CertPath = g.tlsCert
	}
	if g.tlsKey != "" {
		cfg.TLS.KeyPath = g.tlsKey
	}
	return cfg
}

// estimateInitialSubgroupCount classifies every currently-visible process
// once, cheaply, so the ring capacity formula (§4.7) has a real N0 instead
// of an assumption. Used only at startup, before the scan engine exists.
func estimateInitialSubgroupCount(cfg config.Config, table *classify.Table) int {
	pids, err := proc.EnumeratePIDs(cfg.ProcRoot, 0)
	if err != nil {
		return 1
	}
	classifyCfg := cfg.ClassifyOptions()
	seen := make(map[string]struct{})
	for _, pid := range pids {
		name := proc.ReadComm(cfg.ProcRoot, pid)
		if name == "" {
			continue
		}
		gs := table.ClassifyWithConfig(name, classifyCfg)
		if gs == nil {
			continue
		}
		seen[gs.Key()] = struct{}{}
	}
	if len(seen) == 0 {
		return 1
	}
	return len(seen)
}

// Run parses arguments and dispatches to the selected subcommand, or
// starts the long-running server when none is given.
func Run() error {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "check":
			return runCheck(args[1:])
		case "config":
			return runConfig(args[1:])
		case "test":
			return runTest(args[1:])
		case "subgroups":
			return runSubgroups(args[1:])
		case "generate-testdata":
			return runGenerateTestdata(args[1:])
		case "install":
			return runInstall(args[1:])
		case "uninstall":
			return runUninstall(args[1:])
		case "check-requirements":
			return runCheckRequirements(args[1:])
		case "-h", "-help", "--help":
			printUsage()
			return nil
		}
	}
	return runServe(args)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("herakles", flag.ContinueOnError)
	g, err := parseGlobalFlags(fs, args)
	if err != nil {
		return ExitCodeError{Code: 1}
	}
	if g.version {
		fmt.Println(Version)
		return nil
	}

	cfg := loadEffectiveConfig(g)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "herakles: invalid configuration: %v\n", err)
		return ExitCodeError{Code: 1}
	}

	table, err := cfg.LoadClassifyTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "herakles: failed to load classification table: %v\n", err)
		return ExitCodeError{Code: 1}
	}

	n0 := estimateInitialSubgroupCount(cfg, table)
	rings := ring.NewIndex(cfg.RingCapacityFor(n0), float64(cfg.ScanIntervalSec))

	var ebpf *ebpfmgr.Manager
	if cfg.Ebpf.Enabled {
		ebpf = ebpfmgr.New()
		if err := ebpf.Attach(); err != nil {
			fmt.Fprintf(os.Stderr, "herakles: eBPF attach failed, continuing without it: %v\n", err)
		}
	}

	engine := scan.New(cfg.ScanOptions(), ebpf, table, cfg.ClassifyOptions(), rings)
	engine.Refresh()
	refreshGlobal(engine)

	go runScanLoop(engine, time.Duration(cfg.ScanIntervalSec)*time.Second)

	srv := server.New(cfg, engine, table, rings, ebpf)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if ebpf != nil {
			ebpf.Close()
		}
		return srv.Shutdown(ctx)
	}
}

// runScanLoop refreshes the engine on a fixed cadence independent of
// scrape-triggered refreshes, so ring history accumulates even without
// traffic to /metrics.
func runScanLoop(engine *scan.Engine, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		engine.Refresh()
		refreshGlobal(engine)
	}
}

// refreshGlobal populates the system-wide half of the snapshot. Per-source
// read failures are logged but never block the per-process half.
func refreshGlobal(engine *scan.Engine) {
	g, errs := globalscan.NewRegistry().Collect()
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "herakles: global metrics: %v\n", err)
	}
	engine.SetGlobal(g)
}

func runCheckRequirements(args []string) error {
	cap := ebpfmgr.Detect()
	fmt.Printf("btf_available: %v\n", cap.BTF)
	fmt.Printf("has_root: %v\n", cap.HasRoot)
	fmt.Printf("ebpf_available: %v\n", cap.Available)
	fmt.Printf("tracepoints: %v\n", cap.Tracepoints)
	if cap.Reason != "" {
		fmt.Printf("reason: %s\n", cap.Reason)
	}
	if !cap.Available {
		return ExitCodeError{Code: 1}
	}
	return nil
}

func runSubgroups(args []string) error {
	fs := flag.NewFlagSet("subgroups", flag.ContinueOnError)
	if _, err := parseGlobalFlags(fs, args); err != nil {
		return ExitCodeError{Code: 1}
	}
	for name, gs := range classify.BuiltinEntries() {
		fmt.Printf("%s\t%s\n", name, gs.Key())
	}
	return nil
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	g, err := parseGlobalFlags(fs, args)
	if err != nil {
		return ExitCodeError{Code: 1}
	}
	cfg := loadEffectiveConfig(g)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "herakles: invalid configuration: %v\n", err)
		return ExitCodeError{Code: 1}
	}
	return printConfigJSON(cfg)
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	g, err := parseGlobalFlags(fs, args)
	if err != nil {
		return ExitCodeError{Code: 1}
	}
	cfg := loadEffectiveConfig(g)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "herakles: invalid configuration: %v\n", err)
		return ExitCodeError{Code: 1}
	}

	table, err := cfg.LoadClassifyTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "herakles: %v\n", err)
		return ExitCodeError{Code: 1}
	}
	n0 := estimateInitialSubgroupCount(cfg, table)
	rings := ring.NewIndex(cfg.RingCapacityFor(n0), float64(cfg.ScanIntervalSec))
	engine := scan.New(cfg.ScanOptions(), nil, table, cfg.ClassifyOptions(), rings)
	engine.Refresh()

	snap := engine.Snapshot()
	if !snap.Success {
		fmt.Fprintln(os.Stderr, "herakles: check failed: refresh did not succeed")
		return ExitCodeError{Code: 1}
	}
	fmt.Printf("ok: %d processes observed\n", len(snap.Processes))
	return nil
}

func runTest(args []string) error {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	g, err := parseGlobalFlags(fs, args)
	if err != nil {
		return ExitCodeError{Code: 1}
	}
	if g.testdata == "" {
		fmt.Fprintln(os.Stderr, "herakles: test requires -testdata PATH")
		return ExitCodeError{Code: 1}
	}
	cfg := loadEffectiveConfig(g)
	table, err := cfg.LoadClassifyTable()
	if err != nil {
		return ExitCodeError{Code: 1}
	}
	n0 := estimateInitialSubgroupCount(cfg, table)
	rings := ring.NewIndex(cfg.RingCapacityFor(n0), float64(cfg.ScanIntervalSec))
	engine := scan.New(cfg.ScanOptions(), nil, table, cfg.ClassifyOptions(), rings)
	engine.Refresh()

	snap := engine.Snapshot()
	if !snap.Success {
		return ExitCodeError{Code: 1}
	}
	for pid, s := range snap.Processes {
		fmt.Printf("%d\t%s\trss=%d\tcpu%%=%.1f\n", pid, s.Name, s.RSS, s.CPUPercent)
	}
	return nil
}
