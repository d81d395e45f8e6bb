package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/ftahirops/herakles/config"
)

const (
	unitPath    = "/etc/systemd/system/herakles.service"
	sysctlPath  = "/etc/sysctl.d/99-herakles.conf"
	defaultConfigPath = "/etc/herakles/config.json"
)

const unitTemplate = `[Unit]
Description=herakles host metrics exporter
After=network.target

[Service]
Type=simple
ExecStart=/usr/local/bin/herakles -config ` + defaultConfigPath + `
Restart=on-failure
User=root

[Install]
WantedBy=multi-user.target
`

// sysctl override per §6: disables unprivileged BPF and sets
// perf_event_paranoid to 2, restricting both to privileged users.
const sysctlTemplate = `kernel.unprivileged_bpf_disabled=1
kernel.perf_event_paranoid=2
`

func runInstall(args []string) error {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return ExitCodeError{Code: 1}
	}

	if err := os.WriteFile(unitPath, []byte(unitTemplate), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "herakles: write unit file: %v\n", err)
		return ExitCodeError{Code: 1}
	}
	if err := os.MkdirAll("/etc/herakles", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "herakles: create config dir: %v\n", err)
		return ExitCodeError{Code: 1}
	}
	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		if saveErr := config.Save(config.Default(), defaultConfigPath); saveErr != nil {
			fmt.Fprintf(os.Stderr, "herakles: write default config: %v\n", saveErr)
			return ExitCodeError{Code: 1}
		}
	}
	if err := os.WriteFile(sysctlPath, []byte(sysctlTemplate), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "herakles: write sysctl override: %v\n", err)
		return ExitCodeError{Code: 1}
	}
	if err := os.MkdirAll("/sys/fs/bpf/herakles/node", 0o755); err != nil {
		// best effort: bpffs mount may not exist; pinning is optional
		fmt.Fprintf(os.Stderr, "herakles: warning: could not create bpf pin directory: %v\n", err)
	}

	fmt.Println("installed unit, default config, and sysctl override; run `systemctl daemon-reload && sysctl --system` to apply")
	return nil
}

func runUninstall(args []string) error {
	fs := flag.NewFlagSet("uninstall", flag.ContinueOnError)
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return ExitCodeError{Code: 1}
	}

	var failed bool
	for _, path := range []string{unitPath, defaultConfigPath, sysctlPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "herakles: remove %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		return ExitCodeError{Code: 1}
	}
	fmt.Println("removed unit, default config, and sysctl override (bpf pin directory left in place)")
	return nil
}
