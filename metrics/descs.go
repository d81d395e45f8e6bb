package metrics

import "github.com/prometheus/client_golang/prometheus"

const ns = "herakles"

var (
	cpuRatioDesc = prometheus.NewDesc(ns+"_cpu_usage_ratio", "System-wide CPU active ratio, 0..1", []string{"mode"}, nil)
	loadAvgDesc  = prometheus.NewDesc(ns+"_load_average", "System load average", []string{"period"}, nil)
	cpuCountDesc = prometheus.NewDesc(ns+"_cpu_count", "Number of logical CPUs", nil, nil)
	psiCPUWaitDesc = prometheus.NewDesc(ns+"_psi_cpu_wait_seconds_total", "Cumulative PSI CPU pressure wait time", []string{"kind"}, nil)

	memBytesDesc     = prometheus.NewDesc(ns+"_memory_bytes", "Memory usage by type", []string{"type"}, nil)
	memUsedRatioDesc = prometheus.NewDesc(ns+"_memory_used_ratio", "Fraction of total memory in use", nil, nil)
	psiMemWaitDesc   = prometheus.NewDesc(ns+"_psi_memory_wait_seconds_total", "Cumulative PSI memory pressure wait time", []string{"kind"}, nil)

	diskReadBytesDesc  = prometheus.NewDesc(ns+"_disk_read_bytes_total", "Bytes read per device", []string{"device"}, nil)
	diskWriteBytesDesc = prometheus.NewDesc(ns+"_disk_write_bytes_total", "Bytes written per device", []string{"device"}, nil)
	diskIOTimeDesc     = prometheus.NewDesc(ns+"_disk_io_time_seconds_total", "Cumulative IO busy time per device", []string{"device"}, nil)
	diskQueueDepthDesc = prometheus.NewDesc(ns+"_disk_queue_depth", "In-flight IO operations per device", []string{"device"}, nil)
	psiIOWaitDesc      = prometheus.NewDesc(ns+"_psi_io_wait_seconds_total", "Cumulative PSI IO pressure wait time", []string{"kind"}, nil)

	netRxBytesDesc = prometheus.NewDesc(ns+"_net_rx_bytes_total", "Bytes received per interface", []string{"iface"}, nil)
	netTxBytesDesc = prometheus.NewDesc(ns+"_net_tx_bytes_total", "Bytes transmitted per interface", []string{"iface"}, nil)
	netRxErrDesc   = prometheus.NewDesc(ns+"_net_rx_errors_total", "Receive errors per interface", []string{"iface"}, nil)
	netTxErrDesc   = prometheus.NewDesc(ns+"_net_tx_errors_total", "Transmit errors per interface", []string{"iface"}, nil)
	netDropsDesc   = prometheus.NewDesc(ns+"_net_drops_total", "Dropped packets per interface", []string{"iface", "direction"}, nil)

	fsAvailDesc     = prometheus.NewDesc(ns+"_filesystem_avail_bytes", "Available bytes per mount", []string{"device", "mountpoint", "fstype"}, nil)
	fsSizeDesc      = prometheus.NewDesc(ns+"_filesystem_size_bytes", "Total bytes per mount", []string{"device", "mountpoint", "fstype"}, nil)
	fsFilesDesc     = prometheus.NewDesc(ns+"_filesystem_files", "Total inodes per mount", []string{"device", "mountpoint", "fstype"}, nil)
	fsFilesFreeDesc = prometheus.NewDesc(ns+"_filesystem_files_free", "Free inodes per mount", []string{"device", "mountpoint", "fstype"}, nil)

	tcpConnDesc = prometheus.NewDesc(ns+"_tcp_connections", "TCP connections per state", []string{"state"}, nil)

	cpuTempDesc    = prometheus.NewDesc(ns+"_cpu_temp_celsius", "Sensor temperature reading", []string{"sensor"}, nil)
	uptimeDesc     = prometheus.NewDesc(ns+"_uptime_seconds", "System uptime in seconds", nil, nil)
	bootTimeDesc   = prometheus.NewDesc(ns+"_boot_time_seconds", "Unix time of system boot", nil, nil)
	unameInfoDesc  = prometheus.NewDesc(ns+"_uname_info", "Kernel identity, value is always 1", []string{"sysname", "release", "version", "machine"}, nil)

	ctxSwitchesDesc = prometheus.NewDesc(ns+"_context_switches_total", "Cumulative context switches", nil, nil)
	forksDesc       = prometheus.NewDesc(ns+"_forks_total", "Cumulative process forks", nil, nil)
	openFDsDesc     = prometheus.NewDesc(ns+"_open_fds", "File descriptor usage", []string{"state"}, nil)
	entropyDesc     = prometheus.NewDesc(ns+"_entropy_bits", "Available entropy pool bits", nil, nil)

	groupCPURatioDesc  = prometheus.NewDesc(ns+"_group_cpu_usage_ratio", "Summed CPU percent (as a ratio) across group members", []string{"group", "subgroup"}, nil)
	groupCPUSecsDesc   = prometheus.NewDesc(ns+"_group_cpu_seconds_total", "Summed cumulative CPU seconds across group members", []string{"group", "subgroup", "mode"}, nil)
	groupRSSDesc       = prometheus.NewDesc(ns+"_group_memory_rss_bytes", "Summed RSS across group members", []string{"group", "subgroup"}, nil)
	groupPSSDesc       = prometheus.NewDesc(ns+"_group_memory_pss_bytes", "Summed PSS across group members", []string{"group", "subgroup"}, nil)
	groupSwapDesc      = prometheus.NewDesc(ns+"_group_memory_swap_bytes", "Summed swap across group members", []string{"group", "subgroup"}, nil)
	groupBlkReadDesc   = prometheus.NewDesc(ns+"_group_blkio_read_bytes_total", "Summed block bytes read across group members", []string{"group", "subgroup"}, nil)
	groupBlkWriteDesc  = prometheus.NewDesc(ns+"_group_blkio_write_bytes_total", "Summed block bytes written across group members", []string{"group", "subgroup"}, nil)
	groupBlkReadOpDesc = prometheus.NewDesc(ns+"_group_blkio_read_syscalls_total", "Summed block read syscalls across group members", []string{"group", "subgroup"}, nil)
	groupBlkWriteOpDesc = prometheus.NewDesc(ns+"_group_blkio_write_syscalls_total", "Summed block write syscalls across group members", []string{"group", "subgroup"}, nil)
	groupNetRxDesc     = prometheus.NewDesc(ns+"_group_net_rx_bytes_total", "Summed eBPF-sourced network bytes received across group members", []string{"group", "subgroup"}, nil)
	groupNetTxDesc     = prometheus.NewDesc(ns+"_group_net_tx_bytes_total", "Summed eBPF-sourced network bytes transmitted across group members", []string{"group", "subgroup"}, nil)
	groupMemberCountDesc = prometheus.NewDesc(ns+"_group_member_count", "Number of processes classified into this group", []string{"group", "subgroup"}, nil)
	groupConnDesc        = prometheus.NewDesc(ns+"_group_net_connections_total", "Live socket count across group members", []string{"group", "subgroup", "proto"}, nil)

	ebpfEventsDesc    = prometheus.NewDesc(ns+"_ebpf_events_processed_total", "eBPF map entries observed across all reads", nil, nil)
	ebpfDroppedDesc   = prometheus.NewDesc(ns+"_ebpf_events_dropped_total", "eBPF perf-buffer events lost", nil, nil)
	ebpfCPUSecsDesc   = prometheus.NewDesc(ns+"_ebpf_cpu_seconds_total", "Self-accounted CPU time spent reading eBPF maps", nil, nil)
	ebpfMapsCountDesc = prometheus.NewDesc(ns+"_ebpf_maps_count", "Number of eBPF maps currently attached", nil, nil)
	ebpfFillRatioDesc = prometheus.NewDesc(ns+"_ebpf_map_fill_ratio", "Mean fraction of capacity in use across the per-PID and TCP-state maps", nil, nil)

	selfRSSDesc = prometheus.NewDesc(ns+"_exporter_resident_memory_bytes", "Resident memory of the exporter process itself", nil, nil)
	selfCPUDesc = prometheus.NewDesc(ns+"_exporter_cpu_usage_ratio", "CPU usage ratio of the exporter process itself", nil, nil)

	httpRequestsDesc = prometheus.NewDesc(ns+"_http_requests_total", "HTTP requests served", []string{"path", "status"}, nil)
	httpDurationDesc = prometheus.NewDesc(ns+"_request_duration_ms", "HTTP request duration in milliseconds", []string{"path"}, nil)

	labelCardinalityDesc = prometheus.NewDesc(ns+"_label_cardinality", "Number of distinct label sets encoded on the last scrape", nil, nil)
)
