// Package metrics implements the Prometheus exposition surface (C8): a
// custom prometheus.Collector that reads the scan engine's snapshot and
// aggregate output on every Collect call and emits one constant metric
// per series, following the reset-then-inc_by pattern for counters that
// mirror a cumulative kernel value.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ftahirops/herakles/aggregate"
	"github.com/ftahirops/herakles/ebpfmgr"
	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/proc"
	"github.com/ftahirops/herakles/scan"
)

// Collector adapts an Engine (and optional eBPF manager) into a
// prometheus.Collector. One Collector is registered once and serves every
// /metrics scrape.
type Collector struct {
	engine *scan.Engine
	ebpf   *ebpfmgr.Manager

	mu           sync.Mutex
	httpCounts   map[httpKey]uint64
	httpDurations map[string]float64
	labelCount   int
}

type httpKey struct {
	path   string
	status string
}

// New returns a Collector reading from engine and, if non-nil, ebpf.
func New(engine *scan.Engine, ebpf *ebpfmgr.Manager) *Collector {
	return &Collector{
		engine:        engine,
		ebpf:          ebpf,
		httpCounts:    make(map[httpKey]uint64),
		httpDurations: make(map[string]float64),
	}
}

// RecordRequest folds one HTTP request's outcome into the exporter's
// self-instrumentation counters; called by the server's middleware.
func (c *Collector) RecordRequest(path, status string, dur time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpCounts[httpKey{path: path, status: status}]++
	c.httpDurations[path] = float64(dur.Microseconds()) / 1000
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		cpuRatioDesc, loadAvgDesc, cpuCountDesc, psiCPUWaitDesc,
		memBytesDesc, memUsedRatioDesc, psiMemWaitDesc,
		diskReadBytesDesc, diskWriteBytesDesc, diskIOTimeDesc, diskQueueDepthDesc, psiIOWaitDesc,
		netRxBytesDesc, netTxBytesDesc, netRxErrDesc, netTxErrDesc, netDropsDesc,
		fsAvailDesc, fsSizeDesc, fsFilesDesc, fsFilesFreeDesc,
		tcpConnDesc,
		cpuTempDesc, uptimeDesc, bootTimeDesc, unameInfoDesc,
		ctxSwitchesDesc, forksDesc, openFDsDesc, entropyDesc,
		groupCPURatioDesc, groupCPUSecsDesc, groupRSSDesc, groupPSSDesc, groupSwapDesc,
		groupBlkReadDesc, groupBlkWriteDesc, groupBlkReadOpDesc, groupBlkWriteOpDesc,
		groupNetRxDesc, groupNetTxDesc, groupMemberCountDesc,
		ebpfEventsDesc, ebpfDroppedDesc, ebpfCPUSecsDesc, ebpfMapsCountDesc, ebpfFillRatioDesc,
		selfRSSDesc, selfCPUDesc,
		httpRequestsDesc, httpDurationDesc, labelCardinalityDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector. Per §4.8: triggers no refresh
// itself (the server's handler does, subject to throttling) — Collect
// only reads whatever snapshot is currently published.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	count := 0
	emit := func(m prometheus.Metric) {
		ch <- m
		count++
	}

	snap := c.engine.Snapshot()
	c.collectGlobal(emit, snap.Global)
	c.collectGroups(emit, c.engine.LastAggregate())
	c.collectEbpf(emit)
	c.collectSelf(emit)
	c.collectHTTP(emit)

	emit(prometheus.MustNewConstMetric(labelCardinalityDesc, prometheus.GaugeValue, float64(count)))
}

func (c *Collector) collectGlobal(emit func(prometheus.Metric), g model.GlobalMetrics) {
	total := g.CPU.Total.Total()
	if total > 0 {
		emit(prometheus.MustNewConstMetric(cpuRatioDesc, prometheus.GaugeValue, float64(g.CPU.Total.Active())/float64(total), "active"))
		emit(prometheus.MustNewConstMetric(cpuRatioDesc, prometheus.GaugeValue, float64(g.CPU.Total.IOWait)/float64(total), "iowait"))
	}
	emit(prometheus.MustNewConstMetric(cpuCountDesc, prometheus.GaugeValue, float64(g.CPU.NumCPUs)))
	emit(prometheus.MustNewConstMetric(loadAvgDesc, prometheus.GaugeValue, g.CPU.LoadAvg.Load1, "1m"))
	emit(prometheus.MustNewConstMetric(loadAvgDesc, prometheus.GaugeValue, g.CPU.LoadAvg.Load5, "5m"))
	emit(prometheus.MustNewConstMetric(loadAvgDesc, prometheus.GaugeValue, g.CPU.LoadAvg.Load15, "15m"))
	emit(prometheus.MustNewConstMetric(psiCPUWaitDesc, prometheus.CounterValue, proc.PSITotalSeconds(g.PSI.CPU.Some), "some"))

	if g.Memory.Total > 0 {
		used := g.Memory.Total - g.Memory.Available
		emit(prometheus.MustNewConstMetric(memUsedRatioDesc, prometheus.GaugeValue, float64(used)/float64(g.Memory.Total)))
	}
	emit(prometheus.MustNewConstMetric(memBytesDesc, prometheus.GaugeValue, float64(g.Memory.Total), "total"))
	emit(prometheus.MustNewConstMetric(memBytesDesc, prometheus.GaugeValue, float64(g.Memory.Available), "available"))
	emit(prometheus.MustNewConstMetric(memBytesDesc, prometheus.GaugeValue, float64(g.Memory.Cached), "cached"))
	emit(prometheus.MustNewConstMetric(memBytesDesc, prometheus.GaugeValue, float64(g.Memory.SwapUsed), "swap_used"))
	emit(prometheus.MustNewConstMetric(psiMemWaitDesc, prometheus.CounterValue, proc.PSITotalSeconds(g.PSI.Memory.Some), "some"))

	for _, d := range g.Disks {
		emit(prometheus.MustNewConstMetric(diskReadBytesDesc, prometheus.CounterValue, float64(d.SectorsRead)*512, d.Name))
		emit(prometheus.MustNewConstMetric(diskWriteBytesDesc, prometheus.CounterValue, float64(d.SectorsWritten)*512, d.Name))
		emit(prometheus.MustNewConstMetric(diskIOTimeDesc, prometheus.CounterValue, float64(d.IOTimeMs)/1000, d.Name))
		emit(prometheus.MustNewConstMetric(diskQueueDepthDesc, prometheus.GaugeValue, float64(d.IOsInProgress), d.Name))
	}
	emit(prometheus.MustNewConstMetric(psiIOWaitDesc, prometheus.CounterValue, proc.PSITotalSeconds(g.PSI.IO.Some), "some"))

	for _, n := range g.Network {
		emit(prometheus.MustNewConstMetric(netRxBytesDesc, prometheus.CounterValue, float64(n.RxBytes), n.Name))
		emit(prometheus.MustNewConstMetric(netTxBytesDesc, prometheus.CounterValue, float64(n.TxBytes), n.Name))
		emit(prometheus.MustNewConstMetric(netRxErrDesc, prometheus.CounterValue, float64(n.RxErrors), n.Name))
		emit(prometheus.MustNewConstMetric(netTxErrDesc, prometheus.CounterValue, float64(n.TxErrors), n.Name))
		emit(prometheus.MustNewConstMetric(netDropsDesc, prometheus.CounterValue, float64(n.RxDrops), n.Name, "rx"))
		emit(prometheus.MustNewConstMetric(netDropsDesc, prometheus.CounterValue, float64(n.TxDrops), n.Name, "tx"))
	}

	for _, m := range g.Mounts {
		emit(prometheus.MustNewConstMetric(fsAvailDesc, prometheus.GaugeValue, float64(m.AvailBytes), m.Device, m.MountPoint, m.FSType))
		emit(prometheus.MustNewConstMetric(fsSizeDesc, prometheus.GaugeValue, float64(m.SizeBytes), m.Device, m.MountPoint, m.FSType))
		emit(prometheus.MustNewConstMetric(fsFilesDesc, prometheus.GaugeValue, float64(m.Files), m.Device, m.MountPoint, m.FSType))
		emit(prometheus.MustNewConstMetric(fsFilesFreeDesc, prometheus.GaugeValue, float64(m.FilesFree), m.Device, m.MountPoint, m.FSType))
	}

	for state, v := range map[string]int{
		"established": g.TCPStates.Established, "syn_sent": g.TCPStates.SynSent,
		"syn_recv": g.TCPStates.SynRecv, "fin_wait1": g.TCPStates.FinWait1,
		"fin_wait2": g.TCPStates.FinWait2, "time_wait": g.TCPStates.TimeWait,
		"close": g.TCPStates.Close, "close_wait": g.TCPStates.CloseWait,
		"last_ack": g.TCPStates.LastAck, "listen": g.TCPStates.Listen,
		"closing": g.TCPStates.Closing,
	} {
		emit(prometheus.MustNewConstMetric(tcpConnDesc, prometheus.GaugeValue, float64(v), state))
	}

	for _, t := range g.Thermal {
		emit(prometheus.MustNewConstMetric(cpuTempDesc, prometheus.GaugeValue, t.Celsius, t.Sensor))
	}
	emit(prometheus.MustNewConstMetric(uptimeDesc, prometheus.GaugeValue, g.Kernel.UptimeSeconds))
	emit(prometheus.MustNewConstMetric(bootTimeDesc, prometheus.GaugeValue, float64(g.Kernel.BootTimeUnix)))
	emit(prometheus.MustNewConstMetric(unameInfoDesc, prometheus.GaugeValue, 1, g.Uname.Sysname, g.Uname.Release, g.Uname.Version, g.Uname.Machine))

	emit(prometheus.MustNewConstMetric(ctxSwitchesDesc, prometheus.CounterValue, float64(g.Kernel.ContextSwitches)))
	emit(prometheus.MustNewConstMetric(forksDesc, prometheus.CounterValue, float64(g.Kernel.Forks)))
	emit(prometheus.MustNewConstMetric(openFDsDesc, prometheus.GaugeValue, float64(g.FD.Allocated), "allocated"))
	emit(prometheus.MustNewConstMetric(openFDsDesc, prometheus.GaugeValue, float64(g.FD.Max), "max"))
	emit(prometheus.MustNewConstMetric(entropyDesc, prometheus.GaugeValue, float64(g.Kernel.EntropyBits)))
}

func (c *Collector) collectGroups(emit func(prometheus.Metric), res aggregate.Result) {
	for _, a := range res.Subgroups {
		emit(prometheus.MustNewConstMetric(groupCPURatioDesc, prometheus.GaugeValue, a.CPUPercentSum/100, a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupCPUSecsDesc, prometheus.CounterValue, a.CPUUserSecondsSum, a.Group, a.Subgroup, "user"))
		emit(prometheus.MustNewConstMetric(groupCPUSecsDesc, prometheus.CounterValue, a.CPUSystemSecondsSum, a.Group, a.Subgroup, "system"))
		emit(prometheus.MustNewConstMetric(groupRSSDesc, prometheus.GaugeValue, float64(a.RSSSum), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupPSSDesc, prometheus.GaugeValue, float64(a.PSSSum), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupSwapDesc, prometheus.GaugeValue, float64(a.SwapSum), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupBlkReadDesc, prometheus.CounterValue, float64(a.IOReadBytes), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupBlkWriteDesc, prometheus.CounterValue, float64(a.IOWriteBytes), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupBlkReadOpDesc, prometheus.CounterValue, float64(a.IOReadOps), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupBlkWriteOpDesc, prometheus.CounterValue, float64(a.IOWriteOps), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupNetRxDesc, prometheus.CounterValue, float64(a.NetRxBytes), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupNetTxDesc, prometheus.CounterValue, float64(a.NetTxBytes), a.Group, a.Subgroup))
		emit(prometheus.MustNewConstMetric(groupMemberCountDesc, prometheus.GaugeValue, float64(a.MemberCount), a.Group, a.Subgroup))
		for proto, count := range a.ConnCounts {
			emit(prometheus.MustNewConstMetric(groupConnDesc, prometheus.GaugeValue, float64(count), a.Group, a.Subgroup, proto))
		}
	}
}

func (c *Collector) collectEbpf(emit func(prometheus.Metric)) {
	if c.ebpf == nil {
		return
	}
	net := c.ebpf.ReadNetStats("/proc")
	blkio := c.ebpf.ReadBlkioStats("/proc")
	mapsCount := 0
	if c.ebpf.State() == ebpfmgr.Enabled {
		mapsCount = 3
	}
	emit(prometheus.MustNewConstMetric(ebpfEventsDesc, prometheus.CounterValue, float64(len(net)+len(blkio))))
	emit(prometheus.MustNewConstMetric(ebpfDroppedDesc, prometheus.CounterValue, 0))
	emit(prometheus.MustNewConstMetric(ebpfCPUSecsDesc, prometheus.CounterValue, c.ebpf.CPUSeconds()))
	emit(prometheus.MustNewConstMetric(ebpfMapsCountDesc, prometheus.GaugeValue, float64(mapsCount)))
	emit(prometheus.MustNewConstMetric(ebpfFillRatioDesc, prometheus.GaugeValue, c.ebpf.MapFillRatio()))
}

func (c *Collector) collectSelf(emit func(prometheus.Metric)) {
	rss, cpuPct := c.engine.SelfStats()
	emit(prometheus.MustNewConstMetric(selfRSSDesc, prometheus.GaugeValue, float64(rss)))
	emit(prometheus.MustNewConstMetric(selfCPUDesc, prometheus.GaugeValue, cpuPct/100))
}

func (c *Collector) collectHTTP(emit func(prometheus.Metric)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.httpCounts {
		emit(prometheus.MustNewConstMetric(httpRequestsDesc, prometheus.CounterValue, float64(v), k.path, k.status))
	}
	for path, ms := range c.httpDurations {
		emit(prometheus.MustNewConstMetric(httpDurationDesc, prometheus.GaugeValue, ms, path))
	}
}
