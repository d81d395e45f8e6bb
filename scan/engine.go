// Package scan implements the single-flight refresh engine (C5): it
// enumerates PIDs, parses each one's CPU/memory/IO state in parallel,
// merges against the previous snapshot for rate baselines, overlays
// optional eBPF counters, and publishes a new model.Snapshot.
package scan

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ftahirops/herakles/aggregate"
	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/cpucache"
	"github.com/ftahirops/herakles/ebpfmgr"
	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/proc"
	"github.com/ftahirops/herakles/ring"
	"github.com/ftahirops/herakles/util"
)

// Engine owns the published snapshot and the machinery to refresh it.
// Exactly one refresh runs at a time (the single-flight contract):
// refreshMu serialises refresh bodies, the atomic refreshing flag keeps
// scrapes from queueing extra background refreshes, and mu guards only
// the snapshot pointer swap and the published counters.
type Engine struct {
	opts Options

	cpu  *cpucache.Cache
	ebpf *ebpfmgr.Manager

	table      *classify.Table
	classifyCfg classify.Config
	rings      *ring.Index

	mu        sync.RWMutex
	snapshot  *model.Snapshot
	refreshing int32 // atomic bool
	refreshMu  sync.Mutex

	lastAgg aggregate.Result

	health model.HealthCounters
	buffers model.BufferUsage

	selfPID int
}

// New returns an Engine with an empty initial snapshot.
func New(opts Options, ebpf *ebpfmgr.Manager, table *classify.Table, classifyCfg classify.Config, rings *ring.Index) *Engine {
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = 5 * time.Second
	}
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = runtime.NumCPU()
	}
	if opts.ProcRoot == "" {
		opts.ProcRoot = "/proc"
	}
	if opts.SmapsBufSize <= 0 {
		opts.SmapsBufSize = 4096
	}
	return &Engine{
		opts:        opts,
		cpu:         cpucache.New(),
		ebpf:        ebpf,
		table:       table,
		classifyCfg: classifyCfg,
		rings:       rings,
		snapshot:    &model.Snapshot{Processes: map[int]model.ProcessSample{}},
		selfPID:     selfPID(),
	}
}

// Snapshot returns the current published snapshot (read-only view). The
// caller must not mutate the returned value's Processes map.
func (e *Engine) Snapshot() *model.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Health returns a copy of the current health counters.
func (e *Engine) Health() model.HealthCounters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.health
}

// Buffers returns a copy of the current buffer high-water marks.
func (e *Engine) Buffers() model.BufferUsage {
	return model.BufferUsage{
		GenericHighWater:     atomic.LoadUint64(&e.buffers.GenericHighWater),
		SmapsHighWater:       atomic.LoadUint64(&e.buffers.SmapsHighWater),
		SmapsRollupHighWater: atomic.LoadUint64(&e.buffers.SmapsRollupHighWater),
	}
}

// MaybeRefresh implements the scrape-time trigger: if the snapshot is
// older than the freshness window and no refresh is in flight, it starts
// one in the background and returns immediately without waiting.
func (e *Engine) MaybeRefresh() {
	e.mu.RLock()
	stale := time.Since(e.snapshot.RefreshStart) > e.opts.FreshnessWindow
	e.mu.RUnlock()
	if !stale {
		return
	}
	if !atomic.CompareAndSwapInt32(&e.refreshing, 0, 1) {
		return // a refresh is already in flight
	}
	go func() {
		defer atomic.StoreInt32(&e.refreshing, 0)
		e.Refresh()
	}()
}

// Refresh runs one full synchronous refresh cycle (§4.5 algorithm). It is
// safe to call directly (e.g. from the `check` CLI subcommand) as well as
// from the background goroutine MaybeRefresh spawns.
func (e *Engine) Refresh() {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()
	start := time.Now()

	e.mu.Lock()
	prev := e.snapshot
	e.snapshot = &model.Snapshot{
		Processes:    prev.Processes,
		RefreshStart: start,
		InFlight:     true,
		Success:      false,
		Global:       prev.Global,
	}
	e.mu.Unlock()

	if e.opts.TestDataFile != "" {
		samples, err := loadTestDataSamples(e.opts.TestDataFile, start)
		if err != nil {
			e.finish(start, map[int]model.ProcessSample{}, false)
			return
		}
		e.finish(start, samples, true)
		return
	}

	prevByPID := prev.Clone().Processes

	pids, err := proc.EnumeratePIDs(e.opts.ProcRoot, 0)
	if err != nil {
		e.finish(start, map[int]model.ProcessSample{}, false)
		return
	}

	samples := e.parseAll(pids, prevByPID, start)

	if e.ebpf != nil && e.ebpf.State() == ebpfmgr.Enabled {
		e.overlayEbpf(samples, start)
	}

	e.finish(start, samples, true)
}

func (e *Engine) parseAll(pids []int, prevByPID map[int]model.ProcessSample, refreshAt time.Time) map[int]model.ProcessSample {
	results := make(chan model.ProcessSample, len(pids))
	var wg sync.WaitGroup

	jobs := make(chan int, len(pids))
	for _, pid := range pids {
		jobs <- pid
	}
	close(jobs)

	workers := e.opts.WorkerCount
	if workers > len(pids)+1 {
		workers = len(pids) + 1
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pid := range jobs {
				if s, ok := e.parseOne(pid, prevByPID, refreshAt); ok {
					results <- s
				}
			}
		}()
	}
	wg.Wait()
	close(results)

	out := make(map[int]model.ProcessSample, len(pids))
	for s := range results {
		out[s.PID] = s
	}
	return out
}

// parseOne implements one worker's per-PID work per §4.5 step 4.
func (e *Engine) parseOne(pid int, prevByPID map[int]model.ProcessSample, refreshAt time.Time) (model.ProcessSample, bool) {
	name := proc.ReadComm(e.opts.ProcRoot, pid)
	if name == "" {
		atomic.AddUint64(&e.health.ProcReadErrors, 1)
		return model.ProcessSample{}, false
	}
	if !e.opts.included(name) {
		return model.ProcessSample{}, false
	}

	stat, err := proc.ReadStat(e.opts.ProcRoot, pid)
	if err != nil {
		e.countErr(err)
		return model.ProcessSample{}, false
	}

	cpuPercent := e.cpu.Update(pid, stat.CPUTimeSeconds(), refreshAt)

	mem, err := proc.ReadMemory(e.opts.ProcRoot, pid, e.opts.SmapsBufSize)
	if err != nil {
		e.countErr(err)
		return model.ProcessSample{}, false
	}
	util.CASMaxUint64(&e.buffers.SmapsHighWater, uint64(mem.BytesRead))

	if mem.USSBytes < e.opts.MinUSSKb*1024 {
		return model.ProcessSample{}, false // B1
	}

	swap, _ := proc.ReadSwap(e.opts.ProcRoot, pid)
	blkio, _ := proc.ReadBlockIO(e.opts.ProcRoot, pid)

	s := model.ProcessSample{
		PID:            pid,
		Name:           name,
		RSS:            mem.RSSBytes,
		PSS:            mem.PSSBytes,
		USS:            mem.USSBytes,
		Swap:           swap,
		CPUPercent:       float32(cpuPercent),
		CPUTimeSeconds:   stat.CPUTimeSeconds(),
		CPUUserSeconds:   stat.UserSeconds(),
		CPUSystemSeconds: stat.SystemSeconds(),
		StartTimeSecs:    stat.StartTimeSeconds(),
		ReadBytes:      blkio.ReadBytes,
		WriteBytes:     blkio.WriteBytes,
		SampleTime:     refreshAt,
	}

	if prevSample, ok := prevByPID[pid]; ok {
		s.LastReadBytes = prevSample.ReadBytes
		s.LastWriteBytes = prevSample.WriteBytes
		s.LastRxBytes = prevSample.RxBytes
		s.LastTxBytes = prevSample.TxBytes
		s.LastUpdateTime = prevSample.LastUpdateTime
	} else {
		// B2: first sighting seeds baselines with current cumulative
		// values so the first reported rate is zero.
		s.LastReadBytes = s.ReadBytes
		s.LastWriteBytes = s.WriteBytes
		s.LastRxBytes = s.RxBytes
		s.LastTxBytes = s.TxBytes
		s.LastUpdateTime = refreshAt
	}

	return s, true
}

func (e *Engine) countErr(err error) {
	switch proc.KindOf(err) {
	case proc.ErrorKindPermission:
		atomic.AddUint64(&e.health.PermissionDenied, 1)
	case proc.ErrorKindParse:
		atomic.AddUint64(&e.health.ParsingErrors, 1)
	default:
		atomic.AddUint64(&e.health.ProcReadErrors, 1)
	}
}

// overlayEbpf folds per-PID network/block-IO counters into matching
// samples and advances last_update_time for every sample that existed in
// the previous snapshot, even when eBPF supplied no new data for it.
func (e *Engine) overlayEbpf(samples map[int]model.ProcessSample, now time.Time) {
	net := e.ebpf.ReadNetStats(e.opts.ProcRoot)
	for _, n := range net {
		if s, ok := samples[int(n.PID)]; ok {
			s.RxBytes = n.RxBytes
			s.TxBytes = n.TxBytes
			s.LastUpdateTime = now
			samples[int(n.PID)] = s
		}
	}
	blkio := e.ebpf.ReadBlkioStats(e.opts.ProcRoot)
	for _, b := range blkio {
		if s, ok := samples[int(b.PID)]; ok {
			s.ReadBytes = b.ReadBytes
			s.WriteBytes = b.WriteBytes
			s.LastUpdateTime = now
			samples[int(b.PID)] = s
		}
	}
	// First-sighting samples already carry now; this advances the rest.
	for pid, s := range samples {
		if s.LastUpdateTime.Before(now) {
			s.LastUpdateTime = now
			samples[pid] = s
		}
	}
}

func (e *Engine) finish(start time.Time, samples map[int]model.ProcessSample, success bool) {
	dur := time.Since(start)

	e.mu.Lock()
	e.snapshot = &model.Snapshot{
		Processes:       samples,
		RefreshStart:    start,
		RefreshDuration: dur,
		Success:         success,
		InFlight:        false,
		Global:          e.snapshot.Global,
	}
	e.health.RefreshCount++
	if !success {
		e.health.RefreshErrorCount++
	}
	e.health.RefreshDurationStat.Observe(dur)
	e.health.RefreshSizeStat.Observe(uint64(len(samples)))
	e.health.LastRefreshAt = start
	snap := e.snapshot
	e.mu.Unlock()

	if success && e.table != nil {
		e.aggregateAndRecord(snap, start)
	}
}

// aggregateAndRecord runs the aggregator (C6) over the fresh snapshot and
// pushes one RingRecord per subgroup into the history index (C7), per
// §4.5 step 7.
func (e *Engine) aggregateAndRecord(snap *model.Snapshot, at time.Time) {
	res := aggregate.Aggregate(snap, e.table, e.classifyCfg)

	if e.ebpf != nil && e.ebpf.State() == ebpfmgr.Enabled {
		rows := e.ebpfRows(snap)
		aggregate.OverlayEbpf(res, e.table, e.classifyCfg, rows)
	}

	if connRows := e.connRows(); len(connRows) > 0 {
		aggregate.OverlayConnections(res, e.table, e.classifyCfg, connRows)
	}

	if e.rings != nil {
		for key, agg := range res.Subgroups {
			e.rings.Record(key, aggregate.BuildRingRecord(agg, at))
		}
	}

	e.mu.Lock()
	e.lastAgg = res
	e.mu.Unlock()
}

func (e *Engine) ebpfRows(snap *model.Snapshot) []aggregate.EbpfRow {
	net := e.ebpf.ReadNetStats(e.opts.ProcRoot)
	blkio := e.ebpf.ReadBlkioStats(e.opts.ProcRoot)

	byPID := make(map[int]*aggregate.EbpfRow, len(net)+len(blkio))
	get := func(pid uint32, comm string) *aggregate.EbpfRow {
		r, ok := byPID[int(pid)]
		if !ok {
			r = &aggregate.EbpfRow{PID: int(pid), Comm: comm}
			byPID[int(pid)] = r
		}
		return r
	}
	for _, n := range net {
		r := get(n.PID, n.Comm)
		r.RxBytes, r.TxBytes = n.RxBytes, n.TxBytes
	}
	for _, b := range blkio {
		r := get(b.PID, b.Comm)
		r.ReadBytes, r.WriteBytes = b.ReadBytes, b.WriteBytes
		r.ReadOps, r.WriteOps = b.ReadOps, b.WriteOps
	}
	rows := make([]aggregate.EbpfRow, 0, len(byPID))
	for _, r := range byPID {
		rows = append(rows, *r)
	}
	return rows
}

// connRows resolves every live TCP/UDP socket inode to its owning PID via
// an fd scan, and returns one row per resolved socket for connection-count
// attribution. Unresolved sockets (already closed, or owned by a process
// this user cannot see into) are silently dropped, matching the §4.6
// tolerance for partial eBPF/proc data.
func (e *Engine) connRows() []aggregate.ConnRow {
	conns, err := proc.ReadConnInodes()
	if err != nil || len(conns) == 0 {
		return nil
	}
	inodes := make(map[uint64]struct{}, len(conns))
	for _, c := range conns {
		inodes[c.Inode] = struct{}{}
	}
	owners := proc.ResolveSocketOwners(e.opts.ProcRoot, inodes)

	rows := make([]aggregate.ConnRow, 0, len(conns))
	for _, c := range conns {
		pid, ok := owners[c.Inode]
		if !ok {
			continue
		}
		name := proc.ReadComm(e.opts.ProcRoot, pid)
		if name == "" {
			continue
		}
		rows = append(rows, aggregate.ConnRow{PID: pid, Comm: name, Proto: c.Proto})
	}
	return rows
}

// LastAggregate returns the most recent aggregation result, consumed by
// the metrics exporter and the /subgroups endpoint.
func (e *Engine) LastAggregate() aggregate.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastAgg
}

// SetGlobal updates the system-wide metrics half of the snapshot; the
// scan loop calls it after each per-process refresh.
func (e *Engine) SetGlobal(g model.GlobalMetrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot.Global = g
}

// SelfStats returns the exporter's own RSS bytes and CPU percent, read
// through the same proc primitives used for every other process.
func (e *Engine) SelfStats() (rssBytes uint64, cpuPercent float64) {
	mem, err := proc.ReadMemory(e.opts.ProcRoot, e.selfPID, e.opts.SmapsBufSize)
	if err != nil {
		return 0, 0
	}
	stat, err := proc.ReadStat(e.opts.ProcRoot, e.selfPID)
	if err != nil {
		return mem.RSSBytes, 0
	}
	return mem.RSSBytes, e.cpu.Update(-e.selfPID, stat.CPUTimeSeconds(), time.Now())
}
