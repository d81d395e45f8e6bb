// Package server implements the HTTP surface (§6): the Prometheus scrape
// endpoint plus the plaintext/HTML debug views, instrumented with
// request-count and duration series and a correlation ID per request,
// following the teacher's access-log style.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/config"
	"github.com/ftahirops/herakles/ebpfmgr"
	"github.com/ftahirops/herakles/forensic"
	"github.com/ftahirops/herakles/metrics"
	"github.com/ftahirops/herakles/ring"
	"github.com/ftahirops/herakles/scan"
)

// Server wires the scan engine, classification table, ring history and
// metrics collector into the HTTP surface described by §6.
type Server struct {
	cfg        config.Config
	engine     *scan.Engine
	table      *classify.Table
	classifyCfg classify.Config
	rings      *ring.Index
	ebpf       *ebpfmgr.Manager
	collector  *metrics.Collector
	registry   *prometheus.Registry
	metricsHandler http.Handler

	mux *http.ServeMux
	srv *http.Server
}

// New builds a Server ready to ListenAndServe.
func New(cfg config.Config, engine *scan.Engine, table *classify.Table, rings *ring.Index, ebpf *ebpfmgr.Manager) *Server {
	collector := metrics.New(engine, ebpf)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	s := &Server{
		cfg:         cfg,
		engine:      engine,
		table:       table,
		classifyCfg: cfg.ClassifyOptions(),
		rings:       rings,
		ebpf:        ebpf,
		collector:   collector,
		registry:    registry,
		metricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	s.mux = http.NewServeMux()
	s.routes()
	s.srv = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: s.withAccessLog(s.mux),
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/config", s.handleConfig)
	s.mux.HandleFunc("/subgroups", s.handleSubgroups)
	s.mux.HandleFunc("/doc", s.handleDoc)
	s.mux.HandleFunc("/docs", s.handleDoc)
	s.mux.HandleFunc("/details", s.handleDetails)

	for _, view := range []string{"index", "details", "subgroups", "health", "config", "docs"} {
		view := view
		s.mux.HandleFunc("/html/"+view, func(w http.ResponseWriter, r *http.Request) {
			s.handleHTML(w, r, view)
		})
	}
}

// ListenAndServe starts the HTTP listener, or the HTTPS listener when TLS
// is enabled and has already passed config.TLSConfig.Validate(). It blocks
// until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe() error {
	var err error
	if s.cfg.TLS.Enabled {
		log.Printf("herakles: listening on %s (tls)", s.cfg.ListenAddr)
		err = s.srv.ListenAndServeTLS(s.cfg.TLS.CertPath, s.cfg.TLS.KeyPath)
	} else {
		log.Printf("herakles: listening on %s", s.cfg.ListenAddr)
		err = s.srv.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight handlers per §5's cancellation contract,
// honouring the context deadline the caller supplies for SIGINT/SIGTERM.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		dur := time.Since(start)
		log.Printf("herakles: request_id=%s method=%s path=%s status=%d duration=%s", id, r.Method, r.URL.Path, rw.status, dur)
		s.collector.RecordRequest(r.URL.Path, fmt.Sprintf("%d", rw.status), dur)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<html><head><title>herakles</title></head><body>
<h1>herakles host metrics exporter</h1>
<ul>
<li><a href="/metrics">/metrics</a></li>
<li><a href="/health">/health</a></li>
<li><a href="/config">/config</a></li>
<li><a href="/subgroups">/subgroups</a></li>
<li><a href="/details">/details</a></li>
<li><a href="/docs">/docs</a></li>
</ul>
</body></html>`)
}

// handleMetrics triggers an on-demand refresh subject to the engine's own
// freshness throttling, then serves the current snapshot via promhttp.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.engine.MaybeRefresh()
	s.metricsHandler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	health := s.engine.Health()
	buffers := s.engine.Buffers()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !snap.Success {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "status: no successful refresh yet")
		return
	}

	fmt.Fprintf(w, "status: ok\n")
	fmt.Fprintf(w, "last_refresh: %s\n", health.LastRefreshAt.Format(time.RFC3339))
	fmt.Fprintf(w, "refresh_count: %d\n", health.RefreshCount)
	fmt.Fprintf(w, "refresh_error_count: %d\n", health.RefreshErrorCount)
	fmt.Fprintf(w, "permission_denied: %d\n", health.PermissionDenied)
	fmt.Fprintf(w, "parsing_errors: %d\n", health.ParsingErrors)
	fmt.Fprintf(w, "proc_read_errors: %d\n", health.ProcReadErrors)
	fmt.Fprintf(w, "ebpf_init_failures: %d\n", health.EbpfInitFailures)
	fmt.Fprintf(w, "ebpf_lost_events: %d\n", health.EbpfLostEvents)
	fmt.Fprintf(w, "refresh_duration_mean: %s\n", health.RefreshDurationStat.Mean())
	fmt.Fprintf(w, "refresh_duration_max: %s\n", health.RefreshDurationStat.Max)
	fmt.Fprintf(w, "smaps_high_water: %s\n", humanize.Bytes(buffers.SmapsHighWater))
	fmt.Fprintf(w, "smaps_rollup_high_water: %s\n", humanize.Bytes(buffers.SmapsRollupHighWater))
	fmt.Fprintf(w, "generic_buffer_high_water: %s\n", humanize.Bytes(buffers.GenericHighWater))
	if s.ebpf != nil {
		fmt.Fprintf(w, "ebpf_state: %s\n", s.ebpf.State())
		fmt.Fprintf(w, "ebpf_attachments: %v\n", s.ebpf.Attachments())
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	data, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(data)
	fmt.Fprintf(w, "\nsmaps_buf_bytes (human): %s\n", humanize.Bytes(uint64(s.cfg.SmapsBufBytes)))
}

func (s *Server) handleSubgroups(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	agg := s.engine.LastAggregate()
	keys := make([]string, 0, len(agg.Subgroups))
	for k := range agg.Subgroups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a := agg.Subgroups[k]
		fmt.Fprintf(w, "%s\tmembers=%d\trss=%s\n", k, a.MemberCount, humanize.Bytes(a.RSSSum))
	}
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, docText)
}

const docText = `herakles - Linux host metrics exporter

Endpoints:
  /metrics            Prometheus exposition, triggers a refresh subject to throttling
  /health             running counters and buffer high-water marks
  /config             effective merged configuration
  /subgroups          current per-(group,subgroup) aggregate summary
  /details            forensic phase/anomaly analysis, optionally ?subgroup=group:subgroup
  /html/{view}        human-friendly HTML renderings of the above
`

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	res := forensic.Analyze(snap, s.table, s.classifyCfg, s.rings,
		float64(s.cfg.HistoryWindowSec), float64(s.cfg.ScanIntervalSec), snap.Global.Kernel.UptimeSeconds)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	want := r.URL.Query().Get("subgroup")
	for _, sa := range res.Subgroups {
		key := sa.Group + ":" + sa.Subgroup
		if want != "" && want != key {
			continue
		}
		fmt.Fprintf(w, "%s\tphase=%s\tuptime=%.0fs\trss=%s\tworst_ratio=%.2f\tseverity=%s\n",
			key, sa.Phase, sa.UptimeSeconds, humanize.Bytes(sa.CurrentRSSKb*1024), sa.WorstRatio, sa.Severity)
	}
	if len(res.Anomalies) > 0 {
		fmt.Fprintln(w, "\nanomalies:")
		for _, a := range res.Anomalies {
			fmt.Fprintf(w, "  %s:%s %s ratio=%.2f severity=%s\n", a.Group, a.Subgroup, a.Metric, a.Ratio, a.Severity)
		}
	}
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request, view string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><head><title>herakles - %s</title></head><body><h1>%s</h1><pre>", view, view)
	rec := &plainRecorder{ResponseWriter: w}
	switch view {
	case "index":
		s.handleIndex(rec, r)
	case "details":
		s.handleDetails(rec, r)
	case "subgroups":
		s.handleSubgroups(rec, r)
	case "health":
		s.handleHealth(rec, r)
	case "config":
		s.handleConfig(rec, r)
	case "docs":
		s.handleDoc(rec, r)
	}
	fmt.Fprint(w, "</pre></body></html>")
}

// plainRecorder discards Content-Type/status changes from an embedded
// plaintext handler so its body can be wrapped in an HTML <pre> block.
type plainRecorder struct {
	http.ResponseWriter
}

func (p *plainRecorder) WriteHeader(int) {}
