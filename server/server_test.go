package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/config"
	"github.com/ftahirops/herakles/ring"
	"github.com/ftahirops/herakles/scan"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	table := classify.NewTableForTest(map[string]classify.GroupSubgroup{
		"nginx": {Group: "web", Subgroup: "nginx"},
	})
	rings := ring.NewIndex(10, 15)
	cfg := config.Default()
	cfg.ProcRoot = root
	opts := cfg.ScanOptions()
	engine := scan.New(opts, nil, table, cfg.ClassifyOptions(), rings)
	engine.Refresh()
	return New(cfg, engine, table, rings, nil)
}

func TestHealthReturns200AfterRefresh(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsServesPrometheusText(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handleMetrics(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "herakles_") {
		t.Errorf("expected herakles_ prefixed series in output")
	}
}

func TestConfigIsJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rec := httptest.NewRecorder()
	s.handleConfig(rec, req)
	if !strings.Contains(rec.Body.String(), "\"listen_addr\"") {
		t.Errorf("expected listen_addr key in config output")
	}
}

func TestDetailsFiltersBySubgroup(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/details?subgroup=web:nginx", nil)
	rec := httptest.NewRecorder()
	s.handleDetails(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
