package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadSearchMode(t *testing.T) {
	cfg := Default()
	cfg.Classify.SearchMode = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad search_mode")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.ListenAddr = "0.0.0.0:9999"
	cfg.Classify.DisableOthers = true

	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := Load(path)
	if got.ListenAddr != "0.0.0.0:9999" {
		t.Errorf("ListenAddr = %q, want 0.0.0.0:9999", got.ListenAddr)
	}
	if !got.Classify.DisableOthers {
		t.Errorf("DisableOthers = false, want true")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "missing.json"))
	if got.ListenAddr != Default().ListenAddr {
		t.Errorf("expected defaults for missing config file")
	}
}

func TestScanOptionsDerivesFromConfig(t *testing.T) {
	cfg := Default()
	cfg.MinUSSKb = 64
	opts := cfg.ScanOptions()
	if opts.MinUSSKb != 64 {
		t.Errorf("MinUSSKb = %d, want 64", opts.MinUSSKb)
	}
}

func TestTLSValidateRejectsMissingPaths(t *testing.T) {
	cases := []struct {
		name string
		tls  TLSConfig
		want string
	}{
		{"neither set", TLSConfig{Enabled: true}, "neither tls_cert_path nor tls_key_path"},
		{"cert only", TLSConfig{Enabled: true, CertPath: "a.pem"}, "tls_key_path is not set"},
		{"key only", TLSConfig{Enabled: true, KeyPath: "a.key"}, "tls_cert_path is not set"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tls.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestTLSValidateRejectsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")

	tls := TLSConfig{Enabled: true, CertPath: cert, KeyPath: key}
	if err := tls.Validate(); err == nil {
		t.Fatal("expected error for nonexistent cert/key files")
	}

	if err := os.WriteFile(cert, []byte("cert"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(key, []byte("key"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := tls.Validate(); err != nil {
		t.Errorf("expected no error once both files exist, got %v", err)
	}
}

func TestTLSValidateSkippedWhenDisabled(t *testing.T) {
	tls := TLSConfig{Enabled: false}
	if err := tls.Validate(); err != nil {
		t.Errorf("disabled TLS should never fail validation, got %v", err)
	}
}

func TestRingCapacityForDerivesFromBudget(t *testing.T) {
	cfg := Default()
	cfg.RingCapacity = 0
	cfg.RingBudgetMB = 15

	got := cfg.RingCapacityFor(1000)
	if got < 10 || got > 120 {
		t.Errorf("RingCapacityFor(1000) = %d, want within [10,120]", got)
	}
}

func TestRingCapacityForHonoursExplicitOverride(t *testing.T) {
	cfg := Default()
	cfg.RingCapacity = 42
	if got := cfg.RingCapacityFor(5); got != 42 {
		t.Errorf("RingCapacityFor = %d, want 42 (explicit override)", got)
	}
}
