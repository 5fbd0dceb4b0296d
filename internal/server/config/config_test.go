package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if cfg.EndpointAddrHTTP != ":8080" {
		t.Fatalf("unexpected address: %q", cfg.EndpointAddrHTTP)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected session TTL: %v", cfg.SessionTTL)
	}
	if cfg.SessionSweepInterval != time.Hour {
		t.Fatalf("unexpected sweep interval: %v", cfg.SessionSweepInterval)
	}
	if cfg.DatabaseDSN == "" || cfg.SecretKey == "" {
		t.Fatal("expected non-empty DSN and secret key defaults")
	}
}

func TestParseEnv_Overlay(t *testing.T) {
	t.Setenv("ADDRESS", ":9999")
	t.Setenv("SESSION_TTL", "48h")
	t.Setenv("S3_BUCKET", "thumbs-test")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	if cfg.EndpointAddrHTTP != ":9999" {
		t.Fatalf("expected env address overlay, got %q", cfg.EndpointAddrHTTP)
	}
	if cfg.SessionTTL != 48*time.Hour {
		t.Fatalf("expected 48h TTL, got %v", cfg.SessionTTL)
	}
	if cfg.S3Bucket != "thumbs-test" {
		t.Fatalf("expected bucket overlay, got %q", cfg.S3Bucket)
	}
}

func TestParseEnv_InvalidDurationIgnored(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("invalid duration must keep default, got %v", cfg.SessionTTL)
	}
}
