package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "https://back-wallet-20.vercel.app" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.StoragePath == "" {
		t.Error("StoragePath should get a home-relative default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WALLET_API_URL", "http://localhost:8080")
	t.Setenv("WALLET_STORAGE_PATH", "/tmp/wallet-test.db")
	t.Setenv("WALLET_HTTP_TIMEOUT", "5s")
	t.Setenv("WALLET_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.StoragePath != "/tmp/wallet-test.db" {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}
