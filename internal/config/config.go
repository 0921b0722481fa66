// Package config loads environment configuration for the CLI and the
// local backend. A .env file in the working directory is honoured when
// present.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	APIBaseURL  string        `env:"WALLET_API_URL,default=https://back-wallet-20.vercel.app"`
	StoragePath string        `env:"WALLET_STORAGE_PATH"`
	HTTPTimeout time.Duration `env:"WALLET_HTTP_TIMEOUT,default=30s"`
	Debug       bool          `env:"WALLET_DEBUG,default=false"`

	// walletd only.
	ListenAddr string `env:"WALLETD_ADDR,default=:8080"`
	JWTSecret  string `env:"WALLETD_JWT_SECRET,default=dev-secret"`
}

// Load reads .env (if any) and the environment. StoragePath defaults
// to ~/.wallet/wallet.db when unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.StoragePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.StoragePath = filepath.Join(home, ".wallet", "wallet.db")
	}
	return &cfg, nil
}
