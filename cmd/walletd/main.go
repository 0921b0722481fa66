// Command walletd runs the in-memory stub of the wallet backend for
// local development. State is lost on restart.
package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ramollino912/wallet-simulator-frontend/internal/backend"
	"github.com/ramollino912/wallet-simulator-frontend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logrus.New()
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := backend.NewServer(cfg.JWTSecret, logger)
	router := srv.Router()

	logger.WithField("addr", cfg.ListenAddr).Info("walletd starting")
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
