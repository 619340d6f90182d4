package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/relaywatch/relaywatch/internal/agentmock"
	"github.com/relaywatch/relaywatch/internal/config"
	"github.com/relaywatch/relaywatch/internal/logging"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-h" || arg == "--help" {
			fmt.Println(`agentmock - mock remote agent for local development

Usage:
  agentmock [flags]

Flags:
  -addr string       listen address (default ":8585")
  -log-level string  log level: debug, info, warn, error (default "info")`)
			return
		}
	}

	cfg := config.ParseAgentMockConfig()
	logger := logging.New("agentmock", cfg.LogLevel)

	mock := agentmock.NewServer(logger)

	logger.Info("starting mock agent", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mock.Handler()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
