package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/relaywatch/relaywatch/internal/agentapi"
	"github.com/relaywatch/relaywatch/internal/config"
	"github.com/relaywatch/relaywatch/internal/logging"
	"github.com/relaywatch/relaywatch/internal/push"
	"github.com/relaywatch/relaywatch/internal/sse"
	"github.com/relaywatch/relaywatch/internal/store"
	"github.com/relaywatch/relaywatch/internal/tracker"
)

const version = "v0.1.0"

func main() {
	if hasFlag(os.Args[1:], "-h", "--help") {
		printUsage()
		return
	}
	if hasFlag(os.Args[1:], "-version", "--version") {
		fmt.Println(version)
		return
	}

	cfg := config.ParseServerConfig()
	logger := logging.New("relaywatchd", cfg.LogLevel)

	fs, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Error("open durable store", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	agents := agentapi.NewClient(cfg.AgentAddress)
	hub := push.NewHub(logger)

	tr := tracker.New(logger, store.NewTransferStore(fs),
		tracker.ClientStreams(sse.NewClient(logger)), agents.StreamURL)
	tr.Notifier = hub

	ctx := context.Background()
	if err := tr.Restore(ctx); err != nil {
		logger.Error("restore transfers", "error", err)
		os.Exit(1)
	}
	logger.Info("restored transfers", "count", len(tr.List()))

	srv := &server{
		log:     logger,
		ctx:     ctx,
		tracker: tr,
		agents:  agents,
		hub:     hub,
	}

	logger.Info("starting daemon", "addr", cfg.Addr, "agent", cfg.AgentAddress)
	if err := http.ListenAndServe(cfg.Addr, srv.routes()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func hasFlag(args []string, names ...string) bool {
	for _, arg := range args {
		for _, name := range names {
			if arg == name {
				return true
			}
		}
	}
	return false
}

func printUsage() {
	fmt.Println(`relaywatchd - transfer tracking daemon

Usage:
  relaywatchd [flags]

Flags:
  -addr string           daemon listen address (default ":8484")
  -agent-address string  remote-agent API base URL (default "http://localhost:8585")
  -data-dir string       durable store directory (default "data")
  -log-level string      log level: debug, info, warn, error (default "info")

Environment:
  RELAYWATCH_ADDR, RELAYWATCH_AGENT_ADDRESS, RELAYWATCH_DATA_DIR,
  RELAYWATCH_LOG_LEVEL (flags take precedence; .env is loaded if present)`)
}
