package config

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
)

// ServerConfig holds configuration for the tracker daemon.
type ServerConfig struct {
	Addr         string
	LogLevel     string
	AgentAddress string // base URL of the remote-agent API
	DataDir      string // directory backing the durable transfer store
}

// AgentMockConfig holds configuration for the mock agent binary.
type AgentMockConfig struct {
	Addr     string
	LogLevel string
}

// ParseServerConfig parses daemon configuration from flags and environment variables.
// Flags take precedence over environment variables. A .env file in the working
// directory is loaded first, if present.
// Defaults: addr=":8484", logLevel="info", agentAddress="http://localhost:8585", dataDir="data"
func ParseServerConfig() ServerConfig {
	_ = godotenv.Load()
	return parseServerConfigWithFlagSet(flag.CommandLine, os.Args[1:])
}

// parseServerConfigWithFlagSet is an internal helper for testing with isolated flag sets.
func parseServerConfigWithFlagSet(fs *flag.FlagSet, args []string) ServerConfig {
	cfg := ServerConfig{
		Addr:         ":8484",
		LogLevel:     "info",
		AgentAddress: "http://localhost:8585",
		DataDir:      "data",
	}

	// Read from environment first
	if addr := os.Getenv("RELAYWATCH_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if logLevel := os.Getenv("RELAYWATCH_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if agentAddress := os.Getenv("RELAYWATCH_AGENT_ADDRESS"); agentAddress != "" {
		cfg.AgentAddress = agentAddress
	}
	if dataDir := os.Getenv("RELAYWATCH_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	// Flags override environment
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "daemon listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.AgentAddress, "agent-address", cfg.AgentAddress, "remote-agent API base URL")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "durable store directory")
	fs.Parse(args)

	return cfg
}

// ParseAgentMockConfig parses mock agent configuration from flags and environment
// variables. Flags take precedence over environment variables.
// Defaults: addr=":8585", logLevel="info"
func ParseAgentMockConfig() AgentMockConfig {
	_ = godotenv.Load()
	return parseAgentMockConfigWithFlagSet(flag.CommandLine, os.Args[1:])
}

// parseAgentMockConfigWithFlagSet is an internal helper for testing with isolated flag sets.
func parseAgentMockConfigWithFlagSet(fs *flag.FlagSet, args []string) AgentMockConfig {
	cfg := AgentMockConfig{
		Addr:     ":8585",
		LogLevel: "info",
	}

	if addr := os.Getenv("RELAYWATCH_AGENT_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if logLevel := os.Getenv("RELAYWATCH_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "mock agent listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.Parse(args)

	return cfg
}
