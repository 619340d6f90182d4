package config

import (
	"flag"
	"os"
	"testing"
)

func TestParseServerConfig_Defaults(t *testing.T) {
	os.Clearenv()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := parseServerConfigWithFlagSet(fs, []string{})

	if cfg.Addr != ":8484" {
		t.Errorf("expected Addr to be :8484, got %s", cfg.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel to be info, got %s", cfg.LogLevel)
	}
	if cfg.AgentAddress != "http://localhost:8585" {
		t.Errorf("expected default AgentAddress, got %s", cfg.AgentAddress)
	}
	if cfg.DataDir != "data" {
		t.Errorf("expected DataDir to be data, got %s", cfg.DataDir)
	}
}

func TestParseServerConfig_Flags(t *testing.T) {
	os.Clearenv()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := parseServerConfigWithFlagSet(fs, []string{
		"-addr", ":9090",
		"-log-level", "debug",
		"-agent-address", "http://agent:9000",
		"-data-dir", "/var/lib/relaywatch",
	})

	if cfg.Addr != ":9090" {
		t.Errorf("expected Addr to be :9090, got %s", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
	if cfg.AgentAddress != "http://agent:9000" {
		t.Errorf("expected AgentAddress to be http://agent:9000, got %s", cfg.AgentAddress)
	}
	if cfg.DataDir != "/var/lib/relaywatch" {
		t.Errorf("expected DataDir to be /var/lib/relaywatch, got %s", cfg.DataDir)
	}
}

func TestParseServerConfig_EnvFallback(t *testing.T) {
	os.Clearenv()

	os.Setenv("RELAYWATCH_ADDR", ":7070")
	os.Setenv("RELAYWATCH_LOG_LEVEL", "warn")
	os.Setenv("RELAYWATCH_AGENT_ADDRESS", "http://agent:7000")
	os.Setenv("RELAYWATCH_DATA_DIR", "/tmp/rw")
	defer os.Clearenv()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := parseServerConfigWithFlagSet(fs, []string{})

	if cfg.Addr != ":7070" {
		t.Errorf("expected Addr to be :7070, got %s", cfg.Addr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected LogLevel to be warn, got %s", cfg.LogLevel)
	}
	if cfg.AgentAddress != "http://agent:7000" {
		t.Errorf("expected AgentAddress to be http://agent:7000, got %s", cfg.AgentAddress)
	}
	if cfg.DataDir != "/tmp/rw" {
		t.Errorf("expected DataDir to be /tmp/rw, got %s", cfg.DataDir)
	}
}

func TestParseServerConfig_FlagsOverrideEnv(t *testing.T) {
	os.Clearenv()

	os.Setenv("RELAYWATCH_ADDR", ":7070")
	os.Setenv("RELAYWATCH_LOG_LEVEL", "warn")
	defer os.Clearenv()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := parseServerConfigWithFlagSet(fs, []string{"-addr", ":9090", "-log-level", "error"})

	// Flags should override env
	if cfg.Addr != ":9090" {
		t.Errorf("expected Addr to be :9090 (from flag), got %s", cfg.Addr)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected LogLevel to be error (from flag), got %s", cfg.LogLevel)
	}
}

func TestParseAgentMockConfig_Defaults(t *testing.T) {
	os.Clearenv()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := parseAgentMockConfigWithFlagSet(fs, []string{})

	if cfg.Addr != ":8585" {
		t.Errorf("expected Addr to be :8585, got %s", cfg.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel to be info, got %s", cfg.LogLevel)
	}
}

func TestParseAgentMockConfig_Flags(t *testing.T) {
	os.Clearenv()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := parseAgentMockConfigWithFlagSet(fs, []string{"-addr", ":6060"})

	if cfg.Addr != ":6060" {
		t.Errorf("expected Addr to be :6060, got %s", cfg.Addr)
	}
}
