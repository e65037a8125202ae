package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// OperatingMode selects which sync channels are driven.  It replaces the
// ad-hoc per-call-site flags the deployment used to carry: resolved once
// at startup and injected into the orchestrator.
type OperatingMode string

const (
	// ModeDual drives both the direct TCP channel and the middleware queue.
	ModeDual OperatingMode = "dual"
	// ModeTransportOnly skips the middleware queue (no vendor DB available).
	ModeTransportOnly OperatingMode = "transport-only"
	// ModeQueueOnly skips direct TCP (device on an unreachable segment).
	ModeQueueOnly OperatingMode = "queue-only"
)

func (m OperatingMode) TransportEnabled() bool { return m != ModeQueueOnly }
func (m OperatingMode) QueueEnabled() bool     { return m != ModeTransportOnly }

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/gymgate.db"

	// Device (ESSL terminal)
	DeviceHost    string
	DevicePort    int
	DeviceTimeout time.Duration
	DeviceSerial  string

	// Middleware queue
	DefaultDeviceID int64

	// Sync orchestration
	Mode             OperatingMode
	SyncMaxAttempts  int
	SyncRetryBackoff time.Duration

	// Device health prober; 0 disables.
	HealthProbeInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string // "json" | "console"
}

func FromEnv() Config {
	env := strings.ToLower(getenvDefault("GYMGATE_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	mode := OperatingMode(strings.ToLower(getenvDefault("GYMGATE_MODE", string(ModeDual))))
	switch mode {
	case ModeDual, ModeTransportOnly, ModeQueueOnly:
	default:
		mode = ModeDual
	}

	return Config{
		HTTPAddr: getenvDefault("GYMGATE_HTTP_ADDR", ":8080"),
		Env:      env,
		DBPath:   getenvDefault("GYMGATE_DB_PATH", "./data/gymgate.db"),

		DeviceHost:    getenvDefault("ESSL_DEVICE_IP", "192.168.0.5"),
		DevicePort:    getenvInt("ESSL_DEVICE_PORT", 4370),
		DeviceTimeout: getenvDuration("ESSL_DEVICE_TIMEOUT", 10*time.Second),
		DeviceSerial:  getenvDefault("ESSL_DEVICE_SERIAL", ""),

		DefaultDeviceID: int64(getenvInt("GYMGATE_DEFAULT_DEVICE_ID", 1)),

		Mode:             mode,
		SyncMaxAttempts:  getenvInt("GYMGATE_SYNC_MAX_ATTEMPTS", 3),
		SyncRetryBackoff: getenvDuration("GYMGATE_SYNC_RETRY_BACKOFF", 2*time.Second),

		HealthProbeInterval: getenvDuration("GYMGATE_HEALTH_PROBE_INTERVAL", time.Minute),

		LogLevel:  getenvDefault("GYMGATE_LOG_LEVEL", "info"),
		LogFormat: getenvDefault("GYMGATE_LOG_FORMAT", "json"),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
