package config

import (
	"os"
	"strconv"
)

// FromEnv overlays TSN_* environment variables onto cfg. Malformed values
// are ignored.
func FromEnv(cfg *Config) {
	envBool("TSN_ALLOW_AUTO_REGISTER", &cfg.AllowAutoRegister)
	envInt("TSN_REPLAY_COUNT", &cfg.ReplayCount)
	envInt("TSN_CHANNEL_BUFFER", &cfg.ChannelBuffer)
	envInt("TSN_PUSH_TIMEOUT_MS", &cfg.PushTimeoutMs)
	envBool("TSN_CLOSE_SUPERSEDED", &cfg.CloseSupersededSessions)
	envInt("TSN_MAX_HANDLE_LENGTH", &cfg.MaxHandleLength)
	envInt("TSN_MAX_BODY_BYTES", &cfg.MaxBodyBytes)

	envInt64("TSN_RETENTION_MAX_AGE_MS", &cfg.Retention.MaxAgeMs)
	envInt64("TSN_RETENTION_MAX_BYTES", &cfg.Retention.MaxBytesPerUser)
	envInt64("TSN_RETENTION_SWEEP_MS", &cfg.Retention.SweepIntervalMs)

	envString("TSN_GRPC_ADDR", &cfg.Server.GRPCAddr)
	envString("TSN_HTTP_ADDR", &cfg.Server.HTTPAddr)
	envString("TSN_DATA_DIR", &cfg.Server.DataDir)
	envString("TSN_FSYNC", &cfg.Server.Fsync)
	envInt("TSN_FSYNC_INTERVAL_MS", &cfg.Server.FsyncIntervalMs)

	envString("TSN_LOG_LEVEL", &cfg.Log.Level)
	envString("TSN_LOG_FORMAT", &cfg.Log.Format)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
