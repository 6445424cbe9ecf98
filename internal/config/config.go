package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// AllowAutoRegister registers unknown users on their first timeline connect.
	AllowAutoRegister bool `json:"allowAutoRegister" yaml:"allowAutoRegister"`
	// ReplayCount is how many recent posts are replayed on connect.
	ReplayCount int `json:"replayCount" yaml:"replayCount"`
	// ChannelBuffer is the per-session queue size; must be >= ReplayCount.
	ChannelBuffer int `json:"channelBuffer" yaml:"channelBuffer"`
	// PushTimeoutMs bounds how long fan-out waits on a full session queue.
	PushTimeoutMs int `json:"pushTimeoutMs" yaml:"pushTimeoutMs"`
	// CloseSupersededSessions closes the older session when a user reconnects.
	CloseSupersededSessions bool `json:"closeSupersededSessions" yaml:"closeSupersededSessions"`
	MaxHandleLength         int  `json:"maxHandleLength" yaml:"maxHandleLength"`
	MaxBodyBytes            int  `json:"maxBodyBytes" yaml:"maxBodyBytes"`

	Retention Retention     `json:"retention" yaml:"retention"`
	Server    Server        `json:"server" yaml:"server"`
	Log       logpkg.Config `json:"log" yaml:"log"`
}

// Retention bounds timeline growth. Zero limits disable the janitor.
type Retention struct {
	MaxAgeMs        int64 `json:"maxAgeMs" yaml:"maxAgeMs"`
	MaxBytesPerUser int64 `json:"maxBytesPerUser" yaml:"maxBytesPerUser"`
	SweepIntervalMs int64 `json:"sweepIntervalMs" yaml:"sweepIntervalMs"`
	BatchLimit      int   `json:"batchLimit" yaml:"batchLimit"`
}

// Enabled reports whether any retention limit is set.
func (r Retention) Enabled() bool { return r.MaxAgeMs > 0 || r.MaxBytesPerUser > 0 }

// Server holds listener and storage settings.
type Server struct {
	GRPCAddr        string `json:"grpcAddr" yaml:"grpcAddr"`
	HTTPAddr        string `json:"httpAddr" yaml:"httpAddr"`
	DataDir         string `json:"dataDir" yaml:"dataDir"`
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		AllowAutoRegister:       true,
		ReplayCount:             20,
		ChannelBuffer:           256,
		PushTimeoutMs:           5000,
		CloseSupersededSessions: true,
		MaxHandleLength:         64,
		MaxBodyBytes:            4096,
		Retention: Retention{
			SweepIntervalMs: 60_000,
			BatchLimit:      1024,
		},
		Server: Server{
			GRPCAddr:        ":12021",
			HTTPAddr:        ":8080",
			Fsync:           "always",
			FsyncIntervalMs: 5,
		},
		Log: logpkg.Config{Level: "info", Format: "text"},
	}
}

// PushTimeout returns PushTimeoutMs as a duration.
func (c Config) PushTimeout() time.Duration {
	return time.Duration(c.PushTimeoutMs) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.ReplayCount < 0 {
		errs = append(errs, fmt.Errorf("replayCount must be >= 0"))
	}
	if c.ChannelBuffer < c.ReplayCount || c.ChannelBuffer <= 0 {
		errs = append(errs, fmt.Errorf("channelBuffer (%d) must be positive and >= replayCount (%d)", c.ChannelBuffer, c.ReplayCount))
	}
	if c.PushTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("pushTimeoutMs must be positive"))
	}
	if c.MaxHandleLength <= 0 {
		errs = append(errs, fmt.Errorf("maxHandleLength must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("maxBodyBytes must be positive"))
	}
	if c.Retention.Enabled() && c.Retention.SweepIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("retention.sweepIntervalMs must be positive when retention is enabled"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from a JSON or YAML file (by extension) over the
// defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
