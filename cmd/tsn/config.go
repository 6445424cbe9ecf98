package main

import (
	"github.com/spf13/cobra"

	cfgpkg "github.com/EvModder/438-TSN/internal/config"
)

func addServerFlags(cmd *cobra.Command) {
	d := cfgpkg.Default()
	f := cmd.Flags()
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("grpc", d.Server.GRPCAddr, "gRPC listen address")
	f.String("http", d.Server.HTTPAddr, "HTTP listen address")
	f.String("fsync", d.Server.Fsync, "Fsync mode: always|interval|never")
	f.Int("fsync-interval-ms", d.Server.FsyncIntervalMs, "When --fsync=interval, group-commit window in ms")
	f.String("log-level", d.Log.Level, "Log level: debug|info|warn|error")
	f.String("log-format", d.Log.Format, "Log format: text|json")
	f.Int("replay", d.ReplayCount, "Posts replayed when a session connects")
	f.Int("buffer", d.ChannelBuffer, "Per-session delivery queue size")
	f.Bool("auto-register", d.AllowAutoRegister, "Register unknown users on first timeline connect")
	f.Int64("retention-max-age-ms", 0, "Drop timeline entries older than this (0 keeps all)")
	f.Int64("retention-max-bytes", 0, "Cap each timeline at this many bytes (0 is unbounded)")
}

// resolveConfig layers defaults, the --config file, TSN_* environment and
// explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)

	f := cmd.Flags()
	set := func(name string, apply func()) {
		if fl := f.Lookup(name); fl != nil && fl.Changed {
			apply()
		}
	}
	set("data-dir", func() { cfg.Server.DataDir, _ = f.GetString("data-dir") })
	set("grpc", func() { cfg.Server.GRPCAddr, _ = f.GetString("grpc") })
	set("http", func() { cfg.Server.HTTPAddr, _ = f.GetString("http") })
	set("fsync", func() { cfg.Server.Fsync, _ = f.GetString("fsync") })
	set("fsync-interval-ms", func() { cfg.Server.FsyncIntervalMs, _ = f.GetInt("fsync-interval-ms") })
	set("log-level", func() { cfg.Log.Level, _ = f.GetString("log-level") })
	set("log-format", func() { cfg.Log.Format, _ = f.GetString("log-format") })
	set("replay", func() { cfg.ReplayCount, _ = f.GetInt("replay") })
	set("buffer", func() { cfg.ChannelBuffer, _ = f.GetInt("buffer") })
	set("auto-register", func() { cfg.AllowAutoRegister, _ = f.GetBool("auto-register") })
	set("retention-max-age-ms", func() { cfg.Retention.MaxAgeMs, _ = f.GetInt64("retention-max-age-ms") })
	set("retention-max-bytes", func() { cfg.Retention.MaxBytesPerUser, _ = f.GetInt64("retention-max-bytes") })
	return cfg, cfg.Validate()
}
