// Package config provides loading and environment overlay for the timeline
// server configuration. It exposes a Default() baseline, JSON/YAML file
// loading and TSN_* environment overrides.
//
// Example:
//
//	cfg, err := config.Load("/etc/tsn.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(runtime.Options{DataDir: "/var/lib/tsn", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
package config
