// Package runtime wires storage, config, and the user, follow-graph and
// timeline components into a single-node TSN instance. It exposes
// Open/Close, a health check and the retention janitor.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	_, _ = rt.Registry().Register("alice")
package runtime
