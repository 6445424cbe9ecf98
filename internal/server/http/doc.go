// Package httpserver exposes the TSN HTTP API: JSON endpoints for users,
// follows and posts, the timeline as Server-Sent Events and as a websocket,
// health, and Prometheus metrics. Handlers live in the controllers package.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := httpserver.New(rt, timelinesvc.New(rt), logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
