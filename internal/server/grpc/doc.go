// Package grpcserver hosts the gRPC server for TSN, registering the SNetwork
// and standard health services and delegating to the timelines service.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := grpcserver.New(rt, timelinesvc.New(rt))
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":12021")
package grpcserver
