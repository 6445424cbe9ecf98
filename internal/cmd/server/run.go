package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	cfgpkg "github.com/EvModder/438-TSN/internal/config"
	"github.com/EvModder/438-TSN/internal/runtime"
	grpcserver "github.com/EvModder/438-TSN/internal/server/grpc"
	httpserver "github.com/EvModder/438-TSN/internal/server/http"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
}

// StorageOptions resolves the runtime storage settings from the server
// config. Data lives under <dataDir>/store.
func StorageOptions(cfg cfgpkg.Config) (runtime.Options, error) {
	dataDir := cfg.Server.DataDir
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	mode, err := pebblestore.ParseFsyncMode(cfg.Server.Fsync)
	if err != nil {
		return runtime.Options{}, err
	}
	return runtime.Options{
		DataDir:       filepath.Join(dataDir, "store"),
		Fsync:         mode,
		FsyncInterval: time.Duration(cfg.Server.FsyncIntervalMs) * time.Millisecond,
		Config:        cfg,
	}, nil
}

// BuildLogger returns the process logger for cfg, falling back to a text
// logger at the parsed (or info) level when the outputs cannot be built.
func BuildLogger(cfg logpkg.Config) logpkg.Logger {
	l, err := logpkg.ApplyConfig(&cfg)
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	return logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled or
// one of them fails.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = BuildLogger(cfg.Log)
	}
	restore := logpkg.RedirectStdLog(logger)
	defer restore()

	rtOpts, err := StorageOptions(cfg)
	if err != nil {
		return err
	}
	rtOpts.Logger = logger
	rt, err := runtime.Open(rtOpts)
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("Starting TSN server",
		logpkg.Str("grpc", cfg.Server.GRPCAddr),
		logpkg.Str("http", cfg.Server.HTTPAddr),
		logpkg.Str("data_dir", rtOpts.DataDir),
		logpkg.Int("replay", cfg.ReplayCount),
		logpkg.Int("buffer", cfg.ChannelBuffer),
		logpkg.Bool("auto_register", cfg.AllowAutoRegister),
		logpkg.Bool("retention", cfg.Retention.Enabled()),
	)

	svc := timelinesvc.NewWithLogger(rt, logger.WithComponent("timelines"))
	gsrv := grpcserver.New(rt, svc)
	hsrv := httpserver.New(rt, svc, logger.WithComponent("http"))

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		if err := gsrv.ListenAndServe(gctx, cfg.Server.GRPCAddr); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := hsrv.ListenAndServe(gctx, cfg.Server.HTTPAddr); err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error { return rt.RunRetention(gctx) })
	g.Go(func() error {
		// Open timeline streams only end once their sessions close, and the
		// graceful stops above wait for them.
		<-gctx.Done()
		svc.Close()
		return nil
	})

	err = g.Wait()
	if err != nil {
		logger.Error("server stopped", logpkg.Err(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
