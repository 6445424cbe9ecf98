package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	cfgpkg "github.com/EvModder/438-TSN/internal/config"
	"github.com/EvModder/438-TSN/internal/delivery"
	"github.com/EvModder/438-TSN/internal/graph"
	"github.com/EvModder/438-TSN/internal/metrics"
	"github.com/EvModder/438-TSN/internal/registry"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
	"github.com/EvModder/438-TSN/internal/timeline"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Logger defaults to a no-op logger.
	Logger logpkg.Logger
	// Metrics defaults to a fresh collector set. A Metrics value must not be
	// shared between two open Runtimes.
	Metrics *metrics.Metrics
}

// Runtime wires storage, config, and the user/graph/timeline components for
// a single-node instance.
type Runtime struct {
	db       *pebblestore.DB
	config   cfgpkg.Config
	logger   logpkg.Logger
	metrics  *metrics.Metrics
	registry *registry.Registry
	graph    *graph.Graph
	store    *timeline.Store
}

// Open initializes the underlying storage, loads known users and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       m,
		Logger:        logger.WithComponent("pebble"),
	})
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(db, registry.Options{MaxHandleLength: opts.Config.MaxHandleLength})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	m.RegisterSessions(reg.OnlineCount)
	rt := &Runtime{
		db:       db,
		config:   opts.Config,
		logger:   logger,
		metrics:  m,
		registry: reg,
		graph:    graph.New(db, reg),
		store:    timeline.NewStore(db, logger.WithComponent("timeline")),
	}
	logger.Info("runtime opened",
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Stringer("fsync", opts.Fsync),
		logpkg.Int("users", len(reg.AllKnownUsers())))
	return rt, nil
}

// Close closes live sessions and the underlying storage.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	if r.registry != nil {
		r.registry.CloseAll(delivery.ErrShutdown)
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// RunRetention sweeps timelines every Retention.SweepIntervalMs until ctx is
// done. It returns immediately when no retention limit is configured.
func (r *Runtime) RunRetention(ctx context.Context) error {
	ret := r.config.Retention
	if !ret.Enabled() {
		return nil
	}
	interval := time.Duration(ret.SweepIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := r.SweepRetention(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("retention sweep failed", logpkg.Err(err))
			}
		}
	}
}

// SweepRetention applies the retention limits to every known user's timeline
// once and returns the number of entries removed.
func (r *Runtime) SweepRetention(ctx context.Context) (int, error) {
	ret := r.config.Retention
	batch := ret.BatchLimit
	if batch <= 0 {
		batch = 1024
	}
	start := time.Now()
	total := 0
	var errs []error
	for _, user := range r.registry.AllKnownUsers() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if ret.MaxAgeMs > 0 {
			cutoff := start.Add(-time.Duration(ret.MaxAgeMs) * time.Millisecond)
			n, err := r.store.TrimOlderThan(ctx, user, cutoff, batch)
			total += n
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", user, err))
				continue
			}
		}
		if ret.MaxBytesPerUser > 0 {
			n, err := r.store.TrimToMaxBytes(ctx, user, ret.MaxBytesPerUser, batch)
			total += n
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", user, err))
			}
		}
	}
	r.metrics.Trimmed(total)
	if total > 0 {
		r.logger.Info("retention sweep",
			logpkg.Int("removed", total),
			logpkg.Duration("took", time.Since(start)))
	}
	return total, errors.Join(errs...)
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

func (r *Runtime) Logger() logpkg.Logger        { return r.logger }
func (r *Runtime) Metrics() *metrics.Metrics    { return r.metrics }
func (r *Runtime) Registry() *registry.Registry { return r.registry }
func (r *Runtime) Graph() *graph.Graph          { return r.graph }
func (r *Runtime) Timelines() *timeline.Store   { return r.store }
