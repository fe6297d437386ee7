package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/finjector"
	"github.com/aretw0/finjector/internal/config"
	adminhttp "github.com/aretw0/finjector/pkg/adapters/http"
	"github.com/aretw0/finjector/pkg/adapters/redis"
	"github.com/aretw0/finjector/pkg/observability"
	"github.com/aretw0/finjector/pkg/probe"
	"github.com/aretw0/finjector/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Daemon wires an Injector to its admin surfaces from a Config.
type Daemon struct {
	Config   config.Config
	Injector *finjector.Injector
	Gatherer *prometheus.Registry

	logger *slog.Logger
	ready  chan net.Addr
}

// NewDaemon starts the injector and registers every configured probe on every shard.
func NewDaemon(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Daemon, error) {
	d := &Daemon{
		Config: cfg,
		logger: logger,
		ready:  make(chan net.Addr, 1),
	}

	opts := []finjector.Option{
		finjector.WithShards(cfg.Shards),
		finjector.WithPinning(cfg.PinShards),
		finjector.WithLogger(logger),
	}
	if cfg.Admin.Metrics {
		d.Gatherer = prometheus.NewRegistry()
		d.Gatherer.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(d.Gatherer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, finjector.WithObserverFactory(func(shardID int) registry.Observer {
			return metrics.ForShard(shardID)
		}))
	}

	inj, err := finjector.New(opts...)
	if err != nil {
		return nil, err
	}
	d.Injector = inj

	for _, p := range cfg.Probes {
		points := p.Points
		err := inj.RegisterEverywhere(ctx, p.Module, func(int) probe.Probe {
			return probe.New(cfg.Faults.Enabled, points,
				probe.WithDelay(cfg.Faults.Delay),
				probe.WithLogger(logger),
			)
		})
		if err != nil {
			_ = inj.Close()
			return nil, fmt.Errorf("register %s: %w", p.Module, err)
		}
		logger.Info("Probe configured", "module", p.Module, "points", len(points), "enabled", cfg.Faults.Enabled)
	}
	return d, nil
}

// Handler returns the admin HTTP handler.
func (d *Daemon) Handler() http.Handler {
	opts := []adminhttp.Option{adminhttp.WithLogger(d.logger)}
	if d.Gatherer != nil {
		opts = append(opts, adminhttp.WithGatherer(d.Gatherer))
	}
	return adminhttp.NewHandler(d.Injector, opts...)
}

// Ready yields the admin listener address once Run is serving.
func (d *Daemon) Ready() <-chan net.Addr {
	return d.ready
}

// Run serves the admin API and, when configured, the Redis command feed until ctx is done.
// The injector is closed on return.
func (d *Daemon) Run(ctx context.Context) error {
	defer func() {
		if err := d.Injector.Close(); err != nil {
			d.logger.Error("Injector close failed", "error", err)
		}
	}()

	ln, err := net.Listen("tcp", d.Config.Admin.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.Config.Admin.Listen, err)
	}
	srv := &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.logger.Info("Admin API listening", "address", ln.Addr().String())
		d.ready <- ln.Addr()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			return srv.Close()
		}
		return nil
	})

	if d.Config.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{Addr: d.Config.Redis.Addr})
		defer func() { _ = client.Close() }()
		feed := redis.NewFeed(client, d.Injector,
			redis.WithChannel(d.Config.Redis.Channel),
			redis.WithLogger(d.logger),
		)
		g.Go(func() error {
			return feed.Run(gctx)
		})
	}

	return g.Wait()
}
