// Command ownerd runs one resource behind a single-owner executor.
//
// A few caller goroutines send requests to the resource while a scheduler
// refreshes its status every second. Every status change is logged and, when
// nats.url is configured, published to NATS. Interrupt the process to shut
// down gracefully: callers stop, the scheduler stops, the queue is completed
// and the executor drains whatever it already accepted.
//
// Configuration is read from the YAML file named by $OWNR_CONFIG; defaults
// are used when it is unset. Prometheus metrics are served on metrics.addr.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/ownr-go/adapters/nats"
	promadapter "github.com/codewandler/ownr-go/adapters/prometheus"
	"github.com/codewandler/ownr-go/core/app"
	"github.com/codewandler/ownr-go/core/resource"
	"github.com/codewandler/ownr-go/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("OWNR_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := cfg.Logging.NewLogger(os.Stdout)
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ownerd failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := app.New(app.Config{
		Context:       ctx,
		Log:           log,
		QueueCapacity: cfg.Queue.Capacity,
		Status: app.StatusConfig{
			Interval: cfg.Status.Interval,
			Cron:     cfg.Status.Cron,
		},
		Metrics: promadapter.NewAppMetrics(reg),
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	a.Subscribe(func(s resource.StatusRecord) {
		fmt.Printf("Status updated: %d at %s\n", s.Value, s.Timestamp.Format(resource.TimeLayout))
	})

	if cfg.NATS.URL != "" {
		pub, err := nats.NewStatusPublisher(nats.PublisherConfig{
			Connect: nats.ConnectURL(cfg.NATS.URL),
			Log:     log,
			Subject: cfg.NATS.Subject,
		})
		if err != nil {
			return fmt.Errorf("create status publisher: %w", err)
		}
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("closing status publisher", slog.Any("error", err))
			}
		}()
		if err := pub.Attach(a); err != nil {
			return err
		}
		log.Info("publishing status to nats", slog.String("url", cfg.NATS.URL), slog.String("subject", pub.Subject()))
	}

	if err := a.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Info("prometheus metrics server starting", slog.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		return a.RunCallers(gctx, cfg.Callers.Count, cfg.Callers.Interval, func(callerID, reply string) {
			fmt.Printf("Caller %s got reply: %s\n", callerID, reply)
		})
	})

	// callers return on their own once the app is shut down
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-a.Done():
		}
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Shutdown(sctx)
	})

	return g.Wait()
}
