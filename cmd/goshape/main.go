// Command goshape runs leaky-bucket drain loops between two in-process
// queues fed by a paced synthetic producer. It exposes Prometheus metrics
// and periodically logs the bucket accounting.
//
// Usage:
//
//	goshape --rate 50 --burst 5 --workers 2
//	goshape --config goshape.yaml --mode items --registry-backend redis
//
// SIGINT or SIGTERM sets the halt signal; the loops finish their in-flight
// request and the command exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vnykmshr/goshape/internal/config"
	"github.com/vnykmshr/goshape/pkg/log"
	"github.com/vnykmshr/goshape/pkg/metrics"
	"github.com/vnykmshr/goshape/pkg/queue"
	"github.com/vnykmshr/goshape/pkg/report"
	"github.com/vnykmshr/goshape/pkg/shaper"
)

func main() {
	cfg, err := config.Load(config.Flags("goshape"), os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := log.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	defer log.SetGlobal(logger)()

	if err := run(cfg, logger); err != nil {
		logger.Error("goshape failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) (err error) {
	halt := shaper.NewHalt()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	go func() {
		<-sigCtx.Done()
		halt.Set()
	}()
	if cfg.Duration > 0 {
		timer := time.AfterFunc(cfg.Duration, halt.Set)
		defer timer.Stop()
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	shaperMetrics := metrics.New(metrics.Config{Enabled: cfg.Metrics.Enabled, Registry: promReg})

	in := queue.NewRing[shaper.Request](cfg.Queue.InputCapacity)
	out := queue.NewRingWithConfig[shaper.Request](queue.Config{
		Capacity: cfg.Queue.OutputCapacity,
		Eviction: cfg.Eviction(),
	})

	reporter, err := report.New(report.Config{
		Schedule:   cfg.Report.Schedule,
		Resolution: cfg.TickResolution,
		Logger:     logger.Named("report"),
	})
	if err != nil {
		return err
	}

	base := shaper.FlowConfig{
		Input:          in,
		Output:         out,
		Rate:           cfg.Rate,
		Burst:          cfg.Burst,
		Halt:           halt,
		Overwrite:      cfg.Overwrite,
		PollInterval:   cfg.PollInterval,
		TickResolution: cfg.TickResolution,
		Logger:         logger,
		Metrics:        shaperMetrics,
	}

	group := shaper.NewGroup(context.Background(), logger)
	keys := cfg.Producer.Keys

	switch cfg.Mode {
	case config.ModeItems:
		reg, closeReg, openErr := openRegistry(context.Background(), cfg, logger)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, closeReg()) }()

		reporter.AddRegistry(cfg.Registry.Backend, reg)
		if len(keys) == 0 {
			keys = itemIDs(cfg.Registry.Items)
		}

		for i := 0; i < cfg.Workers; i++ {
			wc := base
			wc.Name = fmt.Sprintf("%s-%d", cfg.Name, i)
			it, err := shaper.NewItems(shaper.ItemsConfig{
				FlowConfig:  wc,
				Registry:    reg,
				Shared:      cfg.Registry.Shared || cfg.Workers > 1,
				LockTimeout: cfg.Registry.LockTimeout,
			})
			if err != nil {
				return err
			}
			group.GoItems(wc.Name, it)
		}

	default:
		if cfg.Workers > 1 {
			logger.Warn("every flow worker has its own bucket; the admitted rate scales with workers",
				zap.Int("workers", cfg.Workers))
		}
		for i := 0; i < cfg.Workers; i++ {
			wc := base
			wc.Name = fmt.Sprintf("%s-%d", cfg.Name, i)
			f, err := shaper.NewFlow(wc)
			if err != nil {
				return err
			}
			reporter.AddFlow(wc.Name, f)
			group.GoFlow(wc.Name, f)
		}
	}
	if len(keys) == 0 {
		keys = []string{cfg.Name}
	}

	auxCtx, stopAux := context.WithCancel(context.Background())
	defer stopAux()

	prod := newProducer(in, cfg.Producer.Rate, cfg.Producer.Burst, keys, logger.Named("producer"))
	cons := newConsumer(out, logger.Named("consumer"))
	aux := shaper.NewGroup(auxCtx, logger)
	aux.Go("producer", prod.run)
	aux.Go("consumer", cons.run)

	var srv *http.Server
	if cfg.Metrics.Enabled {
		srv = serveMetrics(cfg.Metrics.Addr, promReg, logger)
	}
	if cfg.Report.Enabled {
		reporter.Start()
	}

	logger.Info("goshape started",
		zap.String("mode", cfg.Mode),
		zap.Int("workers", cfg.Workers),
		zap.Float64("rate", cfg.Rate),
		zap.Float64("burst", cfg.Burst))

	err = group.Wait()

	stopAux()
	err = multierr.Append(err, aux.Wait())
	if cfg.Report.Enabled {
		<-reporter.Stop().Done()
	}
	reporter.Report(context.Background())

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, srv.Shutdown(ctx))
	}

	inStats, outStats := in.Stats(), out.Stats()
	logger.Info("goshape stopped",
		zap.Uint64("produced", prod.produced.Load()),
		zap.Uint64("producer_dropped", prod.dropped.Load()),
		zap.Uint64("delivered", cons.delivered.Load()),
		zap.Int64("input_gets", inStats.Gets),
		zap.Int64("output_puts", outStats.Puts),
		zap.Int64("output_rejected", outStats.Rejected),
		zap.Int64("output_evicted", outStats.Evicted))
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", zap.Error(err))
		}
	}()
	return srv
}
