package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalsfoundry/orrery/camera"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/nbi"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/sim"
	"github.com/signalsfoundry/orrery/model"
	"github.com/signalsfoundry/orrery/timectrl"
	"golang.org/x/sync/errgroup"
)

func main() {
	scenePath := flag.String("scene", "configs/sol.json", "path to a JSON scene file")
	duration := flag.Duration("duration", 0, "simulated time to run before exiting (0 = until interrupted)")
	tick := flag.Duration("tick", 50*time.Millisecond, "wall-clock interval between frames")
	step := flag.Duration("step", 24*time.Hour, "simulated time per frame in accelerated mode")
	modeName := flag.String("mode", "accelerated", "clock mode: realtime or accelerated")
	scale := flag.Float64("scale", 1, "time scale multiplier")
	grpcAddr := flag.String("grpc-addr", ":50051", "TCP address the API gRPC server listens on (empty disables it)")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics and the /ws/snapshots feed (empty disables it)")
	inputRate := flag.Float64("input-rate", 0, "camera commands accepted per second across all API clients (0 = unlimited)")
	inputBurst := flag.Int("input-burst", 32, "camera command burst allowed above -input-rate")
	reportEvery := flag.Int("report-every", 0, "log body positions every N frames (0 = never)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, options{
		scenePath:   *scenePath,
		duration:    *duration,
		tick:        *tick,
		step:        *step,
		mode:        *modeName,
		scale:       *scale,
		grpcAddr:    *grpcAddr,
		metricsAddr: *metricsAddr,
		reportEvery: *reportEvery,
		inputRate:   *inputRate,
		inputBurst:  *inputBurst,
	}); err != nil {
		log.Error(context.Background(), "orrery exited", logging.Err(err))
		os.Exit(1)
	}
}

type options struct {
	scenePath   string
	duration    time.Duration
	tick        time.Duration
	step        time.Duration
	mode        string
	scale       float64
	grpcAddr    string
	metricsAddr string
	reportEvery int
	inputRate   float64
	inputBurst  int
}

func run(ctx context.Context, log logging.Logger, opts options) error {
	mode, err := timectrl.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	scene, err := core.LoadSceneFile(opts.scenePath)
	if err != nil {
		return err
	}
	cam, err := camera.New(camera.ConfigFromDefinition(scene.Camera))
	if err != nil {
		return fmt.Errorf("scene %q camera: %w", scene.Name, err)
	}

	reg := prometheus.NewRegistry()
	simMetrics, err := observability.NewSimCollector(reg)
	if err != nil {
		return err
	}
	apiMetrics, err := observability.NewAPICollector(reg)
	if err != nil {
		return err
	}

	engine := sim.NewEngine(scene, cam,
		sim.WithLogger(log),
		sim.WithMetrics(simMetrics),
	)
	log.Info(ctx, "scene loaded",
		logging.String("scene", scene.Name),
		logging.String("path", opts.scenePath),
		logging.Int("bodies", scene.System.Len()),
		logging.Time("epoch", scene.Epoch),
	)
	if opts.reportEvery > 0 {
		engine.RegisterTickListener(reporter(ctx, log, opts.reportEvery))
	}

	clock := timectrl.NewTimeController(scene.Epoch, opts.tick, opts.step, mode)
	if err := clock.SetScale(opts.scale); err != nil {
		return err
	}
	clock.AddListener(engine.Listener(ctx))
	// First frame at the epoch so the API has a snapshot immediately.
	engine.Step(ctx, clock.Now())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-clock.Start(gctx, opts.duration):
		case <-gctx.Done():
		}
		log.Info(gctx, "simulation finished", logging.Time("sim_time", clock.Now()))
		if opts.duration > 0 {
			// A bounded run ends the process.
			return errRunComplete
		}
		return nil
	})

	if opts.grpcAddr != "" {
		svc := nbi.NewOrreryService(nbi.Deps{
			Store:   engine.KnowledgeBase(),
			Input:   engine.Input(),
			Bodies:  scene.System,
			Clock:   clock,
			Metrics: apiMetrics,
			Log:     log,

			InputRate:  opts.inputRate,
			InputBurst: opts.inputBurst,
		})
		server := nbi.NewGRPCServer(svc, log, apiMetrics)
		lis, err := net.Listen("tcp", opts.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", opts.grpcAddr, err)
		}
		g.Go(func() error {
			log.Info(gctx, "starting API gRPC server", logging.String("addr", opts.grpcAddr))
			return server.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			server.GracefulStop()
			return nil
		})
	}

	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.Handle("/ws/snapshots", nbi.NewSnapshotFeed(engine.KnowledgeBase(), apiMetrics, log))
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			// Hijacked feed connections outlive Shutdown unless their
			// context ends with the run.
			BaseContext: func(net.Listener) context.Context { return gctx },
		}
		g.Go(func() error {
			log.Info(gctx, "serving metrics and snapshot feed", logging.String("addr", opts.metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, errRunComplete) {
		return nil
	}
	return err
}

var errRunComplete = errors.New("run complete")

// reporter logs every body's position each n frames.
func reporter(ctx context.Context, log logging.Logger, n int) func(model.Snapshot) {
	return func(s model.Snapshot) {
		if s.Seq%uint64(n) != 0 {
			return
		}
		for _, b := range s.Bodies {
			log.Info(ctx, "body position",
				logging.Body(b.Name),
				logging.Float("x", b.Position.X),
				logging.Float("y", b.Position.Y),
				logging.Float("z", b.Position.Z),
				logging.Bool("valid", b.Valid),
				logging.Float("julian_day", s.JulianDay),
			)
		}
	}
}
