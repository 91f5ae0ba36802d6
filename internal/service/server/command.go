package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/famcal-notifier/internal/api/http/trigger"
	"github.com/oshokin/famcal-notifier/internal/config"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/service/dispatcher"
	"github.com/oshokin/famcal-notifier/internal/version"
)

// Options controls the notifier process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the HTTP ingress.
	ListenAddress string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the ingress, the health service and the sweep schedule and blocks
// until the context is canceled or one of them fails.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, version.Name)

	settings, err := loadSettings(opts.ConfigPath)
	if err != nil {
		return err
	}

	listenAddress, err := resolveListenAddress(settings.HTTPAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	deps, err := buildComponents(ctx, settings)
	if err != nil {
		return fmt.Errorf("initialise components: %w", err)
	}

	defer deps.close(ctx)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	httpServer := &http.Server{
		Handler:           trigger.NewServer(deps.service, settings.Tasks.CallbackSecret).Handler(),
		ReadHeaderTimeout: settings.Timeout,
		// Requests keep the process logger but outlive the shutdown signal.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	healthServer, err := newHealthServer(ctx, settings.GRPCHealthAddress)
	if err != nil {
		_ = lis.Close()

		return err
	}

	scheduler, err := startSweepSchedule(ctx, deps.service, &settings.Sweep)
	if err != nil {
		_ = lis.Close()
		healthServer.stop()

		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.InfoKV(ctx, "HTTP ingress listening",
			"listen_address", lis.Addr().String(),
			"version", version.Short(),
			"store", settings.Store.Driver,
			"push", settings.Push.Driver,
			"tasks", settings.Tasks.Driver)

		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}

		return nil
	})

	group.Go(healthServer.serve)

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down notifier")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
		defer cancel()

		if scheduler != nil {
			<-scheduler.Stop().Done()
		}

		healthServer.stop()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Notifier stopped")

	return nil
}

// RunSweep performs one unassigned sweep with the configured components and exits.
func RunSweep(ctx context.Context, configPath string) (dispatcher.SweepStats, error) {
	ctx = logger.WithName(ctx, version.Name)

	settings, err := loadSettings(configPath)
	if err != nil {
		return dispatcher.SweepStats{}, err
	}

	deps, err := buildComponents(ctx, settings)
	if err != nil {
		return dispatcher.SweepStats{}, fmt.Errorf("initialise components: %w", err)
	}

	defer deps.close(ctx)

	return deps.service.RunSweep(ctx)
}

func loadSettings(path string) (*config.Config, error) {
	settings, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	logger.Configure(settings.LogLevel, logger.Encoding(settings.LogFormat))

	return settings, nil
}

// healthServer is the optional gRPC health endpoint.
type healthServer struct {
	// grpcServer is nil when the endpoint is disabled.
	grpcServer *grpc.Server
	// status reports the service state.
	status *health.Server
	// lis is the bound listener.
	lis net.Listener
	// ctx carries the process logger.
	ctx context.Context //nolint:containedctx // Only used for logging from serve.
}

// newHealthServer binds the gRPC health endpoint when an address is configured.
func newHealthServer(ctx context.Context, address string) (*healthServer, error) {
	if address == "" {
		return &healthServer{ctx: ctx}, nil
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	status := health.NewServer()
	status.SetServingStatus(version.Name, healthpb.HealthCheckResponse_SERVING)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, status)

	return &healthServer{
		grpcServer: grpcServer,
		status:     status,
		lis:        lis,
		ctx:        ctx,
	}, nil
}

func (h *healthServer) serve() error {
	if h.grpcServer == nil {
		return nil
	}

	logger.InfoKV(h.ctx, "gRPC health listening", "listen_address", h.lis.Addr().String())

	if err := h.grpcServer.Serve(h.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC health: %w", err)
	}

	return nil
}

// stop marks the service as not serving and stops the server.
func (h *healthServer) stop() {
	if h.grpcServer == nil {
		return
	}

	h.status.Shutdown()
	h.grpcServer.GracefulStop()
}

// startSweepSchedule registers the daily sweep on a UTC cron. It returns nil when the sweep is disabled.
func startSweepSchedule(ctx context.Context, service *dispatcher.Service, settings *config.Sweep) (*cron.Cron, error) {
	if !settings.IsEnabled() {
		logger.Info(ctx, "Scheduled sweep is disabled")

		return nil, nil //nolint:nilnil // A disabled schedule has nothing to stop.
	}

	scheduler := cron.New(cron.WithLocation(time.UTC))

	_, err := scheduler.AddFunc(settings.Schedule, func() {
		sweepCtx := logger.WithName(ctx, "sweep")

		stats, err := service.RunSweep(sweepCtx)
		if err != nil {
			logger.ErrorKV(sweepCtx, "Scheduled sweep failed", "error", err)

			return
		}

		logger.InfoKV(sweepCtx, "Scheduled sweep finished",
			"families", stats.Families,
			"alerted", stats.Alerted,
			"skipped", stats.Skipped,
			"failed", stats.Failed)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", settings.Schedule, err)
	}

	scheduler.Start()
	logger.InfoKV(ctx, "Scheduled sweep registered", "schedule", settings.Schedule)

	return scheduler, nil
}

// resolveListenAddress prefers the override and falls back to the configured address.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	if _, _, err := net.SplitHostPort(configAddr); err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return configAddr, nil
}
