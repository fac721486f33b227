package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	_ "go.uber.org/automaxprocs"

	"atlashub/cmd/atlas-service/internal/biz"
	"atlashub/cmd/atlas-service/internal/infra"
	"atlashub/cmd/atlas-service/internal/server"
	"atlashub/pkg/observability"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name string = "atlas-service"
	// Version is the version of the compiled software.
	Version string = "v1.0.0"
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/atlas-service.yaml", "config path, eg: -conf config.yaml")
}

// App bundles the running pieces for startup and shutdown.
type App struct {
	config   *Config
	server   *server.HTTPServer
	store    *biz.SessionStore
	producer *infra.TurnProducer
	log      *log.Helper
}

func newApp(
	config *Config,
	logger log.Logger,
	srv *server.HTTPServer,
	store *biz.SessionStore,
	producer *infra.TurnProducer,
) *App {
	return &App{
		config:   config,
		server:   srv,
		store:    store,
		producer: producer,
		log:      log.NewHelper(logger),
	}
}

// Run starts the sweeper and the HTTP server, then blocks until a
// termination signal or a listener failure.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.store.Run(ctx, a.config.Session.SweepEvery())

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(a.config.Server.HTTP.Addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.Infof("received signal %s, shutting down", sig)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("http shutdown failed: %v", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Errorf("kafka producer close failed: %v", err)
	}

	a.log.Info("shutdown complete")
	return nil
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)
	helper := log.NewHelper(logger)

	config, err := loadConfig(flagconf)
	if err != nil {
		helper.Fatalf("failed to load config from %s: %v", flagconf, err)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName:    Name,
		ServiceVersion: Version,
		Environment:    config.Tracing.Env,
		Endpoint:       config.Tracing.Endpoint,
		SamplingRate:   config.Tracing.SampleRate,
		Enabled:        config.Tracing.Enabled(),
	})
	if err != nil {
		helper.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			helper.Errorf("tracing shutdown failed: %v", err)
		}
	}()

	app, cleanup, err := initApp(config, logger)
	if err != nil {
		helper.Fatalf("failed to initialize application: %v", err)
	}
	defer cleanup()

	helper.Infof("starting %s %s", Name, Version)
	if err := app.Run(); err != nil {
		helper.Fatalf("application exited with error: %v", err)
	}
}
