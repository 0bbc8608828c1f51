package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"nfcattend/internal/controllers"
	"nfcattend/internal/providers"
	"nfcattend/internal/snapshot/interfaces"
	storage "nfcattend/internal/storage/interfaces"
	"nfcattend/internal/structures"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	WebServer *http.Server
	conf      *structures.Config
	logger    providers.Logger
	scheduler interfaces.SchedulerInterface
	store     storage.StoreInterface
}

func NewApp(healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface, store storage.StoreInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*App, error) {
	mux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		mux.Handle(route.Url, route.Handler)
	}
	mux.HandleFunc("GET /health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// outermost first: CORS answers preflights, then ids and access log, then metrics
	handler := providers.CORSMiddleware(
		providers.RequestMiddleware(logger,
			providers.MetricsMiddleware(metrics, mux)))

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:      conf,
		logger:    logger,
		scheduler: scheduler,
		store:     store,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then drains connections, writes a final
// snapshot and closes the store.
func (app *App) Run() error {
	app.logger.Infof(providers.TypeApp, "Starting %s with %s store", app.conf.AppName, app.store.Kind())
	app.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", app.WebServer.Addr)
		if err := app.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-stop:
		app.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	app.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.WebServer.Shutdown(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if err := app.scheduler.Persist(); err != nil && runErr == nil {
		runErr = err
	}
	if err := app.store.Close(); err != nil {
		app.logger.Errorf(providers.TypeApp, "Closing %s store: %s", app.store.Kind(), err)
	}
	if runErr == nil {
		app.logger.Infof(providers.TypeApp, "gracefully stopped")
	}
	return runErr
}
