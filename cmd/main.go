package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "pump_control/docs"
	"pump_control/internal/app"
	"pump_control/internal/config"
	"pump_control/internal/handlers"
	"pump_control/internal/logger"
	"pump_control/internal/server"
	"pump_control/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title        Pump Control API
// @version      1.0
// @description  Decision cycles, alarm routing and audit history for Sensaphone-controlled pumps.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, configPath())
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("startup failed", "err", err)
	}
	defer a.Close()
	log := a.Log

	if a.Simulator != nil {
		go a.Simulator.Run(ctx, a.Config.Sensaphone.SimTick)
	}
	if every := a.Config.Cycle.Interval; every > 0 {
		go service.NewScheduler(a.Services, a.Source, log.Named("scheduler")).Run(ctx, every)
		log.Infow("scheduler_started", "interval", every)
	}

	apiHandler := handlers.NewHandler(a.Services, log,
		handlers.WithMetrics(a.Metrics.Handler()),
		handlers.WithStream(a.Stream),
	)

	// leave headroom over a full cycle
	srv := &server.Server{WriteTimeout: a.Config.Cycle.Timeout + 5*time.Second}
	runHTTPServer(srv, a.Config.Port, apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

// configPath honours PUMP_CONFIG, falling back to configs/config.yml.
func configPath() string {
	if p := os.Getenv("PUMP_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http_listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
