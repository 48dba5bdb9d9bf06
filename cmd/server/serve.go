package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"hoa-http-service/internal/app/routes"
	"hoa-http-service/internal/domain/jobs"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/infrastructure/database"
	Logger "hoa-http-service/pkg/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the job scheduler (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := Logger.SetupLogger(); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	cfg := loadConfig()
	pool, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	db := pool.GetDB()

	serviceContainer := container.NewServiceContainer(db, cfg, services.NewRedisClient(cfg))
	board := serviceContainer.GetService("board").(services.InterfaceBoardService)
	if _, err := board.Bootstrap(cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
		return fmt.Errorf("bootstrap board member: %w", err)
	}

	runner := jobs.NewRunner(serviceContainer)
	var scheduler *jobs.Scheduler
	if cfg.JobsEnabled {
		scheduler, err = jobs.NewScheduler(runner)
		if err != nil {
			return fmt.Errorf("schedule jobs: %w", err)
		}
		scheduler.Start()
		Logger.Info("scheduler started with %d jobs", scheduler.Entries())
	}

	printSystemInfo(pool)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           routes.SetupRouter(serviceContainer, runner),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		Logger.Info("server listening on http://0.0.0.0:%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case sig := <-quit:
		Logger.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		Logger.Error("server shutdown: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	serviceContainer.GetService("auth").(services.InterfaceAuthService).Wait()
	Logger.Info("server stopped")
	return nil
}

// printSystemInfo logs the runtime and pool settings
func printSystemInfo(pool *database.ConnectionPool) {
	Logger.Info("Go %s, %d CPUs, GOMAXPROCS %d", runtime.Version(), runtime.NumCPU(), runtime.GOMAXPROCS(0))
	if stats, err := pool.Stats(); err == nil {
		Logger.Info("database pool: %v", stats)
	}
}
