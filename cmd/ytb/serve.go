package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/api"
	"github.com/yourusername/ytb/api/handlers"
	"github.com/yourusername/ytb/internal/app"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server that queues and executes runs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolP("daemon", "d", false, "Start the server in the background and return")
}

func runServe(cmd *cobra.Command, args []string) error {
	if daemon, _ := cmd.Flags().GetBool("daemon"); daemon {
		pid, err := startDetachedServer()
		if err != nil {
			return err
		}
		fmt.Printf("Server started as daemon (PID: %d)\n", pid)
		return nil
	}

	rt, err := newServices(config, log)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireHistory(); err != nil {
		return err
	}

	log.Info("Starting ytb server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("output_dir", config.Download.OutputDir))

	hub := handlers.NewProgressHub(log)
	rt.runMgr.SetProgressSink(hub)

	queueMgr := app.NewQueueManager(rt.repo, rt.runMgr, rt.notifier, &config.Queue, rt.multiLogger, log)

	ctx := cmd.Context()
	if err := queueMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue manager: %w", err)
	}

	logsDir := ""
	if rt.multiLogger != nil {
		logsDir = rt.multiLogger.GetLogsDir()
	}
	router := api.SetupRouter(api.RouterDeps{
		QueueMgr:    queueMgr,
		RunMgr:      rt.runMgr,
		Hub:         hub,
		MultiLogger: rt.multiLogger,
		LogsDir:     logsDir,
		Logger:      log,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for a signal, a listener failure or auto-exit from the queue manager
	var result error
	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case <-queueMgr.Done():
		log.Info("Queue stayed empty, exiting")
	case err := <-serveErr:
		result = fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := queueMgr.Stop(); err != nil {
		log.Error("Error stopping queue manager", zap.Error(err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return result
}

// startDetachedServer re-executes this binary as a background server
func startDetachedServer() (int, error) {
	execPath, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"serve"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	cmd := exec.Command(execPath, args...)
	if cwd, err := os.Getwd(); err == nil {
		cmd.Dir = cwd
	}
	cmd.Env = os.Environ()
	setSysProcAttr(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()
	return pid, nil
}
