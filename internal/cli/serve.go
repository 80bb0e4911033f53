package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchagent/internal/logger"
	"github.com/kailas-cloud/searchagent/internal/schedule"
	chiTransport "github.com/kailas-cloud/searchagent/internal/transport/chi"
	healthuc "github.com/kailas-cloud/searchagent/internal/usecase/health"
	"github.com/kailas-cloud/searchagent/internal/usecase/notify"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP API",
		Long: `Run searchagent as a daemon.

Runs are started by the cron schedule in the config (schedule.enabled) or
through POST /runs. Only one run is active at a time.

Example:
  searchagent serve
  ENV=prod searchagent serve --port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "HTTP port (default from http.port)")

	return cmd
}

func serve(parent context.Context, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, opts.RootOptions, false)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start", err)
	}
	defer a.close()

	if created, err := a.listings.EnsureIndex(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to ensure listing index", err)
	} else if created {
		a.log.Info("Listing index created")
	}

	sched, err := schedule.New(a.notifier, schedule.Config{
		Enabled:  a.cfg.Schedule.Enabled,
		Spec:     a.cfg.Schedule.Spec,
		Timezone: a.cfg.Schedule.Timezone,
		Run: notify.RunConfig{
			SendNotifications: a.cfg.Run.SendMail,
			DryRun:            a.cfg.Schedule.DryRun,
			SearchTimeout:     a.cfg.Run.SearchTimeout(),
		},
	}, a.log.Named("schedule"))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid schedule", err)
	}

	health := healthuc.New(a.store, a.channel)
	server := chiTransport.NewServer(sched, a.runs, health, a.log)

	port := a.cfg.HTTP.Port
	if opts.Port > 0 {
		port = opts.Port
	}
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(a.cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return logger.ContextWithLogger(ctx, a.log) },
	}

	sched.Start(logger.ContextWithLogger(context.WithoutCancel(ctx), a.log))
	if next := sched.Next(); !next.IsZero() {
		a.log.Info("Schedule enabled", zap.String("spec", a.cfg.Schedule.Spec), zap.Time("next", next))
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("Received shutdown signal")
	case serveErr = <-errCh:
		if serveErr != nil {
			a.log.Error("HTTP server error", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Error during HTTP shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		a.log.Error("Error waiting for the active run", zap.Error(err))
	}

	if serveErr != nil {
		return WrapExitError(ExitCommandError, "http server failed", serveErr)
	}
	a.log.Info("Server stopped gracefully")
	return nil
}
