package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/metrics"
	"github.com/kailas-cloud/searchagent/internal/usecase/notify"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SendMail    bool
	DryRun      bool
	OnlyUser    string
	Quiet       bool
	Workers     int
	FailOnError bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute every stored search once",
		Long: `Execute every stored search against the listing inventory.

Each search finds the listings of its section updated since its watermark,
advances the watermark and, with --send-mail, mails the owner when the
search is enabled and something new was found.

Example:
  searchagent run
  searchagent run --send-mail --workers 4
  searchagent run --dry-run --only-user ann@example.com
  searchagent run --format json --fail-on-error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearches(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SendMail, "send-mail", false, "send notifications (default from run.send_mail)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "match only; persist no watermark and send nothing")
	cmd.Flags().StringVar(&opts.OnlyUser, "only-user", "", "only execute searches owned by this email")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress progress output")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent searches (default from run.workers)")
	cmd.Flags().BoolVar(&opts.FailOnError, "fail-on-error", false, "exit 1 when any search failed")

	return cmd
}

func runSearches(cmd *cobra.Command, opts *RunOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jsonOut := opts.Format == "json"
	a, err := bootstrap(ctx, opts.RootOptions, opts.Quiet || jsonOut)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start", err)
	}
	defer a.close()

	if created, err := a.listings.EnsureIndex(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to ensure listing index", err)
	} else if created {
		a.log.Info("Listing index created")
	}

	cfg := runConfig(cmd, opts, a)
	out := cmd.OutOrStdout()
	if !jsonOut {
		cfg.Progress = newTextReporter(out, opts.Quiet)
	}

	summary, err := a.notifier.Run(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if url := a.cfg.Metrics.PushURL; url != "" {
		pushMetrics(a.log, url)
	}

	if jsonOut {
		if err := writeJSON(out, summary); err != nil {
			return WrapExitError(ExitCommandError, "failed to write summary", err)
		}
	}

	return exitForSummary(summary, opts.FailOnError)
}

// runConfig merges flags over the configured run defaults.
func runConfig(cmd *cobra.Command, opts *RunOptions, a *app) notify.RunConfig {
	sendMail := a.cfg.Run.SendMail
	if cmd.Flags().Changed("send-mail") {
		sendMail = opts.SendMail
	}
	return notify.RunConfig{
		SendNotifications:  sendMail,
		DryRun:             opts.DryRun,
		OnlyPrincipalEmail: opts.OnlyUser,
		Workers:            opts.Workers,
		SearchTimeout:      a.cfg.Run.SearchTimeout(),
	}
}

// pushMetrics runs on a fresh context so an interrupted run still reports.
func pushMetrics(log *zap.Logger, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	instance, _ := os.Hostname()
	if err := metrics.Push(ctx, url, instance); err != nil {
		log.Warn("Metrics push failed", zap.Error(err))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitForSummary maps a completed run to the process exit status.
func exitForSummary(s run.Summary, failOnError bool) error {
	if failOnError && s.Errors > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d searches failed", s.Errors, s.Processed))
	}
	return nil
}
