// Package schedule runs notification runs on a cron schedule and on demand,
// never more than one at a time.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/usecase/notify"
)

var (
	// ErrRunInProgress is returned by Trigger while another run is active.
	ErrRunInProgress = errors.New("run already in progress")
	// ErrStopped is returned by Trigger after Stop or before Start.
	ErrStopped = errors.New("scheduler not running")
)

// Runner executes one notification run.
type Runner interface {
	Run(ctx context.Context, cfg notify.RunConfig) (run.Summary, error)
}

// Config holds scheduler settings.
type Config struct {
	// Enabled turns on the cron trigger. Manual triggers work either way.
	Enabled bool
	// Spec is a standard 5-field cron expression or a descriptor (@hourly, @every 30m).
	Spec     string
	Timezone string
	// Run is the base configuration of every run.
	Run notify.RunConfig
}

// Scheduler serializes runs coming from cron and from manual triggers.
type Scheduler struct {
	runner Runner
	cfg    Config
	loc    *time.Location
	log    *zap.Logger

	c *cron.Cron

	mu      sync.Mutex
	started bool
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New validates cfg and creates a scheduler. Call Start to begin.
func New(runner Runner, cfg Config, log *zap.Logger) (*Scheduler, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	s := &Scheduler{runner: runner, cfg: cfg, loc: loc, log: log}

	if cfg.Enabled {
		if _, err := parser.Parse(cfg.Spec); err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", cfg.Spec, err)
		}
		cl := cronLogger{l: log.Sugar()}
		s.c = cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		)
		if _, err := s.c.AddFunc(cfg.Spec, s.tick); err != nil {
			return nil, fmt.Errorf("register schedule: %w", err)
		}
	}
	return s, nil
}

// Start enables triggers and starts the cron loop. Runs inherit ctx values
// and are cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	if s.c != nil {
		s.c.Start()
		s.log.Info("Scheduler started",
			zap.String("spec", s.cfg.Spec),
			zap.String("tz", s.loc.String()),
			zap.Time("next", s.nextLocked()),
		)
	}
}

// Stop prevents new runs, cancels the active one and waits for it to wind down
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	if s.c != nil {
		s.c.Stop()
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for active run: %w", ctx.Err())
	}
}

// Trigger starts a run in the background. modify, if not nil, adjusts the
// base run configuration for this run only.
func (s *Scheduler) Trigger(modify func(*notify.RunConfig)) error {
	ctx, err := s.acquire()
	if err != nil {
		return err
	}

	cfg := s.cfg.Run
	if modify != nil {
		modify(&cfg)
	}

	go func() {
		defer s.release()
		s.execute(ctx, "manual", cfg)
	}()
	return nil
}

// Running reports whether a run is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Next returns the next scheduled activation, zero when cron is disabled.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

func (s *Scheduler) nextLocked() time.Time {
	if s.c == nil {
		return time.Time{}
	}
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// tick is the cron job. It runs synchronously so SkipIfStillRunning applies.
func (s *Scheduler) tick() {
	ctx, err := s.acquire()
	if err != nil {
		s.log.Warn("Scheduled run skipped", zap.Error(err))
		return
	}
	defer s.release()
	s.execute(ctx, "cron", s.cfg.Run)
}

func (s *Scheduler) acquire() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, ErrStopped
	}
	if s.running {
		return nil, ErrRunInProgress
	}
	s.running = true
	s.wg.Add(1)
	return s.ctx, nil
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Scheduler) execute(ctx context.Context, source string, cfg notify.RunConfig) {
	log := s.log.With(zap.String("trigger", source))
	summary, err := s.runner.Run(ctx, cfg)
	if err != nil {
		log.Error("Run failed", zap.Error(err))
		return
	}
	log.Info("Run completed",
		zap.String("run_id", summary.RunID),
		zap.Int("processed", summary.Processed),
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors),
	)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
