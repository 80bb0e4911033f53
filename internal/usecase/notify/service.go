package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/domain/storedsearch"
	"github.com/kailas-cloud/searchagent/internal/logger"
	"github.com/kailas-cloud/searchagent/internal/metrics"
)

// ErrLoadSearches is the only hard failure of a run: the stored searches could not be loaded.
var ErrLoadSearches = errors.New("load stored searches")

// Service coordinates a run over all stored searches.
type Service struct {
	store          SearchStore
	exec           *Executor
	runs           RunRecorder
	clock          func() time.Time
	newID          func() string
	defaultWorkers int
}

// New creates a notification service.
func New(store SearchStore, matcher Matcher, channel Channel) *Service {
	return &Service{
		store:          store,
		exec:           NewExecutor(store, matcher, channel),
		clock:          time.Now,
		newID:          uuid.NewString,
		defaultWorkers: 1,
	}
}

// WithRunRecorder stores every finished summary in r.
func (s *Service) WithRunRecorder(r RunRecorder) *Service {
	s.runs = r
	return s
}

// WithClock replaces the wall clock for run timestamps and watermarks.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
		s.exec.WithClock(clock)
	}
	return s
}

// WithDefaultLocale sets the fallback notification locale.
func (s *Service) WithDefaultLocale(tag language.Tag) *Service {
	s.exec.WithDefaultLocale(tag)
	return s
}

// WithDefaultWorkers sets the pool size used when RunConfig.Workers is not set.
func (s *Service) WithDefaultWorkers(n int) *Service {
	if n > 0 {
		s.defaultWorkers = n
	}
	return s
}

// Run executes every stored search once. Per-search failures are reported in the summary;
// the returned error is non-nil only when the searches could not be loaded.
//
// Once ctx is cancelled no new search starts. Searches already running finish on a
// cancellation-detached context so a watermark is never left half-written; the rest are
// reported as not started.
func (s *Service) Run(ctx context.Context, cfg RunConfig) (run.Summary, error) {
	summary := run.Summary{
		RunID:     s.newID(),
		StartedAt: s.clock(),
		DryRun:    cfg.DryRun,
		SendMail:  cfg.SendNotifications,
	}

	ctx, log := logger.With(ctx,
		zap.String("run_id", summary.RunID),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Bool("send_mail", cfg.SendNotifications),
	)

	progress := newSyncProgress(cfg.Progress)

	searches, err := s.store.LoadAll(ctx)
	if err != nil {
		summary.FinishedAt = s.clock()
		metrics.ObserveRun("failed", summary.Duration(), summary.FinishedAt)
		log.Error("Loading stored searches failed", zap.Error(err))
		return summary, fmt.Errorf("%w: %w", ErrLoadSearches, err)
	}

	summary.Total = len(searches)
	progress.RunStarted(summary.Total)
	log.Info("Run started", zap.Int("searches", summary.Total))

	outcomes := s.executeAll(ctx, cfg, searches, progress)
	for _, o := range outcomes {
		summary.Add(o)
	}

	summary.FinishedAt = s.clock()
	progress.RunFinished(summary)
	s.finish(ctx, log, summary)

	return summary, nil
}

// executeAll drives the worker pool and returns the outcomes in load order.
func (s *Service) executeAll(
	ctx context.Context, cfg RunConfig, searches []storedsearch.StoredSearch, progress Progress,
) []run.Outcome {
	total := len(searches)
	outcomes := make([]run.Outcome, total)
	if total == 0 {
		return outcomes
	}

	pending := make([]int, 0, total)
	for i, ss := range searches {
		email := ss.Owner().Principal().Email()
		if cfg.excludes(email) {
			outcomes[i] = run.NewFiltered(ss.ID(), ss.Section(), email)
			metrics.ObserveSearch(string(ss.Section()), "filtered", 0, 0)
			continue
		}
		// Overwritten when the search runs; stays "not started" after cancellation.
		outcomes[i] = run.Outcome{SearchID: ss.ID(), Section: ss.Section(), Email: email, Dispatch: run.DispatchNone}
		pending = append(pending, i)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = s.defaultWorkers
	}
	workers = min(workers, max(len(pending), 1))

	type result struct {
		index   int
		outcome run.Outcome
	}

	jobs := make(chan int)
	results := make(chan result)
	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				ss := searches[i]
				progress.SearchStarted(i+1, total, ss.Section(), ss.Owner().Principal().Email())
				o := s.exec.Execute(detached, ss, cfg)
				progress.SearchFinished(o)
				results <- result{index: i, outcome: o}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, i := range pending {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		outcomes[r.index] = r.outcome
	}

	for _, i := range pending {
		if !outcomes[i].Attempted {
			ss := searches[i]
			metrics.ObserveSearch(string(ss.Section()), "not_started", 0, 0)
		}
	}

	return outcomes
}

func (s *Service) finish(ctx context.Context, log *zap.Logger, summary run.Summary) {
	status := "ok"
	if summary.Errors > 0 {
		status = "errors"
	}
	metrics.ObserveRun(status, summary.Duration(), summary.FinishedAt)

	fields := []zap.Field{
		zap.Int("total", summary.Total),
		zap.Int("processed", summary.Processed),
		zap.Int("filtered", summary.Filtered),
		zap.Int("not_started", summary.NotStarted),
		zap.Int("matches", summary.Matches),
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", summary.Duration()),
	}
	if summary.NotStarted > 0 {
		log.Warn("Run cancelled", fields...)
	} else {
		log.Info("Run finished", fields...)
	}

	if s.runs != nil {
		if err := s.runs.SaveLast(context.WithoutCancel(ctx), summary); err != nil {
			log.Warn("Saving run summary failed", zap.Error(err))
		}
	}
}

// syncProgress serializes Progress calls coming from several workers.
type syncProgress struct {
	mu    sync.Mutex
	inner Progress
}

func newSyncProgress(p Progress) *syncProgress {
	if p == nil {
		p = NopProgress{}
	}
	return &syncProgress{inner: p}
}

func (p *syncProgress) RunStarted(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inner.RunStarted(total)
}

func (p *syncProgress) SearchStarted(index, total int, section domain.Section, email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inner.SearchStarted(index, total, section, email)
}

func (p *syncProgress) SearchFinished(o run.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inner.SearchFinished(o)
}

func (p *syncProgress) RunFinished(s run.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inner.RunFinished(s)
}
