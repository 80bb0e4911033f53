package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/domain/storedsearch"
	"github.com/kailas-cloud/searchagent/internal/logger"
	"github.com/kailas-cloud/searchagent/internal/metrics"
)

// Executor runs a single stored search: match, advance the watermark, dispatch.
type Executor struct {
	store         SearchStore
	matcher       Matcher
	channel       Channel
	clock         func() time.Time
	defaultLocale language.Tag
}

// NewExecutor creates an executor.
func NewExecutor(store SearchStore, matcher Matcher, channel Channel) *Executor {
	return &Executor{
		store:         store,
		matcher:       matcher,
		channel:       channel,
		clock:         time.Now,
		defaultLocale: language.Danish,
	}
}

// WithClock replaces the wall clock used to stamp watermarks.
func (e *Executor) WithClock(clock func() time.Time) *Executor {
	if clock != nil {
		e.clock = clock
	}
	return e
}

// WithDefaultLocale sets the locale used when a principal has none or an unparsable one.
func (e *Executor) WithDefaultLocale(tag language.Tag) *Executor {
	e.defaultLocale = tag
	return e
}

// Execute runs s under cfg. All failures are captured in the returned outcome.
// Watermark persistence and dispatch are independent: a failed save does not block the mail
// and a failed send does not roll back the watermark.
func (e *Executor) Execute(ctx context.Context, s storedsearch.StoredSearch, cfg RunConfig) run.Outcome {
	owner := s.Owner().Principal()
	if cfg.excludes(owner.Email()) {
		return run.NewFiltered(s.ID(), s.Section(), owner.Email())
	}

	log := logger.FromContext(ctx).With(
		zap.String("search_id", s.ID()),
		zap.String("section", string(s.Section())),
		zap.String("email", owner.Email()),
	)

	o := run.Outcome{
		SearchID:  s.ID(),
		Section:   s.Section(),
		Email:     owner.Email(),
		Dispatch:  run.DispatchNone,
		Attempted: true,
	}

	now := e.clock()
	// Listing times are kept in milliseconds. The run reports updates strictly before the
	// current millisecond and records the millisecond before it as the watermark, so an
	// update landing in the current millisecond is reported by the next run.
	cutoff := now.Truncate(time.Millisecond)
	wm, _ := s.Watermark()

	listings, err := e.match(ctx, s, wm, cfg.SearchTimeout)
	if err != nil {
		o.AddError(&run.MatchError{Err: err})
		log.Warn("Stored search match failed", zap.Error(err))
		metrics.ObserveSearch(string(s.Section()), "error", 0, e.clock().Sub(now))
		return o
	}
	listings = updatedBefore(listings, cutoff)
	o.Matches = len(listings)

	if !cfg.DryRun {
		next, advanced := s.WithWatermark(cutoff.Add(-time.Millisecond))
		if advanced {
			if err := e.store.Save(ctx, next); err != nil {
				nwm, _ := next.Watermark()
				o.AddError(&run.PersistenceError{Err: err})
				log.Error("Watermark persist failed", zap.Time("watermark", nwm), zap.Error(err))
			} else {
				o.Advanced = true
			}
		}
	}

	if o.Matches > 0 && cfg.SendNotifications && !cfg.DryRun {
		e.dispatch(ctx, log, s, owner, listings, &o)
	}

	result := "ok"
	if o.HasError() {
		result = "error"
	}
	metrics.ObserveSearch(string(s.Section()), result, o.Matches, e.clock().Sub(now))

	log.Debug("Stored search executed",
		zap.Int("matches", o.Matches),
		zap.Bool("advanced", o.Advanced),
		zap.String("dispatch", string(o.Dispatch)),
	)
	return o
}

func (e *Executor) match(
	ctx context.Context, s storedsearch.StoredSearch, wm time.Time, timeout time.Duration,
) ([]listing.Listing, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return e.matcher.Match(ctx, s.Section(), s.Criteria(), wm)
}

func updatedBefore(ls []listing.Listing, cutoff time.Time) []listing.Listing {
	out := make([]listing.Listing, 0, len(ls))
	for _, l := range ls {
		if l.UpdatedAt().Before(cutoff) {
			out = append(out, l)
		}
	}
	return out
}

func (e *Executor) dispatch(
	ctx context.Context, log *zap.Logger, s storedsearch.StoredSearch,
	owner principal.Principal, listings []listing.Listing, o *run.Outcome,
) {
	if !s.Enabled() {
		o.Dispatch = run.DispatchSkippedDisabled
		metrics.ObserveDispatch(string(s.Section()), string(o.Dispatch))
		return
	}

	if err := e.channel.Send(ctx, owner, e.locale(owner), s.Section(), listings); err != nil {
		o.Dispatch = run.DispatchFailed
		o.AddError(&run.SendError{Err: err})
		log.Error("Notification send failed", zap.Int("matches", len(listings)), zap.Error(err))
	} else {
		o.Dispatch = run.DispatchSent
	}
	metrics.ObserveDispatch(string(s.Section()), string(o.Dispatch))
}

func (e *Executor) locale(p principal.Principal) language.Tag {
	if p.PreferredLocale() == "" {
		return e.defaultLocale
	}
	tag, err := language.Parse(p.PreferredLocale())
	if err != nil {
		return e.defaultLocale
	}
	return tag
}
