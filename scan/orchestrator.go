package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"trophyroom/achievements"
	"trophyroom/cache"
	"trophyroom/icons"
	"trophyroom/library"
	"trophyroom/logging"
	"trophyroom/metrics"
	"trophyroom/progress"
	"trophyroom/provider"
	"trophyroom/tracing"
)

const (
	// defaultProgressInterval rations progress emission during a run.
	defaultProgressInterval = 50 * time.Millisecond
	// defaultNotifyInterval rations cache-changed notifications.
	defaultNotifyInterval = 500 * time.Millisecond
)

// Settings carries the user decisions the orchestrator consults.
type Settings struct {
	QuickRefreshGameCount int
	IncludeUnplayed       bool
	// Providers maps provider name to enabled. Absent names are enabled.
	Providers map[string]bool

	ProgressInterval time.Duration
	NotifyInterval   time.Duration
}

func (s Settings) providerEnabled(name string) bool {
	if s.Providers == nil {
		return true
	}
	enabled, ok := s.Providers[name]
	return !ok || enabled
}

func (s Settings) progressInterval() time.Duration {
	if s.ProgressInterval > 0 {
		return s.ProgressInterval
	}
	return defaultProgressInterval
}

func (s Settings) notifyInterval() time.Duration {
	if s.NotifyInterval > 0 {
		return s.NotifyInterval
	}
	return defaultNotifyInterval
}

// Orchestrator drives refresh runs. At most one run is active at a time,
// guarded by a mutex over a nullable cancellation handle; everything else
// (cache reads, projections) runs concurrently with an active refresh.
type Orchestrator struct {
	lib       library.Source
	providers []provider.Provider
	cache     *cache.Manager
	icons     icons.Cache
	settings  Settings

	runMu  sync.Mutex
	cancel context.CancelFunc // non-nil while a run is active

	hub *statusHub
}

// New creates an orchestrator. iconCache may be nil when icon resolution is
// not wanted.
func New(lib library.Source, providers []provider.Provider, mgr *cache.Manager, iconCache icons.Cache, settings Settings) *Orchestrator {
	return &Orchestrator{
		lib:       lib,
		providers: providers,
		cache:     mgr,
		icons:     iconCache,
		settings:  settings,
		hub:       newStatusHub(),
	}
}

// IsRunning reports whether a refresh run is active.
func (o *Orchestrator) IsRunning() bool {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	return o.cancel != nil
}

// Cancel requests cooperative cancellation of the active run, if any.
func (o *Orchestrator) Cancel() {
	o.runMu.Lock()
	cancel := o.cancel
	o.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// LatestStatus returns the last known run status.
func (o *Orchestrator) LatestStatus() Status {
	return o.hub.latestStatus()
}

// LatestProgress returns the most recent progress report, if any.
func (o *Orchestrator) LatestProgress() (progress.Report, bool) {
	return o.hub.latestReport()
}

// SubscribeStatus registers a status listener; the returned func removes it.
func (o *Orchestrator) SubscribeStatus(fn func(Status)) func() {
	return o.hub.subscribeStatus(fn)
}

// SubscribeProgress registers a progress listener.
func (o *Orchestrator) SubscribeProgress(fn func(progress.Report)) func() {
	return o.hub.subscribeReport(fn)
}

// SubscribeCacheChanged registers a listener for the throttled cache-changed
// signal emitted while games are being saved.
func (o *Orchestrator) SubscribeCacheChanged(fn func()) func() {
	return o.hub.subscribeChanged(fn)
}

// Refresh performs one synchronous refresh run over the given scope.
//
// A request while a run is active is dropped (never queued): the last known
// status is re-emitted and ErrAlreadyRunning comes back. A request with no
// authenticated enabled provider is rejected without entering the running
// state.
func (o *Orchestrator) Refresh(ctx context.Context, opts Options) error {
	opts = opts.normalized()

	if len(o.activeProviders()) == 0 {
		o.hub.setStatus(Status{
			State:   StateError,
			Mode:    opts.Mode,
			Message: "no authenticated achievement provider is enabled",
		})
		return ErrNoProviders
	}

	o.runMu.Lock()
	if o.cancel != nil {
		o.runMu.Unlock()
		o.hub.reemit()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.runMu.Unlock()

	runCtx, span := tracing.StartSpan(runCtx, "scan.Refresh",
		tracing.WithAttributes(attribute.String("scan.mode", string(opts.Mode))),
	)
	defer span.End()

	o.hub.setStatus(Status{State: StateRunning, Mode: opts.Mode, Message: fmt.Sprintf("achievement refresh (%s) started", opts.Mode)})

	start := time.Now()
	saved, err := o.run(runCtx, opts)
	metrics.RecordRefreshDuration(string(opts.Mode), start)
	canceled := err != nil && (errors.Is(err, context.Canceled) || runCtx.Err() != nil)

	// Clear the running handle before any terminal status goes out, so an
	// observer never sees IsRunning together with a terminal report.
	o.runMu.Lock()
	o.cancel = nil
	o.runMu.Unlock()
	cancel()

	if saved > 0 {
		o.hub.notifyChanged()
		o.updateCacheGauge(context.Background())
	}

	tracing.AddSpanAttributes(span, attribute.Int("scan.games_saved", saved))

	switch {
	case canceled:
		o.hub.report(progress.Update{Canceled: true, Message: "refresh canceled"})
		o.hub.setStatus(Status{State: StateCanceled, Mode: opts.Mode, Message: "achievement refresh canceled", GamesSaved: saved})
		return context.Canceled
	case err != nil:
		tracing.RecordError(span, err)
		logging.Error("achievement refresh failed", "mode", opts.Mode, "error", err)
		o.hub.setStatus(Status{State: StateError, Mode: opts.Mode, Message: err.Error(), GamesSaved: saved})
		return err
	default:
		tracing.SetSpanOK(span)
		msg := fmt.Sprintf("achievement refresh (%s) finished: %d games updated", opts.Mode, saved)
		o.hub.setStatus(Status{State: StateCompleted, Mode: opts.Mode, Message: msg, GamesSaved: saved})
		return nil
	}
}

// run resolves targets and dispatches providers sequentially, returning the
// number of games whose records were saved.
func (o *Orchestrator) run(ctx context.Context, opts Options) (int, error) {
	targets, err := o.resolveTargets(ctx, opts)
	if err != nil {
		return 0, err
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	// Group targets by provider, keeping provider-list order.
	groups := make(map[string][]library.Entry, len(o.providers))
	for _, t := range targets {
		groups[t.provider.Name()] = append(groups[t.provider.Name()], t.entry)
	}

	total := len(targets)
	r := &run{
		o:            o,
		total:        total,
		progressGate: newEmitGate(o.settings.progressInterval()),
		notifyGate:   newEmitGate(o.settings.notifyInterval()),
	}

	r.emit(progress.Update{Message: fmt.Sprintf("scanning %d games", total), CurrentStep: 0, TotalSteps: total}, true)

	// Providers run one after another: rate limits stay per-provider and
	// global progress accounting stays a simple running offset. Parallel
	// provider dispatch is a deliberate extension point, not the default.
	offset := 0
	for _, p := range o.providers {
		games := groups[p.Name()]
		if len(games) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return r.savedCount(), err
		}

		logging.Info("scanning provider", "provider", p.Name(), "games", len(games))
		summary, err := p.Scan(ctx, games, r.progressFunc(p.Name(), offset), r.completedFunc(ctx, p.Name()))
		if summary != nil {
			metrics.GamesScanned.WithLabelValues(p.Name(), "scanned").Add(float64(summary.Scanned))
			metrics.GamesScanned.WithLabelValues(p.Name(), "no_data").Add(float64(summary.NoData))
			metrics.GamesScanned.WithLabelValues(p.Name(), "failed").Add(float64(summary.Failed))
		}
		if err != nil {
			return r.savedCount(), err
		}

		offset += len(games)
	}

	r.emit(progress.Update{Message: fmt.Sprintf("scanned %d games", total), CurrentStep: total, TotalSteps: total}, true)
	return r.savedCount(), nil
}

// run carries the mutable state of one refresh pass.
type run struct {
	o     *Orchestrator
	total int
	saved atomic.Int64

	progressGate *emitGate
	notifyGate   *emitGate
}

func (r *run) savedCount() int {
	return int(r.saved.Load())
}

// emit pushes a progress update through the throttle gate. Boundary updates
// (start, end, cancellation) force their way through.
func (r *run) emit(u progress.Update, force bool) {
	if !r.progressGate.allow(force) {
		return
	}
	r.o.hub.report(u)
}

// progressFunc adapts a provider's local 1-based progress into the global
// stream: the running offset makes the index monotonic across providers, and
// the 0-based completed count feeds the message text.
func (r *run) progressFunc(providerName string, offset int) provider.ProgressFunc {
	return func(p provider.Progress) {
		global := offset + p.Current
		if p.AuthRequired {
			logging.Warn("provider needs re-authentication", "provider", providerName, "game", p.GameName)
		}
		r.emit(progress.Update{
			Message:     fmt.Sprintf("%s (%d/%d done)", p.GameName, global-1, r.total),
			CurrentStep: global,
			TotalSteps:  r.total,
		}, global == r.total)
	}
}

// completedFunc persists one game's result as soon as the provider hands it
// over, so a canceled or crashed run keeps everything saved up to that
// point. A failed save is logged and surfaced through metrics but never
// aborts the run.
func (r *run) completedFunc(ctx context.Context, providerName string) provider.CompletedFunc {
	return func(game library.Entry, data *achievements.GameData) {
		if data == nil {
			return
		}

		if data.GameID == uuid.Nil {
			data.GameID = game.ID
		}
		if data.ProviderName == "" {
			data.ProviderName = providerName
		}
		if data.LibrarySource == "" {
			data.LibrarySource = game.SourceName
		}
		if data.LastUpdatedUtc.IsZero() {
			data.LastUpdatedUtc = time.Now().UTC()
		}

		// Remote icon URLs become local cache paths before the record is
		// written; a failed download keeps the URL and the save proceeds.
		if r.o.icons != nil {
			icons.Resolve(ctx, r.o.icons, data, providerName)
		}

		res := r.o.cache.Save(ctx, game.ID.String(), data)
		if !res.OK {
			logging.Error("failed to save achievement record",
				"game", game.Name, "code", res.Code, "message", res.Message, "error", res.Err)
			return
		}

		r.saved.Add(1)
		if r.notifyGate.allow(false) {
			r.o.hub.notifyChanged()
		}
	}
}

func (o *Orchestrator) updateCacheGauge(ctx context.Context) {
	s := o.cache.Store()
	if s == nil {
		return
	}
	if n, err := s.Count(ctx); err == nil {
		metrics.CachedGames.Set(float64(n))
	}
}
