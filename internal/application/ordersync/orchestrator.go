// Package ordersync orchestrates order synchronization runs: window
// resolution, fetching, progressive degradation and run auditing.
package ordersync

import (
	"context"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/domain/commerce"
	syncdomain "github.com/orderpulse/backend/internal/domain/sync"
)

// degradeStrategies are the re-split granularities tried after a
// top-level sub-range fails. One-day units that still fail are skipped.
var degradeStrategies = []int{4, 2, 1}

// retryStrategies additionally start at week granularity; retry-period
// runs use degradation from the start.
var retryStrategies = []int{7, 4, 2, 1}

// StartOptions carries caller-supplied parameters for a run.
type StartOptions struct {
	// Window is the explicit window, for run types that accept one
	Window *syncdomain.DateRange

	// Weeks overrides the trailing-weeks span of a recent sync
	Weeks int

	// Months overrides the trailing-months span of a weekly sync
	Months int
}

// StatusReport summarizes the sync state for the status endpoint.
type StatusReport struct {
	Current *syncdomain.Run
	Last    *syncdomain.Run
	Orders  *commerce.OrderStats
}

// Config holds orchestrator tuning.
type Config struct {
	// RangeDelay is the pause between fetch units, keeping the overall
	// request rate inside the hub limit
	RangeDelay time.Duration
}

// Orchestrator runs order syncs. At most one run is in flight at a
// time; the run repository enforces that across processes.
type Orchestrator struct {
	cfg      Config
	platform commerce.PlatformClient
	runs     syncdomain.RunRepository
	orders   commerce.OrderRepository
	shops    commerce.ShopRepository
	logger   *zap.Logger
	loc      *time.Location

	now func() time.Time
	wg  stdsync.WaitGroup
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(
	cfg Config,
	platform commerce.PlatformClient,
	runs syncdomain.RunRepository,
	orders commerce.OrderRepository,
	shops commerce.ShopRepository,
	loc *time.Location,
	logger *zap.Logger,
) *Orchestrator {
	if loc == nil {
		loc = time.Local
	}
	o := &Orchestrator{
		cfg:      cfg,
		platform: platform,
		runs:     runs,
		orders:   orders,
		shops:    shops,
		logger:   logger.Named("ordersync"),
		loc:      loc,
	}
	o.now = func() time.Time { return time.Now().In(loc) }
	return o
}

// Start resolves the window for the run type, registers the run as the
// single in-flight run and launches the execution in the background.
// The returned run carries the resolved window; callers competing with
// an in-flight run get syncdomain.ErrAlreadyRunning.
func (o *Orchestrator) Start(ctx context.Context, typ syncdomain.RunType, opts StartOptions) (*syncdomain.Run, error) {
	if !typ.Valid() {
		return nil, syncdomain.ErrUnknownRunType
	}

	var lastCompleted *syncdomain.Run
	if typ == syncdomain.RunTypeSmartIncremental {
		var err error
		lastCompleted, err = o.runs.LastCompleted(ctx)
		if err != nil {
			return nil, err
		}
	}

	window, err := syncdomain.ResolveWindow(typ, syncdomain.WindowOptions{
		Explicit: opts.Window,
		Weeks:    opts.Weeks,
		Months:   opts.Months,
	}, o.now(), lastCompleted)
	if err != nil {
		return nil, err
	}

	run := syncdomain.NewRun(typ, window, o.now())
	if err := o.runs.Begin(ctx, run); err != nil {
		return nil, err
	}

	o.logger.Info("Sync run started",
		zap.String("run_id", run.ID.String()),
		zap.String("type", string(typ)),
		zap.String("window", window.String()),
	)

	// The run outlives the triggering request; execution gets its own
	// context so a client disconnect cannot abort it.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.execute(context.Background(), run)
	}()

	return run, nil
}

// Status reports the in-flight run, the last finished run and order
// store aggregates.
func (o *Orchestrator) Status(ctx context.Context) (*StatusReport, error) {
	current, err := o.runs.Running(ctx)
	if err != nil {
		return nil, err
	}
	last, err := o.runs.LastFinished(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := o.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusReport{Current: current, Last: last, Orders: stats}, nil
}

// History returns past runs, newest first.
func (o *Orchestrator) History(ctx context.Context, page, pageSize int) ([]syncdomain.Run, int64, error) {
	return o.runs.History(ctx, page, pageSize)
}

// Wait blocks until all in-flight executions finish. Used on shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) execute(ctx context.Context, run *syncdomain.Run) {
	log := o.logger.With(zap.String("run_id", run.ID.String()))

	shops, err := o.platform.ListShops(ctx)
	if err != nil {
		o.fail(ctx, run, err, log)
		return
	}
	if err := o.shops.UpsertBatch(ctx, shops); err != nil {
		o.fail(ctx, run, err, log)
		return
	}

	var totalSaved, skippedUnits, succeededRanges int

	for i, dr := range syncdomain.PlanRanges(run.Type, run.Window) {
		if i > 0 {
			if err := o.pause(ctx); err != nil {
				break
			}
		}

		var saved, skipped int
		var ok bool
		if run.Type == syncdomain.RunTypeRetryPeriod {
			saved, skipped, ok = o.degrade(ctx, dr, retryStrategies, log)
		} else {
			saved, err = o.fetchAndPersist(ctx, dr)
			if err == nil {
				ok = true
			} else {
				log.Warn("Sub-range fetch failed, degrading",
					zap.String("range", dr.String()),
					zap.Error(err),
				)
				saved, skipped, ok = o.degrade(ctx, dr, degradeStrategies, log)
			}
		}

		totalSaved += saved
		skippedUnits += skipped
		if ok {
			succeededRanges++
		}
	}

	if discovered, err := o.shops.DiscoverFromOrders(ctx); err != nil {
		log.Warn("Shop discovery failed", zap.Error(err))
	} else if discovered > 0 {
		log.Info("Discovered shops from orders", zap.Int("count", discovered))
	}

	run.Complete(totalSaved, skippedUnits, succeededRanges, o.now())
	if err := o.runs.Finish(ctx, run); err != nil {
		log.Error("Failed to finalize sync run", zap.Error(err))
		return
	}
	log.Info("Sync run finished",
		zap.String("status", string(run.Status)),
		zap.Int("orders", totalSaved),
		zap.Int("skipped_units", skippedUnits),
	)
}

func (o *Orchestrator) fail(ctx context.Context, run *syncdomain.Run, cause error, log *zap.Logger) {
	run.Fail(cause, o.now())
	if err := o.runs.Finish(ctx, run); err != nil {
		log.Error("Failed to finalize sync run", zap.Error(err))
	}
	log.Error("Sync run failed", zap.Error(cause))
}

// degrade re-fetches a failed range at progressively finer
// granularities. Ranges that keep failing are re-split down to single
// days; a failing day is logged and skipped so one bad window cannot
// wedge the whole run. Returns the saved order count, the skipped day
// count and whether anything succeeded.
func (o *Orchestrator) degrade(ctx context.Context, dr syncdomain.DateRange, strategies []int, log *zap.Logger) (int, int, bool) {
	var saved, skipped int
	var anySuccess bool

	failed := []syncdomain.DateRange{dr}
	for _, days := range strategies {
		if len(failed) == 0 {
			break
		}
		var stillFailing []syncdomain.DateRange

		for _, r := range failed {
			for _, sub := range syncdomain.SplitDays(r, days) {
				n, err := o.fetchAndPersist(ctx, sub)
				if err == nil {
					saved += n
					anySuccess = true
				} else if days > 1 {
					stillFailing = append(stillFailing, sub)
				} else {
					skipped++
					log.Warn("Skipping unrecoverable day",
						zap.String("day", sub.Start.Format(syncdomain.DateFormat)),
						zap.Error(err),
					)
				}
				if err := o.pause(ctx); err != nil {
					return saved, skipped, anySuccess
				}
			}
		}
		failed = stillFailing
	}
	return saved, skipped, anySuccess
}

// fetchAndPersist pulls one window from the hub and writes it in a
// single transaction.
func (o *Orchestrator) fetchAndPersist(ctx context.Context, dr syncdomain.DateRange) (int, error) {
	progress := make(chan commerce.FetchProgress, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			o.logger.Debug("Fetch progress",
				zap.String("range", dr.String()),
				zap.Int("fetched", p.Fetched),
				zap.Int("total", p.Total),
				zap.Int("percent", p.Percent),
			)
		}
	}()

	orders, err := o.platform.FetchAllOrders(ctx, dr.Start, dr.End, progress)
	close(progress)
	<-done
	if err != nil {
		return 0, err
	}

	if err := o.orders.UpsertBatch(ctx, orders); err != nil {
		return 0, err
	}
	return len(orders), nil
}

func (o *Orchestrator) pause(ctx context.Context) error {
	if o.cfg.RangeDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.cfg.RangeDelay):
		return nil
	}
}
