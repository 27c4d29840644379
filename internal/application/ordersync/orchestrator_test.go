package ordersync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/domain/commerce"
	syncdomain "github.com/orderpulse/backend/internal/domain/sync"
)

// Wednesday, fixed so trailing windows are deterministic.
var testNow = time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakePlatform struct {
	mu       stdsync.Mutex
	shops    []commerce.Shop
	shopsErr error
	// shopsGate, when set, blocks ListShops until closed
	shopsGate chan struct{}
	// fetchErr decides per window whether the fetch fails
	fetchErr func(start, end time.Time) error
	// ordersPerDay orders are returned for each day of the window
	ordersPerDay int

	fetched []syncdomain.DateRange
}

func (f *fakePlatform) ListShops(ctx context.Context) ([]commerce.Shop, error) {
	if f.shopsGate != nil {
		<-f.shopsGate
	}
	if f.shopsErr != nil {
		return nil, f.shopsErr
	}
	return f.shops, nil
}

func (f *fakePlatform) FetchAllOrders(ctx context.Context, start, end time.Time, progress chan<- commerce.FetchProgress) ([]commerce.Order, error) {
	window := syncdomain.DateRange{Start: start, End: end}
	f.mu.Lock()
	f.fetched = append(f.fetched, window)
	f.mu.Unlock()

	if f.fetchErr != nil {
		if err := f.fetchErr(start, end); err != nil {
			return nil, err
		}
	}

	var orders []commerce.Order
	for i := 0; i < window.Days(); i++ {
		d := start.AddDate(0, 0, i)
		for j := 0; j < f.ordersPerDay; j++ {
			orders = append(orders, commerce.Order{
				UniqueID:  fmt.Sprintf("%s-%d", d.Format(syncdomain.DateFormat), j),
				ShopCode:  "B378",
				Status:    commerce.OrderStatusDelivered,
				OrderedAt: d,
			})
		}
	}
	return orders, nil
}

func (f *fakePlatform) windows() []syncdomain.DateRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]syncdomain.DateRange, len(f.fetched))
	copy(out, f.fetched)
	return out
}

type fakeRunRepo struct {
	mu       stdsync.Mutex
	running  *syncdomain.Run
	finished []syncdomain.Run
}

func (r *fakeRunRepo) Begin(ctx context.Context, run *syncdomain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running != nil {
		return syncdomain.ErrAlreadyRunning
	}
	cp := *run
	r.running = &cp
	return nil
}

func (r *fakeRunRepo) Finish(ctx context.Context, run *syncdomain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running == nil || r.running.ID != run.ID {
		return syncdomain.ErrRunNotFound
	}
	r.running = nil
	r.finished = append(r.finished, *run)
	return nil
}

func (r *fakeRunRepo) Running(ctx context.Context) (*syncdomain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running == nil {
		return nil, nil
	}
	cp := *r.running
	return &cp, nil
}

func (r *fakeRunRepo) LastFinished(ctx context.Context) (*syncdomain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.finished) == 0 {
		return nil, nil
	}
	cp := r.finished[len(r.finished)-1]
	return &cp, nil
}

func (r *fakeRunRepo) LastCompleted(ctx context.Context) (*syncdomain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.finished) - 1; i >= 0; i-- {
		if r.finished[i].Status == syncdomain.RunStatusCompleted {
			cp := r.finished[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRunRepo) History(ctx context.Context, page, pageSize int) ([]syncdomain.Run, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]syncdomain.Run(nil), r.finished...), int64(len(r.finished)), nil
}

func (r *fakeRunRepo) lastFinished(t *testing.T) syncdomain.Run {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.finished)
	return r.finished[len(r.finished)-1]
}

type fakeOrderRepo struct {
	mu        stdsync.Mutex
	saved     int
	upsertErr error
}

func (r *fakeOrderRepo) UpsertBatch(ctx context.Context, orders []commerce.Order) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	r.saved += len(orders)
	r.mu.Unlock()
	return nil
}

func (r *fakeOrderRepo) DailyRevenue(ctx context.Context, q commerce.RevenueQuery) ([]commerce.DailyRevenue, error) {
	return nil, nil
}

func (r *fakeOrderRepo) Stats(ctx context.Context) (*commerce.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &commerce.OrderStats{TotalOrders: int64(r.saved)}, nil
}

func (r *fakeOrderRepo) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}

type fakeShopRepo struct {
	mu         stdsync.Mutex
	upserted   []commerce.Shop
	discovered int
}

func (r *fakeShopRepo) UpsertBatch(ctx context.Context, shops []commerce.Shop) error {
	r.mu.Lock()
	r.upserted = append(r.upserted, shops...)
	r.mu.Unlock()
	return nil
}

func (r *fakeShopRepo) DiscoverFromOrders(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discovered, nil
}

func (r *fakeShopRepo) List(ctx context.Context) ([]commerce.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]commerce.Shop(nil), r.upserted...), nil
}

func newTestOrchestrator(platform *fakePlatform, runs *fakeRunRepo, orders *fakeOrderRepo, shops *fakeShopRepo) *Orchestrator {
	o := NewOrchestrator(Config{}, platform, runs, orders, shops, time.UTC, zap.NewNop())
	o.now = func() time.Time { return testNow }
	return o
}

func TestIncrementalRunCompletes(t *testing.T) {
	platform := &fakePlatform{
		shops:        []commerce.Shop{{Code: "A077", Name: "SmartStore"}},
		ordersPerDay: 2,
	}
	runs := &fakeRunRepo{}
	orders := &fakeOrderRepo{}
	shops := &fakeShopRepo{}
	o := newTestOrchestrator(platform, runs, orders, shops)

	run, err := o.Start(context.Background(), syncdomain.RunTypeIncremental, StartOptions{})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.RunStatusRunning, run.Status)
	assert.Equal(t, day(2025, 6, 12), run.Window.Start)
	assert.Equal(t, day(2025, 6, 18), run.Window.End)

	o.Wait()

	done := runs.lastFinished(t)
	assert.Equal(t, syncdomain.RunStatusCompleted, done.Status)
	assert.Equal(t, 14, done.TotalCount)
	assert.Equal(t, 0, done.SkippedUnits)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, 14, orders.savedCount())
	assert.Len(t, shops.upserted, 1)
}

func TestStartRejectsUnknownType(t *testing.T) {
	o := newTestOrchestrator(&fakePlatform{}, &fakeRunRepo{}, &fakeOrderRepo{}, &fakeShopRepo{})

	_, err := o.Start(context.Background(), syncdomain.RunType("bogus"), StartOptions{})
	assert.ErrorIs(t, err, syncdomain.ErrUnknownRunType)
}

func TestConcurrentStartIsRejected(t *testing.T) {
	gate := make(chan struct{})
	platform := &fakePlatform{shopsGate: gate, ordersPerDay: 1}
	runs := &fakeRunRepo{}
	o := newTestOrchestrator(platform, runs, &fakeOrderRepo{}, &fakeShopRepo{})

	first, err := o.Start(context.Background(), syncdomain.RunTypeIncremental, StartOptions{})
	require.NoError(t, err)

	// While the first run is executing, a second trigger is refused.
	_, err = o.Start(context.Background(), syncdomain.RunTypeFull, StartOptions{
		Window: &syncdomain.DateRange{Start: day(2025, 6, 1), End: day(2025, 6, 3)},
	})
	assert.ErrorIs(t, err, syncdomain.ErrAlreadyRunning)

	close(gate)
	o.Wait()

	// The rejected trigger did not disturb the first run.
	done := runs.lastFinished(t)
	assert.Equal(t, first.ID, done.ID)
	assert.Equal(t, syncdomain.RunStatusCompleted, done.Status)

	// And the slot is free again.
	_, err = o.Start(context.Background(), syncdomain.RunTypeIncremental, StartOptions{})
	assert.NoError(t, err)
	o.Wait()
}

func TestDegradationRecoversAtFinerGranularity(t *testing.T) {
	// The 7-day fetch fails, every smaller window succeeds.
	platform := &fakePlatform{
		ordersPerDay: 1,
		fetchErr: func(start, end time.Time) error {
			if (syncdomain.DateRange{Start: start, End: end}).Days() > 4 {
				return errors.New("gateway timeout")
			}
			return nil
		},
	}
	runs := &fakeRunRepo{}
	orders := &fakeOrderRepo{}
	o := newTestOrchestrator(platform, runs, orders, &fakeShopRepo{})

	_, err := o.Start(context.Background(), syncdomain.RunTypeIncremental, StartOptions{})
	require.NoError(t, err)
	o.Wait()

	done := runs.lastFinished(t)
	assert.Equal(t, syncdomain.RunStatusCompleted, done.Status)
	assert.Equal(t, 0, done.SkippedUnits)
	assert.Equal(t, 7, done.TotalCount)
	assert.Equal(t, 7, orders.savedCount())
}

func TestDegradationSkipsUnrecoverableDay(t *testing.T) {
	poison := day(2025, 6, 15)
	platform := &fakePlatform{
		ordersPerDay: 1,
		fetchErr: func(start, end time.Time) error {
			r := syncdomain.DateRange{Start: start, End: end}
			if r.Contains(poison) {
				return errors.New("bad window")
			}
			return nil
		},
	}
	runs := &fakeRunRepo{}
	orders := &fakeOrderRepo{}
	o := newTestOrchestrator(platform, runs, orders, &fakeShopRepo{})

	_, err := o.Start(context.Background(), syncdomain.RunTypeIncremental, StartOptions{})
	require.NoError(t, err)
	o.Wait()

	done := runs.lastFinished(t)
	assert.Equal(t, syncdomain.RunStatusPartial, done.Status)
	assert.Equal(t, 1, done.SkippedUnits)
	// All other days of the week were still saved.
	assert.Equal(t, 6, done.TotalCount)
	assert.Equal(t, 6, orders.savedCount())
}

func TestRunFailsWhenNothingSucceeds(t *testing.T) {
	platform := &fakePlatform{
		fetchErr: func(start, end time.Time) error { return errors.New("down") },
	}
	runs := &fakeRunRepo{}
	o := newTestOrchestrator(platform, runs, &fakeOrderRepo{}, &fakeShopRepo{})

	_, err := o.Start(context.Background(), syncdomain.RunTypeIncremental, StartOptions{})
	require.NoError(t, err)
	o.Wait()

	done := runs.lastFinished(t)
	assert.Equal(t, syncdomain.RunStatusFailed, done.Status)
	assert.Equal(t, 7, done.SkippedUnits)
	assert.Equal(t, 0, done.TotalCount)
}

func TestShopRefreshFailureFailsRun(t *testing.T) {
	platform := &fakePlatform{shopsErr: errors.New("auth rejected")}
	runs := &fakeRunRepo{}
	o := newTestOrchestrator(platform, runs, &fakeOrderRepo{}, &fakeShopRepo{})

	_, err := o.Start(context.Background(), syncdomain.RunTypeIncremental, StartOptions{})
	require.NoError(t, err)
	o.Wait()

	done := runs.lastFinished(t)
	assert.Equal(t, syncdomain.RunStatusFailed, done.Status)
	assert.Contains(t, done.ErrorMessage, "auth rejected")
	assert.Empty(t, platform.windows())
}

func TestRetryPeriodFetchesInWeekUnits(t *testing.T) {
	platform := &fakePlatform{ordersPerDay: 1}
	runs := &fakeRunRepo{}
	o := newTestOrchestrator(platform, runs, &fakeOrderRepo{}, &fakeShopRepo{})

	window := syncdomain.DateRange{Start: day(2025, 6, 1), End: day(2025, 6, 10)}
	_, err := o.Start(context.Background(), syncdomain.RunTypeRetryPeriod, StartOptions{Window: &window})
	require.NoError(t, err)
	o.Wait()

	fetched := platform.windows()
	require.Len(t, fetched, 2)
	assert.Equal(t, 7, fetched[0].Days())
	assert.Equal(t, 3, fetched[1].Days())

	done := runs.lastFinished(t)
	assert.Equal(t, syncdomain.RunStatusCompleted, done.Status)
	assert.Equal(t, 10, done.TotalCount)
}

func TestSmartRunUsesLastCompletedWindow(t *testing.T) {
	runs := &fakeRunRepo{}
	prior := syncdomain.NewRun(syncdomain.RunTypeIncremental, syncdomain.DateRange{
		Start: day(2025, 6, 8), End: day(2025, 6, 14),
	}, testNow.AddDate(0, 0, -4))
	prior.Complete(100, 0, 1, testNow.AddDate(0, 0, -4))
	runs.finished = append(runs.finished, *prior)

	platform := &fakePlatform{ordersPerDay: 1}
	o := newTestOrchestrator(platform, runs, &fakeOrderRepo{}, &fakeShopRepo{})

	run, err := o.Start(context.Background(), syncdomain.RunTypeSmartIncremental, StartOptions{})
	require.NoError(t, err)
	o.Wait()

	// Reaches back two days before the last completed end, up to today.
	assert.Equal(t, day(2025, 6, 12), run.Window.Start)
	assert.Equal(t, day(2025, 6, 18), run.Window.End)
}

func TestStatusReport(t *testing.T) {
	runs := &fakeRunRepo{}
	orders := &fakeOrderRepo{saved: 42}
	o := newTestOrchestrator(&fakePlatform{ordersPerDay: 1}, runs, orders, &fakeShopRepo{})
	ctx := context.Background()

	report, err := o.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, report.Current)
	assert.Nil(t, report.Last)
	assert.Equal(t, int64(42), report.Orders.TotalOrders)

	_, err = o.Start(ctx, syncdomain.RunTypeIncremental, StartOptions{})
	require.NoError(t, err)
	o.Wait()

	report, err = o.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, report.Current)
	require.NotNil(t, report.Last)
	assert.Equal(t, syncdomain.RunStatusCompleted, report.Last.Status)
}
