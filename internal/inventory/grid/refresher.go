package grid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"imsystem/pkg/models"
)

const (
	DefaultRefreshInterval = 60 * time.Second
	DefaultFetchTimeout    = 30 * time.Second

	refreshKey = "snapshot"
)

var (
	ErrRefresherStarted = errors.New("refresher already started")
	ErrRefresherStopped = errors.New("refresher stopped")
)

// DataSource lists inventory records in the inclusive range [from, to].
type DataSource interface {
	ListRecords(ctx context.Context, from, to int) ([]models.Record, error)
}

// SnapshotCache keeps the last good snapshot outside the process so a
// restarted viewer has rows to show before its first fetch completes.
type SnapshotCache interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// RefreshObserver is notified about every fetch. Used for metrics.
type RefreshObserver interface {
	FetchCompleted(duration time.Duration, records int, err error)
	FetchShared()
}

type RefreshStatus struct {
	Version   uint64    `json:"version"`
	Records   int       `json:"records"`
	FetchedAt time.Time `json:"fetched_at"`
	Loading   bool      `json:"loading"`
	LastError string    `json:"last_error,omitempty"`
}

type RefresherOption func(*Refresher)

func WithInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithFetchTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithObserver(o RefreshObserver) RefresherOption {
	return func(r *Refresher) { r.observer = o }
}

func WithCache(c SnapshotCache) RefresherOption {
	return func(r *Refresher) { r.cache = c }
}

// Refresher keeps a Store current. It fetches once on Start and then on
// every interval tick until Stop. Manual and timer fetches share one
// in-flight call, so the store is never written by two fetches at once.
type Refresher struct {
	source   DataSource
	store    *Store
	logger   *zap.Logger
	interval time.Duration
	timeout  time.Duration
	observer RefreshObserver
	cache    SnapshotCache

	group   singleflight.Group
	loading atomic.Bool

	mu      sync.Mutex
	lastErr error
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func NewRefresher(source DataSource, store *Store, logger *zap.Logger, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		source:   source,
		store:    store,
		logger:   logger,
		interval: DefaultRefreshInterval,
		timeout:  DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the refresh loop. The loop ends when ctx is cancelled or
// Stop is called.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRefresherStopped
	}
	if r.cancel != nil {
		return ErrRefresherStarted
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(r.ctx, r.done)

	r.logger.Info("Inventory refresh loop started", zap.Duration("interval", r.interval))
	return nil
}

// Stop cancels the timer and waits for the loop to exit. A fetch that
// completes afterwards is discarded. Stop is idempotent.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	r.logger.Info("Inventory refresh loop stopped")
}

func (r *Refresher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	r.warm(ctx)
	_ = r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

// Refresh fetches a new snapshot now, or joins the fetch already in
// flight. Failures are logged and returned; the previous snapshot stays.
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.isStopped() {
		return ErrRefresherStopped
	}

	ch := r.group.DoChan(refreshKey, func() (any, error) {
		return nil, r.fetch()
	})

	select {
	case res := <-ch:
		if res.Shared && r.observer != nil {
			r.observer.FetchShared()
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) fetch() error {
	ctx, cancel := context.WithTimeout(r.lifetime(), r.timeout)
	defer cancel()

	r.loading.Store(true)
	defer r.loading.Store(false)

	start := time.Now()
	records, err := r.source.ListRecords(ctx, 0, MaxRecords-1)
	if r.observer != nil {
		r.observer.FetchCompleted(time.Since(start), len(records), err)
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		r.logger.Debug("Discarding inventory fetch that finished after stop")
		return nil
	}
	if err != nil {
		r.lastErr = err
		r.mu.Unlock()
		r.logger.Error("Error fetching inventory records", zap.Error(err))
		return fmt.Errorf("fetch inventory snapshot: %w", err)
	}
	snap := r.store.Replace(records, time.Now())
	r.lastErr = nil
	r.mu.Unlock()

	r.logger.Info("Inventory snapshot replaced",
		zap.Uint64("version", snap.Version),
		zap.Int("records", len(snap.Records)),
		zap.Duration("took", time.Since(start)),
	)

	r.save(ctx, snap)
	return nil
}

func (r *Refresher) warm(ctx context.Context) {
	if r.cache == nil {
		return
	}

	snap, err := r.cache.Load(ctx)
	if err != nil {
		r.logger.Warn("Unable to load cached inventory snapshot", zap.Error(err))
		return
	}
	if snap == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store.Load().Version > 0 {
		return
	}
	warmed := r.store.Replace(snap.Records, snap.FetchedAt)
	r.logger.Info("Inventory snapshot loaded from cache",
		zap.Int("records", len(warmed.Records)),
		zap.Time("fetched_at", warmed.FetchedAt),
	)
}

func (r *Refresher) save(ctx context.Context, snap *Snapshot) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Save(ctx, snap); err != nil {
		r.logger.Warn("Unable to cache inventory snapshot", zap.Error(err))
	}
}

func (r *Refresher) lifetime() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

func (r *Refresher) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *Refresher) Loading() bool {
	return r.loading.Load()
}

func (r *Refresher) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Refresher) Status() RefreshStatus {
	snap := r.store.Load()
	status := RefreshStatus{
		Version:   snap.Version,
		Records:   len(snap.Records),
		FetchedAt: snap.FetchedAt,
		Loading:   r.Loading(),
	}
	if err := r.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}

func (r *Refresher) Store() *Store {
	return r.store
}
