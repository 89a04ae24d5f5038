package throttle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// entry is the persisted state of one bucket: its theoretical arrival time
// and the instant the state stops being meaningful.
type entry struct {
	tat       int64
	expiresAt time.Time
}

// MemoryStore implements Store with an in-process map. Suitable for
// single-process deployments and tests; state is neither shared across
// instances nor preserved across restarts.
//
// Expired entries are treated as absent on read. An optional background
// cleanup reclaims their memory; without it, memory is reclaimed lazily as
// expired buckets are reused.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]entry

	// Configuration
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	bucketsCreated atomic.Int64
	bucketsExpired atomic.Int64
}

// MemoryStoreStats provides observability metrics for monitoring and debugging.
type MemoryStoreStats struct {
	BucketsCreated int64 // Total number of buckets created
	BucketsExpired int64 // Total number of expired buckets reclaimed
	ActiveBuckets  int   // Current number of stored buckets, expired included
	IsRunning      bool  // Whether the cleanup goroutine is running
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the interval for reclaiming expired buckets.
// Set to 0 to disable background cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithMemoryStoreShutdownTimeout sets the graceful shutdown timeout.
func WithMemoryStoreShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithMemoryStoreLogger sets the logger for internal operations.
func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// NewMemoryStore creates a new in-memory store.
// Call Start() to begin background cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:         make(map[string]entry),
		cleanupInterval: 5 * time.Minute,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(ms)
	}

	return ms
}

// GetWithTime returns the stored theoretical arrival time for the key with
// the store's current time. Expired state reads as absent.
func (ms *MemoryStore) GetWithTime(ctx context.Context, key string) (int64, time.Time, error) {
	now := time.Now()

	ms.mu.RLock()
	e, exists := ms.buckets[key]
	ms.mu.RUnlock()

	if !exists || !e.expiresAt.After(now) {
		return StateAbsent, now, nil
	}
	return e.tat, now, nil
}

// SetIfNotExistsWithTTL writes the value only when no live state exists for
// the key.
func (ms *MemoryStore) SetIfNotExistsWithTTL(ctx context.Context, key string, tat int64, ttl time.Duration) (bool, error) {
	now := time.Now()

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if e, exists := ms.buckets[key]; exists && e.expiresAt.After(now) {
		return false, nil
	}
	ms.buckets[key] = entry{tat: tat, expiresAt: now.Add(ttl)}
	ms.bucketsCreated.Add(1)
	return true, nil
}

// CompareAndSwapWithTTL replaces the stored value only when the live value
// equals old, refreshing the expiry.
func (ms *MemoryStore) CompareAndSwapWithTTL(ctx context.Context, key string, old, new int64, ttl time.Duration) (bool, error) {
	now := time.Now()

	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, exists := ms.buckets[key]
	if !exists || !e.expiresAt.After(now) || e.tat != old {
		return false, nil
	}
	ms.buckets[key] = entry{tat: new, expiresAt: now.Add(ttl)}
	return true, nil
}

// Delete removes the key's state. Deleting an absent key is not an error.
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, key)
	return nil
}

// Start begins the background cleanup goroutine. This is a blocking operation
// that runs until the context is cancelled. Use Run() for errgroup pattern or
// call this in a goroutine.
func (ms *MemoryStore) Start(ctx context.Context) error {
	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return fmt.Errorf("memory store already started")
	}

	if ms.cleanupInterval <= 0 {
		ms.mu.Unlock()
		return fmt.Errorf("cleanup interval must be > 0, got %v (use WithCleanupInterval to configure)", ms.cleanupInterval)
	}

	ms.ctx, ms.cancel = context.WithCancel(ctx)
	ms.mu.Unlock()

	ms.running.Store(true)
	defer ms.running.Store(false)

	ms.logger.InfoContext(ms.ctx, "memory store cleanup started",
		slog.Duration("cleanup_interval", ms.cleanupInterval))

	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.ctx.Done():
			ms.logger.InfoContext(context.Background(), "memory store cleanup stopping")
			return ms.ctx.Err()
		case <-ticker.C:
			ms.cleanupWithWait()
		}
	}
}

// Stop gracefully shuts down the background cleanup with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return fmt.Errorf("memory store not started")
	}

	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	ms.logger.InfoContext(context.Background(), "memory store stopping, waiting for cleanup to complete",
		slog.Duration("timeout", ms.shutdownTimeout))

	ctx, ctxCancel := context.WithTimeout(context.Background(), ms.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ms.logger.InfoContext(context.Background(), "memory store stopped cleanly")
		return nil
	case <-ctx.Done():
		ms.logger.WarnContext(context.Background(), "memory store shutdown timeout exceeded",
			slog.Duration("timeout", ms.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the cleanup, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop() // Ignore stop error in normal shutdown
			<-errCh       // Wait for Start() to exit
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// cleanupWithWait wraps removeExpired so Stop can wait for an in-flight pass.
func (ms *MemoryStore) cleanupWithWait() {
	ms.mu.RLock()
	if ms.cancel == nil {
		ms.mu.RUnlock()
		return
	}
	ms.wg.Add(1)
	ms.mu.RUnlock()

	defer ms.wg.Done()
	ms.removeExpired()
}

// removeExpired reclaims buckets whose state has passed its expiry. Reads
// already treat those as absent; this only frees their memory.
func (ms *MemoryStore) removeExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()

	removed := 0
	for key, e := range ms.buckets {
		if !e.expiresAt.After(now) {
			delete(ms.buckets, key)
			removed++
		}
	}

	if removed > 0 {
		ms.bucketsExpired.Add(int64(removed))
	}
}

// Stats returns current memory store statistics for observability and
// monitoring. This method is thread-safe and can be called at any time.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.RLock()
	isRunning := ms.cancel != nil
	activeBuckets := len(ms.buckets)
	ms.mu.RUnlock()

	return MemoryStoreStats{
		BucketsCreated: ms.bucketsCreated.Load(),
		BucketsExpired: ms.bucketsExpired.Load(),
		ActiveBuckets:  activeBuckets,
		IsRunning:      isRunning,
	}
}

// Healthcheck validates that the memory store is operational.
// Returns nil if healthy, or an error describing the health issue.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	stats := ms.Stats()

	// If cleanup is configured but not running, it's unhealthy
	if ms.cleanupInterval > 0 && !stats.IsRunning {
		return fmt.Errorf("cleanup is configured but not running")
	}

	return nil
}
