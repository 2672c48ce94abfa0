package history

import (
	"log/slog"
	"sync"
	"time"
)

// RetentionConfig holds configuration for the retention cleaner.
type RetentionConfig struct {
	Retention time.Duration
	Interval  time.Duration
	Logger    *slog.Logger
}

// RetentionCleaner periodically deletes samples older than the retention period.
type RetentionCleaner struct {
	store     *Store
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewRetentionCleaner runs one cleanup immediately and then one per interval.
// Returns nil when retention is not positive (disabled).
func NewRetentionCleaner(store *Store, conf RetentionConfig) *RetentionCleaner {
	if conf.Retention <= 0 {
		return nil
	}
	if conf.Interval <= 0 {
		conf.Interval = time.Hour
	}
	if conf.Logger == nil {
		conf.Logger = slog.Default()
	}

	rc := &RetentionCleaner{
		store:     store,
		retention: conf.Retention,
		interval:  conf.Interval,
		logger:    conf.Logger,
		done:      make(chan struct{}),
	}

	rc.cleanup()

	rc.wg.Add(1)
	go rc.tickLoop()
	return rc
}

func (rc *RetentionCleaner) tickLoop() {
	defer rc.wg.Done()
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.cleanup()
		case <-rc.done:
			return
		}
	}
}

func (rc *RetentionCleaner) cleanup() {
	cutoff := time.Now().Add(-rc.retention)
	rows, err := rc.store.DeleteBefore(cutoff)
	if err != nil {
		rc.logger.Error("history: retention cleanup failed", "error", err)
		return
	}
	if rows > 0 {
		rc.logger.Info("history: retention cleanup", "deleted", rows, "retention", rc.retention)
	}
}

// Stop signals the cleaner to stop and waits for it to finish.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.wg.Wait()
	})
}
