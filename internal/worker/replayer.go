package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ReplayConfig holds configuration for the pending event replayer.
type ReplayConfig struct {
	// PollInterval is how often to check for pending events (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of events replayed per poll (default: 20)
	BatchSize int
}

func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    20,
	}
}

// Replayer periodically journals outbox events the consumer never saw.
type Replayer struct {
	worker *JournalWorker
	config ReplayConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReplayer(worker *JournalWorker, config ReplayConfig) *Replayer {
	defaults := DefaultReplayConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	return &Replayer{worker: worker, config: config}
}

// Start begins the replay loop. Returns an error if already running.
func (r *Replayer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("replayer is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.runLoop(ctx, r.stopCh, r.doneCh)

	slog.InfoContext(ctx, "Event replayer started",
		"poll_interval", r.config.PollInterval,
		"batch_size", r.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch to finish.
func (r *Replayer) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Event replayer stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Event replayer stop timed out")
		return ctx.Err()
	}
}

func (r *Replayer) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Replayer) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	// Catch up immediately on startup
	r.replay(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.replay(ctx)
		}
	}
}

func (r *Replayer) replay(ctx context.Context) {
	n, err := r.worker.ProcessPending(ctx, r.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Replay batch failed", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Replay batch completed", "journaled", n)
	}
}
