package history

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPruneInterval is how often the pruner sweeps when no interval is
// configured. Retention windows are measured in days, so a few sweeps per
// day is plenty.
const DefaultPruneInterval = 6 * time.Hour

// PruneStore deletes aged history entries. Satisfied by *SQLiteRepository.
type PruneStore interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Logger is the interface for structured logging within the pruner.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// PrunerOptions configures a Pruner.
type PrunerOptions struct {
	// Store is the repository to sweep. Required.
	Store PruneStore

	// Retention is how long entries are kept. Required, positive.
	Retention time.Duration

	// Interval is the sweep period. Default 6h.
	Interval time.Duration

	// Logger is optional.
	Logger Logger
}

// Pruner periodically deletes history entries older than the retention
// window. One sweep runs immediately at Start so a long-stopped bridge
// catches up without waiting out the first interval.
type Pruner struct {
	store     PruneStore
	retention time.Duration
	interval  time.Duration

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// NewPruner creates a pruner. Call Start to begin sweeping.
func NewPruner(opts PrunerOptions) (*Pruner, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("history: prune store is required")
	}
	if opts.Retention <= 0 {
		return nil, fmt.Errorf("history: retention must be positive")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPruneInterval
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Pruner{
		store:     opts.Store,
		retention: opts.Retention,
		interval:  opts.Interval,
		done:      make(chan struct{}),
		logger:    opts.Logger,
	}, nil
}

// Start launches the sweep loop.
func (p *Pruner) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop shuts the sweep loop down. Safe to call multiple times.
func (p *Pruner) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

func (p *Pruner) run(ctx context.Context) {
	defer p.wg.Done()

	p.sweep(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

// sweep runs one prune pass.
func (p *Pruner) sweep(ctx context.Context) {
	deleted, err := p.store.Prune(ctx, p.retention)
	if err != nil {
		p.logger.Error("history prune failed", "error", err)
		return
	}
	if deleted > 0 {
		p.logger.Info("history pruned", "deleted", deleted, "retention", p.retention)
	}
}
