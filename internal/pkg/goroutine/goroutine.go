// Package goroutine runs background work under a bounded, waitable manager.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// DefaultDetachedTimeout bounds work started with Detached.
const DefaultDetachedTimeout = 10 * time.Second

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// Errors returned by tasks started with Go are collected and reported by Wait.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules f if capacity is available. When the manager is full or closed
// f is dropped and a warning is logged. A non-nil error from f is kept for Wait.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	g.spawn(pCtx, "", func(ctx context.Context) {
		if err := f(ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	})
}

// Detached runs f on a copy of ctx that keeps its values (correlation ID,
// span) but not its cancellation, bounded by DefaultDetachedTimeout.
// Errors are logged under name and otherwise dropped.
func (g *Manager) Detached(ctx context.Context, name string, f func(ctx context.Context) error) {
	dCtx := context.WithoutCancel(ctx)

	g.spawn(dCtx, name, func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, DefaultDetachedTimeout)
		defer cancel()

		if err := f(ctx); err != nil {
			slog.ErrorContext(ctx, "background task failed", "task", name, "error", err)
		}
	})
}

func (g *Manager) spawn(pCtx context.Context, name string, run func(ctx context.Context)) {
	if g == nil {
		return
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine", "task", name)
		return
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(pCtx, "maximum goroutine limit reached, failed to start new goroutine", "task", name)
		return
	}

	g.wg.Go(func() {
		defer func() {
			<-g.sema

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(pCtx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", paths)
				} else {
					slog.ErrorContext(pCtx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", string(stack))
				}
			}
		}()

		if err := pCtx.Err(); err != nil {
			slog.WarnContext(pCtx, "goroutine canceled", "task", name, "because", err)
			return
		}

		run(pCtx)
	})
}

// Wait stops accepting work, blocks until running goroutines finish and
// returns the joined errors of tasks started with Go.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
