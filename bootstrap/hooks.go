package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs during shutdown.
type Hook func(ctx context.Context) error

// OnStop registers a hook that runs during Close before the pools are
// stopped. Use this for cleanup tasks like flushing buffered outputs.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks executes a slice of hooks sequentially, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
