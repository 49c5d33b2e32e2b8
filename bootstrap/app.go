package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/definition"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/proc"
	"github.com/kbukum/flowkit/stream"
	"github.com/kbukum/flowkit/version"
	"github.com/kbukum/flowkit/work"
)

// App assembles the runtime a pipeline program needs from its Config:
// logger, worker pool, optional subprocess pool, definition loader, and
// the operation registry definitions resolve against.
//
// Example:
//
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//
//	app.RegisterOperation("split-words", splitWords())
//	p, err := app.Resolve("word-count")
type App struct {
	Name       string
	Cfg        *config.Config
	Logger     *logger.Logger
	Operations *flow.Registry[flow.Operation]

	workers *work.Pool
	procs   *proc.Pool
	loader  definition.Loader

	gracefulTimeout time.Duration
	onStop          []Hook

	closeOnce sync.Once
	closeErr  error
}

// NewApp creates a runtime from cfg. It applies defaults, validates the
// config, initializes the logger, and starts the configured pools.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	app := &App{
		Name:            cfg.Name,
		Cfg:             cfg,
		Operations:      flow.NewRegistry[flow.Operation](),
		gracefulTimeout: 15 * time.Second,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		app.Logger = logger.New(&cfg.Logging, cfg.Name)
	}

	if len(cfg.Definitions) > 0 {
		app.loader = definition.NewFileLoader(cfg.Definitions...)
	}

	app.workers = work.New(cfg.Workers.Size)
	if cfg.Procs.Size > 0 {
		pool, err := proc.NewPool(context.Background(), cfg.Procs.Size, proc.Command{
			Binary:      cfg.Procs.Binary,
			Args:        cfg.Procs.Args,
			GracePeriod: cfg.Procs.GracePeriod,
		})
		if err != nil {
			app.workers.Close()
			return nil, fmt.Errorf("starting subprocess pool: %w", err)
		}
		app.procs = pool
	}

	app.Logger.Info("Runtime ready", map[string]interface{}{
		"name":    app.Name,
		"version": version.GetShortVersion(),
		"workers": cfg.Workers.Size,
		"procs":   cfg.Procs.Size,
	})
	return app, nil
}

// Workers returns the goroutine pool sized from the config.
func (a *App) Workers() *work.Pool { return a.workers }

// Procs returns the subprocess pool, or nil when procs.size is zero.
func (a *App) Procs() *proc.Pool { return a.procs }

// RegisterOperation adds a named operation for definitions to reference.
func (a *App) RegisterOperation(name string, op flow.Operation) error {
	return a.Operations.Register(name, op)
}

// Resolve loads the named definition from the configured directories and
// builds its pipeline against the registered operations.
func (a *App) Resolve(name string) (*flow.Pipeline, error) {
	if a.loader == nil {
		return nil, fmt.Errorf("no definition directories configured")
	}
	return definition.Resolve(name, a.loader, a.Operations)
}

// RunOptions returns the flow options that wire the app's pools and
// logger into a pipeline run.
func (a *App) RunOptions() []flow.Option {
	opts := []flow.Option{
		flow.WithWorkers(a.workers),
		flow.WithLogger(a.Logger),
	}
	if a.procs != nil {
		opts = append(opts, flow.WithProcs(a.procs))
	}
	return opts
}

// Run executes the pipeline over in with the app's pools and logger
// wired in.
func (a *App) Run(ctx context.Context, p *flow.Pipeline, in stream.Stream) (stream.Stream, error) {
	return p.Run(ctx, in, a.RunOptions()...)
}

// RunTask executes a finite task with signal-based cancellation and
// shuts the app down when the task completes. Use it for batch pipeline
// programs that should stop cleanly on SIGINT/SIGTERM.
//
// Example:
//
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    out, err := app.Run(ctx, p, in)
//	    if err != nil {
//	        return err
//	    }
//	    return stream.ForEach(ctx, out, emit)
//	})
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.Close(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// WaitForSignal blocks until an OS interrupt/term signal or context
// cancellation.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, shutting down", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Close gracefully shuts the runtime down: stop hooks run first, then
// the pools are closed. Close is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() { a.closeErr = a.stop() })
	return a.closeErr
}

// stop runs stop hooks and closes the pools within the graceful timeout.
func (a *App) stop() error {
	a.Logger.Info("Shutting down runtime", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("Stop hook error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	if a.procs != nil {
		if err := a.procs.Close(); err != nil {
			a.Logger.Error("Subprocess pool close error", map[string]interface{}{
				"error": err.Error(),
			})
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}
	a.workers.Close()

	a.Logger.Info("Runtime shutdown complete")
	return shutdownErr
}
