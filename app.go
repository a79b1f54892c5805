package fastpubsub

import (
	"context"

	"github.com/fastpubsub/fastpubsub/internal/obslog"
)

// HookFunc is a lifecycle callback bound to an App. Hooks run sequentially
// in registration order; a startup hook error aborts Start, while shutdown
// hook errors are logged and the remaining hooks still run.
type HookFunc func(ctx context.Context) error

// App binds hook callbacks around a Broker's lifecycle. It is deliberately
// thin: the broker does all the work, the app only decides what runs before
// and after it.
type App struct {
	broker *Broker

	onStartup     []HookFunc
	afterStartup  []HookFunc
	onShutdown    []HookFunc
	afterShutdown []HookFunc
}

// NewApp wraps broker in an App with no hooks registered.
func NewApp(broker *Broker) *App {
	return &App{broker: broker}
}

// Broker returns the wrapped broker, for registering HTTP probes or
// publishing from application code.
func (a *App) Broker() *Broker { return a.broker }

// OnStartup registers h to run before the broker starts.
func (a *App) OnStartup(h HookFunc) *App {
	a.onStartup = append(a.onStartup, h)
	return a
}

// AfterStartup registers h to run once the broker has started.
func (a *App) AfterStartup(h HookFunc) *App {
	a.afterStartup = append(a.afterStartup, h)
	return a
}

// OnShutdown registers h to run before the broker shuts down.
func (a *App) OnShutdown(h HookFunc) *App {
	a.onShutdown = append(a.onShutdown, h)
	return a
}

// AfterShutdown registers h to run once the broker has shut down.
func (a *App) AfterShutdown(h HookFunc) *App {
	a.afterShutdown = append(a.afterShutdown, h)
	return a
}

// Start runs the on-startup hooks, starts the broker (subscriber selection
// comes from FASTPUBSUB_SUBSCRIBERS), then runs the after-startup hooks.
func (a *App) Start(ctx context.Context) error {
	if err := runHooks(ctx, a.onStartup); err != nil {
		return err
	}
	if err := a.broker.Start(ctx, nil); err != nil {
		return err
	}
	return runHooks(ctx, a.afterStartup)
}

// Shutdown runs the on-shutdown hooks, shuts the broker down, then runs the
// after-shutdown hooks. Hook errors during shutdown are logged rather than
// returned, so a failing hook cannot block the broker from stopping.
func (a *App) Shutdown(ctx context.Context) error {
	log := obslog.Component("app")
	for _, h := range a.onShutdown {
		if err := h(ctx); err != nil {
			log.Warn().Err(err).Msg("on-shutdown hook failed")
		}
	}
	err := a.broker.Shutdown()
	for _, h := range a.afterShutdown {
		if hookErr := h(ctx); hookErr != nil {
			log.Warn().Err(hookErr).Msg("after-shutdown hook failed")
		}
	}
	return err
}

func runHooks(ctx context.Context, hooks []HookFunc) error {
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}
