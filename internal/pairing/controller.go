package pairing

import (
	"context"
	"log/slog"
	"time"

	framework "github.com/bhandras/wcpair/internal/actor"
	"github.com/bhandras/wcpair/internal/metrics"
	"github.com/bhandras/wcpair/pkg/logger"
)

// Controller is the pairing command actor.
//
// Commands are dispatched one at a time in submission order. Provider calls
// run in the background and report back through the same mailbox, so the
// published State stream is totally ordered.
type Controller struct {
	actor   *framework.Actor[Model]
	runtime *Runtime
	states  *framework.Stream[State]
	log     *slog.Logger
	metrics *metrics.Collector
}

type controllerOptions struct {
	log     *slog.Logger
	metrics *metrics.Collector
	timeout time.Duration
}

// Option configures a Controller.
type Option func(*controllerOptions)

// WithLogger sets the structured logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *controllerOptions) { o.log = l }
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *controllerOptions) { o.metrics = m }
}

// WithProviderTimeout bounds each session and asset provider call. The
// session watcher subscription is not affected.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *controllerOptions) { o.timeout = d }
}

// NewController builds a controller over the given providers. The empty
// initial state is published right away, and a LoadSession command is queued
// so that it is the first command dispatched after Start.
func NewController(sessions SessionProvider, assets AssetProvider, opts ...Option) *Controller {
	o := controllerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logger.OrDiscard(o.log)

	c := &Controller{
		runtime: NewRuntime(sessions, assets, o.log, o.metrics, o.timeout),
		states:  framework.NewStream[State](),
		log:     o.log,
		metrics: o.metrics,
	}
	c.actor = framework.New[Model](Model{}, Reduce, c.runtime,
		framework.WithHooks(framework.Hooks[Model]{
			OnInput:      c.onInput,
			OnTransition: c.onTransition,
			OnPanic:      c.onPanic,
		}),
	)
	c.states.Publish(c.actor.State().State)
	c.Submit(LoadSession)
	return c
}

// Start launches the dispatch loop.
func (c *Controller) Start() {
	c.actor.Start()
}

// Stop cancels all background work and ends every Observe subscription.
// Submit becomes a no-op afterwards.
func (c *Controller) Stop() {
	c.actor.Stop()
	c.states.Close()
}

// Done is closed once the dispatch loop has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.actor.Done()
}

// Wait blocks until the dispatch loop and all background tasks have exited.
// It must only be called after Start and Stop.
func (c *Controller) Wait() {
	<-c.actor.Done()
	c.runtime.Wait()
}

// Submit queues an action. It never blocks.
func (c *Controller) Submit(a Action) {
	in, ok := a.input()
	if !ok {
		c.log.Warn("ignoring unknown action", "action", string(a))
		return
	}
	if !c.actor.Enqueue(in) {
		c.log.Debug("controller stopped, dropping action", "action", string(a))
	}
}

// Observe returns the state stream: the latest snapshot first, then every
// later change. The channel closes when ctx is canceled or the controller
// stops.
func (c *Controller) Observe(ctx context.Context) <-chan State {
	return c.states.Subscribe(ctx)
}

// State returns the current snapshot.
func (c *Controller) State() State {
	return c.actor.State().State
}

func (c *Controller) onInput(in framework.Input) {
	action, ok := actionOf(in)
	if !ok {
		return
	}
	c.metrics.CommandDispatched(string(action))
	c.log.Debug("dispatching command", "action", string(action))
}

func (c *Controller) onTransition(prev, next Model, _ framework.Input) {
	if prev.State.Equal(next.State) {
		return
	}
	c.states.Publish(next.State)
	c.metrics.StatePublished()
	c.log.Debug("state published", stateAttrs(next.State)...)
}

func (c *Controller) onPanic(recovered any) {
	c.log.Error("controller loop panicked", "panic", recovered)
	c.runtime.Stop()
	c.states.Close()
}

func stateAttrs(s State) []any {
	attrs := []any{
		"loading", s.Loading,
		"session_active", s.SessionActive,
		"assets", len(s.Assets),
	}
	if s.ConnectedAccount != nil {
		attrs = append(attrs, "account", s.ConnectedAccount.Address.Hex())
	}
	if s.ViewAction != nil {
		attrs = append(attrs, "view_action", string(s.ViewAction.Kind))
	}
	return attrs
}
