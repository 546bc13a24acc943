package pairing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	framework "github.com/bhandras/wcpair/internal/actor"
	"github.com/bhandras/wcpair/internal/metrics"
	"github.com/bhandras/wcpair/pkg/logger"
)

// Runtime interprets pairing effects.
//
// Every provider call runs on its own goroutine so the dispatch loop never
// waits on I/O. Each call reports back exactly one completion event, even if
// it fails or panics. The runtime owns the cancel handles of the session
// watcher and the asset fetch; starting either one cancels its predecessor.
//
// Runtime never mutates controller state directly.
type Runtime struct {
	sessions SessionProvider
	assets   AssetProvider
	log      *slog.Logger
	metrics  *metrics.Collector
	timeout  time.Duration

	mu          sync.Mutex
	watchCancel context.CancelFunc
	assetCancel context.CancelFunc
	wg          sync.WaitGroup
}

// NewRuntime returns a Runtime backed by the given providers. A zero timeout
// leaves provider calls bounded only by the controller lifetime.
func NewRuntime(sessions SessionProvider, assets AssetProvider, log *slog.Logger,
	m *metrics.Collector, timeout time.Duration) *Runtime {

	return &Runtime{
		sessions: sessions,
		assets:   assets,
		log:      logger.OrDiscard(log),
		metrics:  m,
		timeout:  timeout,
	}
}

// HandleEffects implements actor.Runtime.
func (r *Runtime) HandleEffects(ctx context.Context, effects []framework.Effect, emit func(framework.Input)) {
	for _, eff := range effects {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch e := eff.(type) {
		case effLoadSession:
			r.loadSession(ctx, emit)
		case effCreateSession:
			r.createSession(ctx, emit)
		case effDisconnectSession:
			r.disconnectSession(ctx, emit)
		case effWatchSession:
			r.watchSession(ctx, e, emit)
		case effStopWatching:
			r.stopWatching()
		case effLoadAssets:
			r.loadAssets(ctx, e, emit)
		case effCancelAssets:
			r.cancelAssets()
		default:
			r.log.Debug("ignoring unknown effect", "effect", fmt.Sprintf("%T", eff))
		}
	}
}

// Stop implements actor.Runtime.
func (r *Runtime) Stop() {
	r.stopWatching()
	r.cancelAssets()
}

// Wait blocks until every goroutine started by the runtime has returned.
func (r *Runtime) Wait() {
	r.wg.Wait()
}

// spawn runs fn on a tracked goroutine. Panics are logged instead of taking
// the process down; fn's deferred completion still runs.
func (r *Runtime) spawn(name string, fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("background task panicked", "task", name, "panic", rec)
			}
		}()
		fn()
	}()
}

// callContext bounds a single provider call.
func (r *Runtime) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Runtime) loadSession(ctx context.Context, emit func(framework.Input)) {
	r.spawn("load-session", func() {
		ev := evSessionLoaded{Err: ErrTaskAborted}
		defer func() { emit(ev) }()

		callCtx, cancel := r.callContext(ctx)
		defer cancel()

		session, err := r.sessions.ActiveSession(callCtx)
		if err != nil {
			r.providerFailed("load", err)
		}
		ev = evSessionLoaded{Session: session, Err: err}
	})
}

func (r *Runtime) createSession(ctx context.Context, emit func(framework.Input)) {
	r.spawn("create-session", func() {
		ev := evSessionCreated{Err: ErrTaskAborted}
		defer func() { emit(ev) }()

		callCtx, cancel := r.callContext(ctx)
		defer cancel()

		uri, err := r.sessions.CreateSession(callCtx)
		if err == nil && uri == "" {
			err = ErrEmptyPairingURI
		}
		if err != nil {
			r.providerFailed("create", err)
		}
		ev = evSessionCreated{URI: uri, Err: err}
	})
}

func (r *Runtime) disconnectSession(ctx context.Context, emit func(framework.Input)) {
	r.spawn("disconnect-session", func() {
		ev := evSessionDisconnected{Err: ErrTaskAborted}
		defer func() { emit(ev) }()

		callCtx, cancel := r.callContext(ctx)
		defer cancel()

		ok, err := r.sessions.DisconnectSession(callCtx)
		if err != nil {
			r.providerFailed("disconnect", err)
		}
		ev = evSessionDisconnected{Disconnected: ok, Err: err}
	})
}

func (r *Runtime) providerFailed(op string, err error) {
	r.metrics.ProviderError(op)
	r.log.Warn("session provider call failed", "op", op, "err", err)
}
