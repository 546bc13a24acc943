package pairing

import (
	"context"

	framework "github.com/bhandras/wcpair/internal/actor"
	"github.com/bhandras/wcpair/pkg/logger"
)

// watchSession supersedes the running watcher with a new subscription tagged
// eff.Gen. Canceling the watcher context releases the upstream subscription.
func (r *Runtime) watchSession(ctx context.Context, eff effWatchSession, emit func(framework.Input)) {
	watchCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.watchCancel != nil {
		r.watchCancel()
	}
	r.watchCancel = cancel
	r.mu.Unlock()

	r.spawn("watch-session", func() {
		defer cancel()

		updates, err := r.sessions.SessionUpdates(watchCtx)
		if err != nil {
			r.providerFailed("subscribe", err)
			return
		}
		r.log.Debug("session watcher started", "gen", eff.Gen)

		for {
			select {
			case <-watchCtx.Done():
				r.log.Debug("session watcher stopped", "gen", eff.Gen)
				return
			case session, ok := <-updates:
				if !ok {
					r.log.Debug("session update stream ended", "gen", eff.Gen)
					return
				}
				r.metrics.SessionUpdate()
				r.log.Log(watchCtx, logger.LevelTrace, "session update received",
					"gen", eff.Gen, "accounts", len(session.ApprovedAccounts))
				emit(evSessionUpdated{Gen: eff.Gen, Session: session})
			}
		}
	})
}

func (r *Runtime) stopWatching() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watchCancel != nil {
		r.watchCancel()
		r.watchCancel = nil
	}
}
