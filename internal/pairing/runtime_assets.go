package pairing

import (
	"context"
	"errors"
	"time"

	framework "github.com/bhandras/wcpair/internal/actor"
	"github.com/bhandras/wcpair/internal/metrics"
)

// loadAssets cancels any in-flight fetch and starts one for eff.Owner.
func (r *Runtime) loadAssets(ctx context.Context, eff effLoadAssets, emit func(framework.Input)) {
	fetchCtx, cancel := r.callContext(ctx)

	r.mu.Lock()
	if r.assetCancel != nil {
		r.assetCancel()
	}
	r.assetCancel = cancel
	r.mu.Unlock()

	r.spawn("load-assets", func() {
		defer cancel()

		ev := evAssetsLoaded{Gen: eff.Gen, Owner: eff.Owner, Err: ErrTaskAborted}
		defer func() { emit(ev) }()

		started := time.Now()
		owned, err := r.assets.LoadAssets(fetchCtx, eff.Owner)
		elapsed := time.Since(started).Seconds()
		switch {
		case err == nil:
			r.metrics.AssetFetch(metrics.AssetFetchOK, elapsed)
			r.log.Debug("assets loaded", "owner", eff.Owner.Hex(), "count", len(owned))
		case errors.Is(err, context.Canceled) && fetchCtx.Err() != nil:
			r.metrics.AssetFetch(metrics.AssetFetchCanceled, elapsed)
			r.log.Debug("asset fetch superseded", "owner", eff.Owner.Hex())
		default:
			r.metrics.AssetFetch(metrics.AssetFetchError, elapsed)
			r.log.Warn("asset fetch failed", "owner", eff.Owner.Hex(), "err", err)
		}
		ev = evAssetsLoaded{Gen: eff.Gen, Owner: eff.Owner, Assets: owned, Err: err}
	})
}

func (r *Runtime) cancelAssets() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assetCancel != nil {
		r.assetCancel()
		r.assetCancel = nil
	}
}
