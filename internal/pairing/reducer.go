package pairing

import (
	"github.com/bhandras/wcpair/internal/actor"
)

// Reduce is the pairing controller reducer.
//
// Guards are evaluated against the state at dispatch time. Every accepted
// transition goes through apply, which is the only place the published
// snapshot is replaced.
func Reduce(m Model, input actor.Input) (Model, []actor.Effect) {
	switch in := input.(type) {
	case cmdLoadSession:
		return reduceLoadSession(m)
	case cmdStartSession:
		return reduceStartSession(m)
	case cmdDisconnectSession:
		return m, []actor.Effect{effDisconnectSession{}}

	case evSessionLoaded:
		return reduceSessionLoaded(m, in)
	case evSessionCreated:
		return reduceSessionCreated(m, in)
	case evSessionDisconnected:
		return reduceSessionDisconnected(m, in)
	case evSessionUpdated:
		return reduceSessionUpdated(m, in)
	case evAssetsLoaded:
		return reduceAssetsLoaded(m, in)
	default:
		return m, nil
	}
}

func reduceLoadSession(m Model) (Model, []actor.Effect) {
	if m.State.Loading {
		return m, nil
	}
	next := m.State
	next.Loading = true
	return apply(m, next, effLoadSession{})
}

func reduceStartSession(m Model) (Model, []actor.Effect) {
	if m.State.Loading || m.State.SessionActive {
		return m, nil
	}
	next := m.State
	next.Loading = true
	return apply(m, next, effCreateSession{})
}

func reduceSessionLoaded(m Model, ev evSessionLoaded) (Model, []actor.Effect) {
	next := m.State
	next.Loading = false
	if ev.Err != nil || ev.Session == nil {
		return apply(m, next.inactive())
	}

	next.SessionActive = true
	next.ConnectedAccount = accountFromSession(*ev.Session)
	m.WatchGen++
	m, effects := apply(m, next, effWatchSession{Gen: m.WatchGen})

	// A load that finds the same account refreshes its assets.
	if acct := m.State.ConnectedAccount; acct != nil && !hasLoadAssets(effects) {
		m.AssetGen++
		effects = append(effects, effLoadAssets{Gen: m.AssetGen, Owner: acct.Address})
	}
	return m, effects
}

func hasLoadAssets(effects []actor.Effect) bool {
	for _, eff := range effects {
		if _, ok := eff.(effLoadAssets); ok {
			return true
		}
	}
	return false
}

func reduceSessionCreated(m Model, ev evSessionCreated) (Model, []actor.Effect) {
	next := m.State
	next.Loading = false
	if ev.Err != nil {
		return apply(m, next)
	}

	next.SessionActive = true
	next.ViewAction = OpenURI(ev.URI)
	m.WatchGen++
	return apply(m, next, effWatchSession{Gen: m.WatchGen})
}

func reduceSessionDisconnected(m Model, ev evSessionDisconnected) (Model, []actor.Effect) {
	if ev.Err != nil || !ev.Disconnected {
		return m, nil
	}
	m.WatchGen++
	return apply(m, m.State.inactive(), effStopWatching{})
}

func reduceSessionUpdated(m Model, ev evSessionUpdated) (Model, []actor.Effect) {
	if ev.Gen != m.WatchGen {
		return m, nil
	}
	next := m.State
	if !ev.Session.Approved() {
		return apply(m, next.inactive())
	}
	next.SessionActive = true
	next.ConnectedAccount = accountFromSession(ev.Session)
	return apply(m, next)
}

func reduceAssetsLoaded(m Model, ev evAssetsLoaded) (Model, []actor.Effect) {
	if ev.Gen != m.AssetGen || ev.Err != nil {
		return m, nil
	}
	account := m.State.ConnectedAccount
	if account == nil || account.Address != ev.Owner {
		return m, nil
	}
	next := m.State
	next.Assets = mapAssets(ev.Assets)
	return apply(m, next)
}

// apply stores next as the current snapshot.
//
// A view action equal to the one already stored has been delivered and is
// cleared. A change of connected account schedules an asset reload, or
// cancels the in-flight one when the account went away.
func apply(m Model, next State, effects ...actor.Effect) (Model, []actor.Effect) {
	if next.ViewAction != nil && next.ViewAction.Equal(m.State.ViewAction) {
		next.ViewAction = nil
	}

	prevAccount := m.State.ConnectedAccount
	if next.ConnectedAccount == nil {
		next.Assets = nil
	}
	m.State = next

	if sameAddress(prevAccount, next.ConnectedAccount) {
		return m, effects
	}
	m.AssetGen++
	if next.ConnectedAccount == nil {
		return m, append(effects, effCancelAssets{})
	}
	return m, append(effects, effLoadAssets{
		Gen:   m.AssetGen,
		Owner: next.ConnectedAccount.Address,
	})
}
