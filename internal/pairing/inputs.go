package pairing

import (
	"github.com/bhandras/wcpair/internal/actor"
	"github.com/ethereum/go-ethereum/common"
)

// Command is a marker interface for caller-submitted inputs.
type Command interface {
	actor.Input
	isPairingCommand()
}

// Event is a marker interface for inputs emitted by the runtime.
type Event interface {
	actor.Input
	isPairingEvent()
}

// Commands

// cmdLoadSession looks up the active session.
type cmdLoadSession struct{ actor.InputBase }

func (cmdLoadSession) isPairingCommand() {}

// cmdStartSession creates a new pairing session.
type cmdStartSession struct{ actor.InputBase }

func (cmdStartSession) isPairingCommand() {}

// cmdDisconnectSession tears the current session down.
type cmdDisconnectSession struct{ actor.InputBase }

func (cmdDisconnectSession) isPairingCommand() {}

// Events

type evSessionLoaded struct {
	actor.InputBase
	Session *SessionSnapshot
	Err     error
}

func (evSessionLoaded) isPairingEvent() {}

type evSessionCreated struct {
	actor.InputBase
	URI string
	Err error
}

func (evSessionCreated) isPairingEvent() {}

type evSessionDisconnected struct {
	actor.InputBase
	Disconnected bool
	Err          error
}

func (evSessionDisconnected) isPairingEvent() {}

// evSessionUpdated carries a pushed snapshot from the watcher started with Gen.
type evSessionUpdated struct {
	actor.InputBase
	Gen     int64
	Session SessionSnapshot
}

func (evSessionUpdated) isPairingEvent() {}

// evAssetsLoaded carries the result of the asset fetch started with Gen.
type evAssetsLoaded struct {
	actor.InputBase
	Gen    int64
	Owner  common.Address
	Assets []OwnedAsset
	Err    error
}

func (evAssetsLoaded) isPairingEvent() {}

// Effects

// Effect is a marker interface for effects emitted by the pairing reducer.
type Effect interface {
	actor.Effect
	isPairingEffect()
}

type effLoadSession struct{ actor.EffectBase }

func (effLoadSession) isPairingEffect() {}

type effCreateSession struct{ actor.EffectBase }

func (effCreateSession) isPairingEffect() {}

type effDisconnectSession struct{ actor.EffectBase }

func (effDisconnectSession) isPairingEffect() {}

// effWatchSession replaces any running watcher with a new one tagged Gen.
type effWatchSession struct {
	actor.EffectBase
	Gen int64
}

func (effWatchSession) isPairingEffect() {}

// effStopWatching cancels the running watcher, if any.
type effStopWatching struct{ actor.EffectBase }

func (effStopWatching) isPairingEffect() {}

// effLoadAssets replaces any in-flight asset fetch with one for Owner.
type effLoadAssets struct {
	actor.EffectBase
	Gen   int64
	Owner common.Address
}

func (effLoadAssets) isPairingEffect() {}

// effCancelAssets cancels the in-flight asset fetch, if any.
type effCancelAssets struct{ actor.EffectBase }

func (effCancelAssets) isPairingEffect() {}
