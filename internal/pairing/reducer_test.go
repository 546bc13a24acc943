package pairing

import (
	"errors"
	"math/big"
	"testing"

	"github.com/bhandras/wcpair/internal/actor"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const (
	addrA = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	addrB = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func approved(addrs ...string) SessionSnapshot {
	return SessionSnapshot{ApprovedAccounts: addrs, PeerName: "Peer"}
}

func effectOf[T actor.Effect](t *testing.T, effects []actor.Effect) T {
	t.Helper()
	for _, eff := range effects {
		if e, ok := eff.(T); ok {
			return e
		}
	}
	var zero T
	t.Fatalf("no %T in effects %+v", zero, effects)
	return zero
}

func hasEffect[T actor.Effect](effects []actor.Effect) bool {
	for _, eff := range effects {
		if _, ok := eff.(T); ok {
			return true
		}
	}
	return false
}

func TestReduceLoadSession_GuardsDuplicateLoads(t *testing.T) {
	t.Parallel()

	m, effects := Reduce(Model{}, cmdLoadSession{})
	require.True(t, m.State.Loading)
	require.Equal(t, []actor.Effect{effLoadSession{}}, effects)

	again, effects := Reduce(m, cmdLoadSession{})
	require.Equal(t, m, again)
	require.Empty(t, effects)
}

func TestReduceSessionLoaded_NoSessionIsInactive(t *testing.T) {
	t.Parallel()

	m, _ := Reduce(Model{}, cmdLoadSession{})
	m, effects := Reduce(m, evSessionLoaded{})

	require.Equal(t, State{}, m.State)
	require.Empty(t, effects)
}

func TestReduceSessionLoaded_ErrorIsInactive(t *testing.T) {
	t.Parallel()

	m := Model{State: State{Loading: true, SessionActive: true}}
	m, _ = Reduce(m, evSessionLoaded{Err: errors.New("bridge down")})

	require.False(t, m.State.Loading)
	require.False(t, m.State.SessionActive)
	require.Nil(t, m.State.ConnectedAccount)
}

func TestReduceSessionLoaded_ActiveStartsWatcherAndAssets(t *testing.T) {
	t.Parallel()

	m, _ := Reduce(Model{}, cmdLoadSession{})
	session := approved(addrA)
	m, effects := Reduce(m, evSessionLoaded{Session: &session})

	require.False(t, m.State.Loading)
	require.True(t, m.State.SessionActive)
	require.NotNil(t, m.State.ConnectedAccount)
	require.Equal(t, common.HexToAddress(addrA), m.State.ConnectedAccount.Address)
	require.Equal(t, "Peer", m.State.ConnectedAccount.DisplayName)

	watch := effectOf[effWatchSession](t, effects)
	require.Equal(t, m.WatchGen, watch.Gen)

	load := effectOf[effLoadAssets](t, effects)
	require.Equal(t, m.AssetGen, load.Gen)
	require.Equal(t, common.HexToAddress(addrA), load.Owner)
}

func TestReduceSessionLoaded_SameAccountRefreshesAssets(t *testing.T) {
	t.Parallel()

	session := approved(addrA)
	m, effects := Reduce(Model{}, evSessionLoaded{Session: &session})
	require.Len(t, effectsOf[effLoadAssets](effects), 1)
	first := m.AssetGen

	m, _ = Reduce(m, cmdLoadSession{})
	m, effects = Reduce(m, evSessionLoaded{Session: &session})

	loads := effectsOf[effLoadAssets](effects)
	require.Len(t, loads, 1)
	require.Equal(t, first+1, m.AssetGen)
	require.Equal(t, m.AssetGen, loads[0].Gen)
	require.Equal(t, common.HexToAddress(addrA), loads[0].Owner)
	require.False(t, hasEffect[effCancelAssets](effects))
}

func effectsOf[T actor.Effect](effects []actor.Effect) []T {
	var out []T
	for _, eff := range effects {
		if e, ok := eff.(T); ok {
			out = append(out, e)
		}
	}
	return out
}

func TestReduceSessionLoaded_BadAddressFailsSoft(t *testing.T) {
	t.Parallel()

	session := approved("not-an-address")
	m, effects := Reduce(Model{State: State{Loading: true}}, evSessionLoaded{Session: &session})

	require.True(t, m.State.SessionActive)
	require.Nil(t, m.State.ConnectedAccount)
	require.False(t, hasEffect[effLoadAssets](effects))
	require.True(t, hasEffect[effWatchSession](effects))
}

func TestReduceStartSession_Guards(t *testing.T) {
	t.Parallel()

	for _, st := range []State{{Loading: true}, {SessionActive: true}} {
		m := Model{State: st}
		next, effects := Reduce(m, cmdStartSession{})
		require.Equal(t, m, next)
		require.Empty(t, effects)
	}

	m, effects := Reduce(Model{}, cmdStartSession{})
	require.True(t, m.State.Loading)
	require.Equal(t, []actor.Effect{effCreateSession{}}, effects)
}

func TestReduceSessionCreated_EmitsOpenURIOnce(t *testing.T) {
	t.Parallel()

	m, _ := Reduce(Model{}, cmdStartSession{})
	m, effects := Reduce(m, evSessionCreated{URI: "wc:abc@1"})

	require.False(t, m.State.Loading)
	require.True(t, m.State.SessionActive)
	require.Equal(t, OpenURI("wc:abc@1"), m.State.ViewAction)
	require.Equal(t, m.WatchGen, effectOf[effWatchSession](t, effects).Gen)

	// The next transition repeats the stored view action, so it is cleared.
	m, _ = Reduce(m, evSessionUpdated{Gen: m.WatchGen, Session: approved(addrA)})
	require.Nil(t, m.State.ViewAction)
	require.NotNil(t, m.State.ConnectedAccount)
}

func TestReduceSessionCreated_FailureOnlyClearsLoading(t *testing.T) {
	t.Parallel()

	m, _ := Reduce(Model{}, cmdStartSession{})
	m, effects := Reduce(m, evSessionCreated{Err: errors.New("no bridge")})

	require.Equal(t, State{}, m.State)
	require.Empty(t, effects)
	require.Zero(t, m.WatchGen)
}

func TestReduceSessionUpdated_StaleGenerationIgnored(t *testing.T) {
	t.Parallel()

	m := Model{State: State{SessionActive: true}, WatchGen: 2}
	next, effects := Reduce(m, evSessionUpdated{Gen: 1, Session: approved(addrA)})
	require.Equal(t, m, next)
	require.Empty(t, effects)
}

func TestReduceSessionUpdated_NoAccountsGoesInactive(t *testing.T) {
	t.Parallel()

	session := approved(addrA)
	m, _ := Reduce(Model{}, evSessionLoaded{Session: &session})
	m.State.Assets = []Asset{{Contract: "C", Token: "T"}}

	m, effects := Reduce(m, evSessionUpdated{Gen: m.WatchGen, Session: SessionSnapshot{}})
	require.False(t, m.State.SessionActive)
	require.Nil(t, m.State.ConnectedAccount)
	require.Empty(t, m.State.Assets)
	require.True(t, hasEffect[effCancelAssets](effects))
}

func TestReduceAccountChange_ReloadsOnlyOnAddressChange(t *testing.T) {
	t.Parallel()

	session := approved(addrA)
	m, effects := Reduce(Model{}, evSessionLoaded{Session: &session})
	require.True(t, hasEffect[effLoadAssets](effects))
	gen := m.AssetGen

	// Same address, different peer name: no reload.
	m, effects = Reduce(m, evSessionUpdated{Gen: m.WatchGen, Session: SessionSnapshot{
		ApprovedAccounts: []string{addrA}, PeerName: "Renamed",
	}})
	require.False(t, hasEffect[effLoadAssets](effects))
	require.Equal(t, gen, m.AssetGen)
	require.Equal(t, "Renamed", m.State.ConnectedAccount.DisplayName)

	// Lower-case spelling of the same address: still no reload.
	m, effects = Reduce(m, evSessionUpdated{Gen: m.WatchGen, Session: approved("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")})
	require.False(t, hasEffect[effLoadAssets](effects))

	m, effects = Reduce(m, evSessionUpdated{Gen: m.WatchGen, Session: approved(addrB)})
	load := effectOf[effLoadAssets](t, effects)
	require.Equal(t, common.HexToAddress(addrB), load.Owner)
	require.Equal(t, gen+1, load.Gen)
}

func TestReduceAssetsLoaded(t *testing.T) {
	t.Parallel()

	session := approved(addrA)
	m, _ := Reduce(Model{}, evSessionLoaded{Session: &session})
	owner := common.HexToAddress(addrA)

	owned := []OwnedAsset{
		{Contract: common.HexToAddress(addrB), ContractName: "Kitties", ID: big.NewInt(7), Name: "Kitty #7", Image: "https://img/7"},
		{Contract: common.HexToAddress(addrB), ID: big.NewInt(123456789012)},
	}

	stale, _ := Reduce(m, evAssetsLoaded{Gen: m.AssetGen - 1, Owner: owner, Assets: owned})
	require.Empty(t, stale.State.Assets)

	failed, _ := Reduce(m, evAssetsLoaded{Gen: m.AssetGen, Owner: owner, Err: errors.New("boom")})
	require.Empty(t, failed.State.Assets)
	require.True(t, failed.State.SessionActive)

	wrongOwner, _ := Reduce(m, evAssetsLoaded{Gen: m.AssetGen, Owner: common.HexToAddress(addrB), Assets: owned})
	require.Empty(t, wrongOwner.State.Assets)

	m, _ = Reduce(m, evAssetsLoaded{Gen: m.AssetGen, Owner: owner, Assets: owned})
	require.Equal(t, []Asset{
		{Contract: "Kitties", Token: "Kitty #7", Image: "https://img/7"},
		{Contract: "0xfB69…d359", Token: "1234…9012"},
	}, m.State.Assets)
}

func TestReduceDisconnect(t *testing.T) {
	t.Parallel()

	session := approved(addrA)
	m, _ := Reduce(Model{}, evSessionLoaded{Session: &session})
	m.State.Assets = []Asset{{Contract: "C", Token: "T"}}

	next, effects := Reduce(m, cmdDisconnectSession{})
	require.Equal(t, m, next, "disconnect does not touch loading")
	require.Equal(t, []actor.Effect{effDisconnectSession{}}, effects)

	failed, effects := Reduce(m, evSessionDisconnected{Err: errors.New("timeout")})
	require.Equal(t, m, failed)
	require.Empty(t, effects)

	refused, _ := Reduce(m, evSessionDisconnected{Disconnected: false})
	require.Equal(t, m, refused)

	done, effects := Reduce(m, evSessionDisconnected{Disconnected: true})
	require.False(t, done.State.SessionActive)
	require.Nil(t, done.State.ConnectedAccount)
	require.Empty(t, done.State.Assets)
	require.True(t, hasEffect[effStopWatching](effects))
	require.True(t, hasEffect[effCancelAssets](effects))
	require.Equal(t, m.WatchGen+1, done.WatchGen)
}

func TestApply_ClearsRepeatedViewAction(t *testing.T) {
	t.Parallel()

	m := Model{State: State{ViewAction: OpenURI("wc:1")}}

	next, _ := apply(m, State{ViewAction: OpenURI("wc:1")})
	require.Nil(t, next.State.ViewAction)

	next, _ = apply(m, State{ViewAction: OpenURI("wc:2")})
	require.Equal(t, OpenURI("wc:2"), next.State.ViewAction)
}
