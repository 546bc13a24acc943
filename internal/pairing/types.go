// Package pairing implements the wallet pairing controller: a command actor
// that establishes and tears down a remote pairing session, tracks the
// connected account from pushed session updates and reloads the assets owned
// by that account whenever it changes.
package pairing

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// State is the observer-facing snapshot published by the controller.
//
// Snapshots are values: every transition produces a fresh copy. A non-nil
// ConnectedAccount implies SessionActive.
type State struct {
	Loading          bool
	SessionActive    bool
	ConnectedAccount *Account
	Assets           []Asset

	// ViewAction is a one-shot instruction for the presentation layer. It
	// appears in exactly one published snapshot.
	ViewAction *ViewAction
}

// Equal reports whether two snapshots carry the same observable content.
func (s State) Equal(o State) bool {
	return s.Loading == o.Loading &&
		s.SessionActive == o.SessionActive &&
		s.ConnectedAccount.Equal(o.ConnectedAccount) &&
		slices.Equal(s.Assets, o.Assets) &&
		s.ViewAction.Equal(o.ViewAction)
}

// inactive clears everything that only exists while a session is active.
func (s State) inactive() State {
	s.SessionActive = false
	s.ConnectedAccount = nil
	s.Assets = nil
	return s
}

// Account is the account approved by the remote peer.
type Account struct {
	Address        common.Address
	DisplayAddress string
	// DisplayName is the peer name reported by the session, if any.
	DisplayName string
}

// Equal compares two possibly-nil accounts.
func (a *Account) Equal(o *Account) bool {
	if a == nil || o == nil {
		return a == o
	}
	return *a == *o
}

// sameAddress compares only the chain address of two possibly-nil accounts.
func sameAddress(a, b *Account) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Address == b.Address
}

// Asset is a display-ready asset owned by the connected account.
type Asset struct {
	// Contract is the contract name, or the shortened contract address.
	Contract string
	// Token is the token name, or the shortened token id.
	Token string
	// Image is an optional image URL.
	Image string
}

// ViewActionKind enumerates presentation-layer instructions.
type ViewActionKind string

const (
	// ViewOpenURI asks the presentation layer to surface a pairing URI.
	ViewOpenURI ViewActionKind = "open-uri"
)

// ViewAction is a one-shot instruction for the presentation layer.
type ViewAction struct {
	Kind ViewActionKind
	URI  string
}

// OpenURI returns a view action that surfaces the given pairing URI.
func OpenURI(uri string) *ViewAction {
	return &ViewAction{Kind: ViewOpenURI, URI: uri}
}

// Equal compares two possibly-nil view actions by value.
func (v *ViewAction) Equal(o *ViewAction) bool {
	if v == nil || o == nil {
		return v == o
	}
	return *v == *o
}

// Model is the loop-owned state of the controller actor.
//
// Only State is published. The generations identify the currently running
// session watcher and asset fetch so that completions from superseded tasks
// can be ignored.
type Model struct {
	State State

	// WatchGen increments every time a new session watcher is started.
	WatchGen int64
	// AssetGen increments every time a new asset fetch is started.
	AssetGen int64
}
