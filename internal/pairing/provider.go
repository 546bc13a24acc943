package pairing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SessionSnapshot is a point-in-time view of the pairing session.
//
// A nil ApprovedAccounts slice means there is no approved session.
type SessionSnapshot struct {
	ApprovedAccounts []string
	PeerName         string
}

// Approved reports whether the snapshot describes an approved session.
func (s SessionSnapshot) Approved() bool {
	return s.ApprovedAccounts != nil
}

// SessionProvider owns the pairing protocol and its transport.
type SessionProvider interface {
	// ActiveSession returns the currently active session, or nil if there is
	// none.
	ActiveSession(ctx context.Context) (*SessionSnapshot, error)

	// CreateSession starts a new pairing and returns the pairing URI the
	// remote client needs to complete the handshake.
	CreateSession(ctx context.Context) (string, error)

	// DisconnectSession tears the session down. It reports whether a session
	// was actually disconnected.
	DisconnectSession(ctx context.Context) (bool, error)

	// SessionUpdates subscribes to pushed session snapshots. The returned
	// channel is closed, and the underlying subscription released, once ctx
	// is canceled.
	SessionUpdates(ctx context.Context) (<-chan SessionSnapshot, error)
}

// OwnedAsset is a raw asset record returned by an AssetProvider.
type OwnedAsset struct {
	Contract     common.Address
	ContractName string
	ID           *big.Int
	Name         string
	Image        string
}

// AssetProvider lists the assets owned by an address.
type AssetProvider interface {
	LoadAssets(ctx context.Context, owner common.Address) ([]OwnedAsset, error)
}
