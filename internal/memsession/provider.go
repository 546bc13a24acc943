// Package memsession provides an in-process pairing.SessionProvider.
//
// It hands out WalletConnect v1 style pairing URIs and lets a simulated peer
// approve, update, or reject the session. It exists for deterministic tests
// and for running the console without a live bridge.
package memsession

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/bhandras/wcpair/internal/pairing"
	"github.com/google/uuid"
)

const (
	// protocolVersion is the pairing protocol version embedded in URIs.
	protocolVersion = 1
	// keySize is the size of the symmetric session key in bytes.
	keySize = 32
	// subscriberBuffer bounds the per-subscriber backlog of pushed snapshots.
	subscriberBuffer = 16
)

var (
	// ErrNoPendingSession is returned when a peer tries to approve without a
	// pairing in progress.
	ErrNoPendingSession = errors.New("no pending session")
	// ErrNoAccounts is returned when approving with an empty account list.
	ErrNoAccounts = errors.New("no accounts to approve")
)

// Session is the provider's view of a pairing.
type Session struct {
	Topic    string
	Key      string
	URI      string
	Approved bool
	Accounts []string
	PeerName string
}

// Provider is an in-memory session provider. The zero value is not usable;
// construct with New.
type Provider struct {
	bridgeURL string

	mu      sync.Mutex
	session *Session
	subs    map[*subscription]struct{}
}

type subscription struct {
	ch     chan pairing.SessionSnapshot
	closed bool
}

var _ pairing.SessionProvider = (*Provider)(nil)

// New returns a provider whose pairing URIs point at bridgeURL.
func New(bridgeURL string) *Provider {
	return &Provider{
		bridgeURL: bridgeURL,
		subs:      make(map[*subscription]struct{}),
	}
}

// ActiveSession implements pairing.SessionProvider. Only approved sessions
// are reported as active.
func (p *Provider) ActiveSession(ctx context.Context) (*pairing.SessionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil || !p.session.Approved {
		return nil, nil
	}
	snap := snapshotOf(p.session)
	return &snap, nil
}

// CreateSession implements pairing.SessionProvider. Any previous session is
// replaced.
func (p *Provider) CreateSession(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}
	topic := uuid.NewString()
	s := &Session{
		Topic: topic,
		Key:   hex.EncodeToString(key),
	}
	s.URI = pairingURI(topic, p.bridgeURL, s.Key)

	p.mu.Lock()
	p.session = s
	p.mu.Unlock()
	return s.URI, nil
}

// DisconnectSession implements pairing.SessionProvider.
func (p *Provider) DisconnectSession(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return false, nil
	}
	p.session = nil
	p.broadcastLocked(pairing.SessionSnapshot{})
	return true, nil
}

// SessionUpdates implements pairing.SessionProvider.
func (p *Provider) SessionUpdates(ctx context.Context) (<-chan pairing.SessionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &subscription{ch: make(chan pairing.SessionSnapshot, subscriberBuffer)}

	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, sub)
		sub.closed = true
		close(sub.ch)
	}()
	return sub.ch, nil
}

// Approve simulates the remote peer approving the pending session.
func (p *Provider) Approve(peerName string, accounts ...string) error {
	if len(accounts) == 0 {
		return ErrNoAccounts
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return ErrNoPendingSession
	}
	p.session.Approved = true
	p.session.PeerName = peerName
	p.session.Accounts = append([]string(nil), accounts...)
	p.broadcastLocked(snapshotOf(p.session))
	return nil
}

// UpdateAccounts simulates the peer switching accounts on an approved
// session.
func (p *Provider) UpdateAccounts(accounts ...string) error {
	if len(accounts) == 0 {
		return ErrNoAccounts
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil || !p.session.Approved {
		return ErrNoPendingSession
	}
	p.session.Accounts = append([]string(nil), accounts...)
	p.broadcastLocked(snapshotOf(p.session))
	return nil
}

// Reject simulates the peer rejecting or killing the session.
func (p *Provider) Reject() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = nil
	p.broadcastLocked(pairing.SessionSnapshot{})
}

// Session returns a copy of the current session, if any.
func (p *Provider) Session() (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return Session{}, false
	}
	s := *p.session
	s.Accounts = append([]string(nil), s.Accounts...)
	return s, true
}

// Subscribers returns the number of live update subscriptions.
func (p *Provider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// broadcastLocked delivers snap to all subscribers. A subscriber whose
// backlog is full misses the snapshot rather than blocking the peer.
func (p *Provider) broadcastLocked(snap pairing.SessionSnapshot) {
	for sub := range p.subs {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}

func snapshotOf(s *Session) pairing.SessionSnapshot {
	if !s.Approved {
		return pairing.SessionSnapshot{}
	}
	return pairing.SessionSnapshot{
		ApprovedAccounts: append([]string(nil), s.Accounts...),
		PeerName:         s.PeerName,
	}
}

// pairingURI formats a WalletConnect v1 pairing URI.
func pairingURI(topic, bridgeURL, key string) string {
	q := url.Values{}
	q.Set("bridge", bridgeURL)
	q.Set("key", key)
	return fmt.Sprintf("wc:%s@%d?%s", topic, protocolVersion, q.Encode())
}
