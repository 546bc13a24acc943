package actor

import "sync"

// mailbox is an unbounded FIFO queue of inputs.
//
// push never blocks. The ready channel carries at most one pending wakeup; the
// consumer takes the whole queue after each wakeup.
type mailbox struct {
	mu    sync.Mutex
	items []Input
	wake  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) push(in Input) {
	m.mu.Lock()
	m.items = append(m.items, in)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// takeAll removes and returns every queued input in FIFO order.
func (m *mailbox) takeAll() []Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := m.items
	m.items = nil
	return batch
}

func (m *mailbox) ready() <-chan struct{} { return m.wake }
