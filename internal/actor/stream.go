package actor

import (
	"context"
	"sync"
)

// Stream is a replay-latest broadcast of values of type T.
//
// Subscribers first receive the most recently published value (if any), then
// every later value in publish order. Publish never blocks: each subscriber
// owns an unbounded queue drained by its own goroutine, so a slow observer
// cannot stall the actor loop.
type Stream[T any] struct {
	mu     sync.Mutex
	latest T
	has    bool
	subs   map[*subscriber[T]]struct{}
	closed bool
}

type subscriber[T any] struct {
	mu      sync.Mutex
	pending []T
	wake    chan struct{}
	closed  bool
}

// NewStream returns an empty stream. Subscribers receive nothing until the
// first Publish.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[*subscriber[T]]struct{})}
}

// Publish records v as the latest value and queues it for every subscriber.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = v
	s.has = true
	for sub := range s.subs {
		sub.push(v)
	}
}

// Latest returns the most recently published value and whether one exists.
func (s *Stream[T]) Latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.has
}

// Subscribe returns a channel of published values. The channel is closed when
// ctx is canceled or the stream is closed.
func (s *Stream[T]) Subscribe(ctx context.Context) <-chan T {
	out := make(chan T)
	sub := &subscriber[T]{wake: make(chan struct{}, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(out)
		return out
	}
	if s.has {
		sub.push(s.latest)
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer s.remove(sub)
		for {
			v, ok, done := sub.next()
			if done {
				return
			}
			if !ok {
				select {
				case <-ctx.Done():
					return
				case <-sub.wake:
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- v:
			}
		}
	}()
	return out
}

// Close terminates all subscriptions. Later Publish calls are ignored.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		sub.close()
	}
}

func (s *Stream[T]) remove(sub *subscriber[T]) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func (sub *subscriber[T]) push(v T) {
	sub.mu.Lock()
	sub.pending = append(sub.pending, v)
	sub.mu.Unlock()
	sub.signal()
}

func (sub *subscriber[T]) close() {
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()
	sub.signal()
}

func (sub *subscriber[T]) signal() {
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest pending value. Queued values are still delivered after
// close; done is reported once the queue is empty.
func (sub *subscriber[T]) next() (v T, ok bool, done bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.pending) == 0 {
		return v, false, sub.closed
	}
	v = sub.pending[0]
	var zero T
	sub.pending[0] = zero
	sub.pending = sub.pending[1:]
	return v, true, false
}
