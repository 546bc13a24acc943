// Package actor is a generic mailbox loop built around a pure reducer.
//
// One goroutine owns the state. Each dequeued input is reduced into a new
// state plus a list of effects, and a Runtime carries the effects out in the
// background, reporting results as new inputs. Inputs are handled one at a
// time in FIFO order; effect completion is not ordered.
package actor

import (
	"context"
	"sync"
	"sync/atomic"
)

// Input is anything that can be queued on an actor: caller commands and
// runtime events share one mailbox.
type Input interface {
	isActorInput()
}

// Effect describes work for the Runtime. Reducers return effects as plain
// values and never perform them.
type Effect interface {
	isActorEffect()
}

// ReducerFunc computes the next state and the effects it requires. It must
// not do I/O, start goroutines, or read clocks; anything non-deterministic
// arrives as an input.
type ReducerFunc[S any] func(state S, input Input) (next S, effects []Effect)

// Runtime performs effects. Results go back to the actor through emit; a
// Runtime never touches actor state.
type Runtime interface {
	// HandleEffects is called on the loop goroutine and must not block.
	// Anything slow runs on its own goroutine. No emits after ctx is done.
	HandleEffects(ctx context.Context, effects []Effect, emit func(Input))

	// Stop cancels outstanding background work. Repeated calls are allowed.
	Stop()
}

// Hooks observe the loop. They run on the loop goroutine in dispatch order.
type Hooks[S any] struct {
	// OnInput sees each input as it is dequeued.
	OnInput func(input Input)
	// OnTransition sees every reduction after the new state is stored.
	OnTransition func(prev S, next S, input Input)
	// OnEffects sees non-empty effect lists before the Runtime does.
	OnEffects func(effects []Effect)
	// OnPanic receives a recovered loop panic. Without it the panic is
	// re-raised.
	OnPanic func(recovered any)
}

// Actor owns a state of type S and mutates it only from its loop.
type Actor[S any] struct {
	reduce  ReducerFunc[S]
	runtime Runtime
	hooks   Hooks[S]

	// current is written by the loop only and read by State.
	current atomic.Pointer[S]
	inbox   *mailbox

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Option customizes New.
type Option[S any] func(*Actor[S])

// WithHooks installs loop hooks.
func WithHooks[S any](hooks Hooks[S]) Option[S] {
	return func(a *Actor[S]) { a.hooks = hooks }
}

// New returns a stopped actor. Call Start to run it.
func New[S any](initial S, reducer ReducerFunc[S], runtime Runtime, opts ...Option[S]) *Actor[S] {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Actor[S]{
		reduce:  reducer,
		runtime: runtime,
		inbox:   newMailbox(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	a.current.Store(&initial)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start runs the loop on a new goroutine. Only the first call has an effect.
// Inputs queued before Start are handled first.
func (a *Actor[S]) Start() {
	a.once.Do(func() { go a.loop() })
}

// Stop ends the loop and stops the runtime. It may be called repeatedly.
func (a *Actor[S]) Stop() {
	a.cancel()
	if a.runtime != nil {
		a.runtime.Stop()
	}
}

// Done is closed after the loop returns.
func (a *Actor[S]) Done() <-chan struct{} { return a.done }

// Context returns the actor's lifetime context. It is canceled by Stop.
func (a *Actor[S]) Context() context.Context { return a.ctx }

// Enqueue queues input without blocking. It reports false for a nil input or
// a stopped actor.
func (a *Actor[S]) Enqueue(input Input) bool {
	if input == nil || a.ctx.Err() != nil {
		return false
	}
	a.inbox.push(input)
	return true
}

// State returns the most recently stored state. Use it for inspection;
// behavior belongs in the reducer.
func (a *Actor[S]) State() S { return *a.current.Load() }

func (a *Actor[S]) emit(in Input) { a.Enqueue(in) }

func (a *Actor[S]) loop() {
	defer close(a.done)
	defer a.recoverPanic()

	for a.wait() {
		for _, in := range a.inbox.takeAll() {
			if a.ctx.Err() != nil {
				return
			}
			a.step(in)
		}
	}
}

// wait blocks until inputs are queued. It reports false once the actor is
// stopped.
func (a *Actor[S]) wait() bool {
	select {
	case <-a.ctx.Done():
		return false
	case <-a.inbox.ready():
		return true
	}
}

func (a *Actor[S]) recoverPanic() {
	r := recover()
	if r == nil {
		return
	}
	if a.hooks.OnPanic == nil {
		panic(r)
	}
	a.hooks.OnPanic(r)
}

// step reduces a single input and hands the resulting effects to the runtime.
func (a *Actor[S]) step(in Input) {
	if a.hooks.OnInput != nil {
		a.hooks.OnInput(in)
	}

	prev := *a.current.Load()
	next, effects := a.reduce(prev, in)
	a.current.Store(&next)

	if a.hooks.OnTransition != nil {
		a.hooks.OnTransition(prev, next, in)
	}
	if len(effects) == 0 {
		return
	}
	if a.hooks.OnEffects != nil {
		a.hooks.OnEffects(effects)
	}
	if a.runtime != nil {
		a.runtime.HandleEffects(a.ctx, effects, a.emit)
	}
}
