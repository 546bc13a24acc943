package actor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bhandras/wcpair/internal/actor"
	"github.com/bhandras/wcpair/internal/actor/actortest"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	actor.InputBase
	n int
}

type testEffect struct {
	actor.EffectBase
	n int
}

func sumReducer(state int, input actor.Input) (int, []actor.Effect) {
	ev, ok := input.(testEvent)
	if !ok {
		return state, nil
	}
	return state + ev.n, []actor.Effect{testEffect{n: ev.n}}
}

func TestActorProcessesInputsSequentially(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()
	defer a.Stop()

	for i := 1; i <= 5; i++ {
		require.True(t, a.Enqueue(testEvent{n: i}), "enqueue %d", i)
	}

	require.Eventually(t, func() bool { return a.State() == 15 }, 2*time.Second, 5*time.Millisecond)
	require.Len(t, rt.Effects(), 5)
}

func TestActorEnqueueNeverDropsBursts(t *testing.T) {
	t.Parallel()

	a := actor.New[int](0, sumReducer, nil)

	// The mailbox is unbounded: a burst larger than any fixed buffer must be
	// accepted before the loop even starts.
	const n = 10_000
	for i := 0; i < n; i++ {
		require.True(t, a.Enqueue(testEvent{n: 1}))
	}
	a.Start()
	defer a.Stop()

	require.Eventually(t, func() bool { return a.State() == n }, 5*time.Second, 5*time.Millisecond)
}

func TestActorDispatchOrderMatchesEnqueueOrder(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []int
	)
	a := actor.New[int](0, sumReducer, nil, actor.WithHooks(actor.Hooks[int]{
		OnInput: func(in actor.Input) {
			mu.Lock()
			seen = append(seen, in.(testEvent).n)
			mu.Unlock()
		},
	}))
	a.Start()
	defer a.Stop()

	for i := 1; i <= 100; i++ {
		a.Enqueue(testEvent{n: i})
	}
	require.Eventually(t, func() bool { return a.State() == 5050 }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, n := range seen {
		require.Equal(t, i+1, n)
	}
}

func TestActorRuntimeEmitsFollowUps(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{
		EmitFn: func(_ context.Context, eff actor.Effect, emit func(actor.Input)) {
			e := eff.(testEffect)
			if e.n > 1 {
				go emit(testEvent{n: e.n - 1})
			}
		},
	}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()
	defer a.Stop()

	a.Enqueue(testEvent{n: 4})
	require.Eventually(t, func() bool { return a.State() == 10 }, 2*time.Second, 5*time.Millisecond)
}

func TestActorHandlesInputsEmittedDuringABatch(t *testing.T) {
	t.Parallel()

	var effectLists int
	rt := &actortest.FakeRuntime{
		EmitFn: func(_ context.Context, eff actor.Effect, emit func(actor.Input)) {
			if e := eff.(testEffect); e.n > 1 {
				emit(testEvent{n: e.n - 1})
			}
		},
	}
	a := actor.New[int](0, sumReducer, rt, actor.WithHooks(actor.Hooks[int]{
		OnEffects: func([]actor.Effect) { effectLists++ },
	}))
	for i := 0; i < 3; i++ {
		a.Enqueue(testEvent{n: 3})
	}
	a.Start()
	defer a.Stop()

	// Readers on other goroutines see each stored state whole.
	require.Eventually(t, func() bool { return a.State() == 18 }, 2*time.Second, 5*time.Millisecond)
	a.Stop()
	<-a.Done()
	require.Len(t, rt.Effects(), 9)
	require.Equal(t, 9, effectLists)
}

func TestActorStop(t *testing.T) {
	t.Parallel()

	rt := &actortest.FakeRuntime{}
	a := actor.New[int](0, sumReducer, rt)
	a.Start()
	a.Stop()
	a.Stop()

	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("actor loop did not exit")
	}
	require.False(t, a.Enqueue(testEvent{n: 1}))
	require.Equal(t, 2, rt.Stops())
	require.Error(t, a.Context().Err())
}

func TestActorOnPanicRecovers(t *testing.T) {
	t.Parallel()

	recovered := make(chan any, 1)
	reducer := func(state int, input actor.Input) (int, []actor.Effect) {
		panic("boom")
	}
	a := actor.New[int](0, reducer, nil, actor.WithHooks(actor.Hooks[int]{
		OnPanic: func(r any) { recovered <- r },
	}))
	a.Start()
	a.Enqueue(testEvent{n: 1})

	select {
	case r := <-recovered:
		require.Equal(t, "boom", r)
	case <-time.After(2 * time.Second):
		t.Fatal("expected panic to be recovered")
	}
	<-a.Done()
}
