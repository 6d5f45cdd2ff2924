package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishDispatchesToMatchingSubscriber(t *testing.T) {
	b := New(nil, 16, time.Second)
	var got atomic.Int64
	b.Subscribe(KindRequestStarted, 0, "counter", func(_ context.Context, e Event) error {
		got.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	require.True(t, b.Publish(Event{Kind: KindRequestStarted}))
	require.Eventually(t, func() bool { return got.Load() == 1 }, time.Second, time.Millisecond)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	b := New(nil, 1, time.Second)
	// No Run() consuming -- queue fills after one publish.
	require.True(t, b.Publish(Event{Kind: KindRequestStarted}))
	require.False(t, b.Publish(Event{Kind: KindRequestStarted}))
	require.Equal(t, int64(1), b.Stats().Dropped)
}

func TestWildcardSubscriberReceivesAllKinds(t *testing.T) {
	b := New(nil, 16, time.Second)
	var got atomic.Int64
	b.Subscribe(KindWildcard, 0, "wild", func(_ context.Context, e Event) error {
		got.Add(1)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	b.Publish(Event{Kind: KindRequestStarted})
	b.Publish(Event{Kind: KindCacheHit})
	require.Eventually(t, func() bool { return got.Load() == 2 }, time.Second, time.Millisecond)
}

func TestPriorityOrderingDoesNotBlockLowerPriority(t *testing.T) {
	b := New(nil, 16, time.Second)
	var order []int
	ch := make(chan struct{}, 2)
	b.Subscribe(KindRequestStarted, 50, "low", func(_ context.Context, e Event) error {
		order = append(order, 50)
		ch <- struct{}{}
		return nil
	})
	b.Subscribe(KindRequestStarted, 100, "high", func(_ context.Context, e Event) error {
		order = append(order, 100)
		ch <- struct{}{}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	b.Publish(Event{Kind: KindRequestStarted})
	<-ch
	<-ch
	require.ElementsMatch(t, []int{50, 100}, order)
}

func TestSlowSubscriberTimesOutWithoutBlockingDispatch(t *testing.T) {
	b := New(nil, 16, 10*time.Millisecond)
	var fastRan atomic.Bool
	b.Subscribe(KindRequestStarted, 0, "slow", func(ctx context.Context, e Event) error {
		<-ctx.Done()
		return ctx.Err()
	})
	b.Subscribe(KindRequestStarted, 0, "fast", func(_ context.Context, e Event) error {
		fastRan.Store(true)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	b.Publish(Event{Kind: KindRequestStarted})
	require.Eventually(t, func() bool { return fastRan.Load() }, time.Second, time.Millisecond)
}

func TestBreakerOpensAfterRepeatedErrors(t *testing.T) {
	b := New(nil, 64, time.Second)
	var calls atomic.Int64
	b.Subscribe(KindRequestFailed, 0, "flaky", func(_ context.Context, e Event) error {
		calls.Add(1)
		return context.DeadlineExceeded
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Run(ctx) }()

	for i := 0; i < 10; i++ {
		b.Publish(Event{Kind: KindRequestFailed})
		time.Sleep(time.Millisecond)
	}
	require.Eventually(t, func() bool {
		return len(b.Stats().OpenCircuits) == 1
	}, time.Second, 5*time.Millisecond)
}
