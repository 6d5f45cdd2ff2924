// Package bus implements the process-global event bus: a bounded FIFO queue
// feeding a single dispatcher task that fans each event out to matching
// subscribers, concurrently, within a per-call timeout, breaking circuit to
// subscribers that repeatedly error or time out.
//
// Grounded on nugget-thane-ai-agent's internal/events.Bus (nil-safe,
// non-blocking Publish) generalized from per-subscriber fan-out channels to
// a single bounded queue with priority dispatch.
package bus

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultQueueCapacity is the bounded FIFO capacity (§4.1).
	DefaultQueueCapacity = 10_000
	// DefaultDispatchTimeout bounds a single subscriber call (§4.1).
	DefaultDispatchTimeout = 5 * time.Second
)

// SubscriberFunc handles one dispatched event.
type SubscriberFunc func(context.Context, Event) error

type subscription struct {
	kind     Kind
	priority int
	name     string
	handler  SubscriberFunc
	breaker  *breaker
	errs     atomic.Int64
	timeouts atomic.Int64
	skipped  atomic.Int64
}

// Bus is the process-global publish-subscribe dispatcher.
type Bus struct {
	log     *slog.Logger
	queue   chan Event
	timeout time.Duration

	mu   sync.RWMutex
	subs []*subscription

	dropped    atomic.Int64
	dispatched atomic.Int64
}

// New constructs a Bus with the given queue capacity and dispatch timeout.
// Zero values fall back to the §4.1 defaults.
func New(log *slog.Logger, capacity int, timeout time.Duration) *Bus {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bus{log: log, queue: make(chan Event, capacity), timeout: timeout}
}

// Publish enqueues an event without blocking. Returns false and increments
// the drop counter if the queue is full.
func (b *Bus) Publish(e Event) bool {
	select {
	case b.queue <- e:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Subscribe registers handler for kind ("*" for all kinds). Higher priority
// runs first within a single dispatch round.
func (b *Bus) Subscribe(kind Kind, priority int, name string, handler SubscriberFunc) {
	sub := &subscription{kind: kind, priority: priority, name: name, handler: handler, breaker: newBreaker(defaultBreakerConfig())}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
}

// Run is the single dispatcher loop. It returns when ctx is cancelled, once
// the queue has been drained of whatever was already enqueued.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case e := <-b.queue:
			b.dispatch(ctx, e)
		case <-ctx.Done():
			for {
				select {
				case e := <-b.queue:
					b.dispatch(ctx, e)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, e Event) {
	b.mu.RLock()
	matched := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.kind == KindWildcard || s.kind == e.Kind {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()
	if len(matched) == 0 {
		return
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].priority > matched[j].priority })

	g, gctx := errgroup.WithContext(context.Background())
	for _, s := range matched {
		s := s
		if !s.breaker.Allow() {
			s.skipped.Add(1)
			continue
		}
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, b.timeout)
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- s.handler(callCtx, e) }()
			select {
			case err := <-done:
				if err != nil {
					s.errs.Add(1)
					s.breaker.RecordError()
					b.log.LogAttrs(ctx, slog.LevelWarn, "bus subscriber error",
						slog.String("subscriber", s.name), slog.String("event_kind", string(e.Kind)), slog.Any("err", err))
				} else {
					s.breaker.RecordSuccess()
				}
				return nil
			case <-callCtx.Done():
				s.timeouts.Add(1)
				s.breaker.RecordError()
				b.log.LogAttrs(ctx, slog.LevelWarn, "bus subscriber timeout",
					slog.String("subscriber", s.name), slog.String("event_kind", string(e.Kind)))
				return nil
			}
		})
	}
	_ = g.Wait()
	b.dispatched.Add(1)
}

// Stats is a point-in-time snapshot of bus health.
type Stats struct {
	Dropped             int64
	Dispatched          int64
	PerSubscriberErrors map[string]int64
	PerSubscriberTimeouts map[string]int64
	OpenCircuits        []string
}

// Stats returns a copy of the bus's counters, never a live reference.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := Stats{
		Dropped:               b.dropped.Load(),
		Dispatched:            b.dispatched.Load(),
		PerSubscriberErrors:   make(map[string]int64, len(b.subs)),
		PerSubscriberTimeouts: make(map[string]int64, len(b.subs)),
	}
	for _, sub := range b.subs {
		s.PerSubscriberErrors[sub.name] = sub.errs.Load()
		s.PerSubscriberTimeouts[sub.name] = sub.timeouts.Load()
		if sub.breaker.State() == Open {
			s.OpenCircuits = append(s.OpenCircuits, sub.name)
		}
	}
	return s
}
