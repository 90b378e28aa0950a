package events

import (
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

// Bus delivers lifecycle events to typed subscribers.
//
// Every subscription owns its own topic on the underlying EventBus, so a
// handler can be removed without touching other subscribers of the same kind.
// EventBus only tracks which topics are live: Emit calls the handlers itself,
// outside any lock, so a handler may emit, subscribe or unsubscribe. Handlers
// run synchronously on the emitting goroutine, in subscription order.
type Bus struct {
	bus evbus.Bus

	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]*Subscription
}

// Subscription is a handle to one registered handler.
type Subscription struct {
	bus   *Bus
	kind  Kind
	topic string
	fn    interface{}
	// deliver calls fn with ev asserted to the handler's payload type.
	deliver func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		bus:  evbus.New(),
		subs: make(map[Kind][]*Subscription),
	}
}

// OnStateChange subscribes to STATE_CHANGE.
func (b *Bus) OnStateChange(fn func(StateChange)) *Subscription {
	return b.subscribe(KindStateChange, fn, typed(fn))
}

// OnError subscribes to ERROR.
func (b *Bus) OnError(fn func(Error)) *Subscription {
	return b.subscribe(KindError, fn, typed(fn))
}

// OnTransactionSubmitted subscribes to TRANSACTION_SUBMITTED.
func (b *Bus) OnTransactionSubmitted(fn func(TransactionSubmitted)) *Subscription {
	return b.subscribe(KindTransactionSubmitted, fn, typed(fn))
}

// OnTransactionCompleted subscribes to TRANSACTION_COMPLETED.
func (b *Bus) OnTransactionCompleted(fn func(TransactionCompleted)) *Subscription {
	return b.subscribe(KindTransactionCompleted, fn, typed(fn))
}

// OnWalletConnected subscribes to WALLET_CONNECTED.
func (b *Bus) OnWalletConnected(fn func(WalletConnected)) *Subscription {
	return b.subscribe(KindWalletConnected, fn, typed(fn))
}

// OnWalletChanged subscribes to WALLET_CHANGED.
func (b *Bus) OnWalletChanged(fn func(WalletChanged)) *Subscription {
	return b.subscribe(KindWalletChanged, fn, typed(fn))
}

// OnAny subscribes one handler to every kind. Unsubscribing any of the
// returned subscriptions removes only that kind.
func (b *Bus) OnAny(fn func(Event)) []*Subscription {
	out := make([]*Subscription, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, b.subscribe(k, fn, fn))
	}
	return out
}

// Emit delivers ev to every subscriber of its kind.
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	subs := append([]*Subscription(nil), b.subs[ev.Kind()]...)
	b.mu.Unlock()

	for _, s := range subs {
		// Skip handlers removed by an earlier handler of this emit.
		if b.bus.HasCallback(s.topic) {
			s.deliver(ev)
		}
	}
}

// Subscribers returns the number of live subscriptions for kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}

// UnsubscribeAll detaches every handler of every kind.
func (b *Bus) UnsubscribeAll() {
	b.mu.Lock()
	all := b.subs
	b.subs = make(map[Kind][]*Subscription)
	b.mu.Unlock()

	for _, subs := range all {
		for _, s := range subs {
			b.bus.Unsubscribe(s.topic, s.fn) //nolint:errcheck
		}
	}
}

// Unsubscribe removes the handler. Calling it twice is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	list := b.subs[s.kind]
	found := false
	for i, other := range list {
		if other == s {
			b.subs[s.kind] = append(list[:i:i], list[i+1:]...)
			found = true
			break
		}
	}
	b.mu.Unlock()

	if found {
		b.bus.Unsubscribe(s.topic, s.fn) //nolint:errcheck
	}
}

// Kind returns the event kind this subscription listens to.
func (s *Subscription) Kind() Kind {
	return s.kind
}

func (b *Bus) subscribe(kind Kind, fn interface{}, deliver func(Event)) *Subscription {
	b.mu.Lock()
	b.nextID++
	s := &Subscription{
		bus:     b,
		kind:    kind,
		topic:   fmt.Sprintf("%s#%d", kind, b.nextID),
		fn:      fn,
		deliver: deliver,
	}
	b.subs[kind] = append(b.subs[kind], s)
	b.mu.Unlock()

	// fn is always a func, the only thing EventBus rejects.
	b.bus.Subscribe(s.topic, fn) //nolint:errcheck
	return s
}

func typed[E Event](fn func(E)) func(Event) {
	return func(ev Event) {
		if e, ok := ev.(E); ok {
			fn(e)
		}
	}
}
