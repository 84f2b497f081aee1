// SPDX-License-Identifier: BSD-3-Clause

// Package broadcast implements a bounded, multi-consumer, drop-oldest
// fan-out queue. No library in the retrieval pack provides this exact
// semantics (checked nursery, oversight, stateless — none offer pub/sub
// primitives), so it is hand-rolled on stdlib channels, matching the
// small single-purpose sync helpers the teacher keeps under pkg/.
package broadcast

import "sync"

// capacity is the fixed per-subscriber queue depth. A lagging subscriber
// that falls this far behind starts dropping the oldest pending batch
// rather than blocking the producer.
const capacity = 8

// Broadcast fans out batches of T to any number of subscribers. Sending
// never blocks the producer: a subscriber whose queue is full has its
// oldest pending batch dropped to make room, and its next Recv reports
// how many batches it missed.
type Broadcast[T any] struct {
	mu   sync.Mutex
	subs map[*Subscription[T]]struct{}
}

// New creates an empty Broadcast.
func New[T any]() *Broadcast[T] {
	return &Broadcast[T]{
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Subscription is one consumer's bounded view of a Broadcast's stream.
type Subscription[T any] struct {
	ch      chan T
	mu      sync.Mutex
	skipped uint64
}

// Subscribe registers a new subscriber. Callers must call Unsubscribe
// when done to release the subscription.
func (b *Broadcast[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		ch: make(chan T, capacity),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes a subscription from the broadcast.
func (b *Broadcast[T]) Unsubscribe(sub *Subscription[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// Send delivers a batch to every current subscriber. It never blocks: a
// subscriber whose queue is already full has its oldest batch evicted to
// make room, and its skipped counter incremented.
func (b *Broadcast[T]) Send(batch T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		sub.deliver(batch)
	}
}

func (s *Subscription[T]) deliver(batch T) {
	select {
	case s.ch <- batch:
		return
	default:
	}

	// Queue full: drop the oldest batch to make room for the newest.
	select {
	case <-s.ch:
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
	default:
	}

	select {
	case s.ch <- batch:
	default:
		// Another producer raced us; give up silently for this send.
	}
}

// Recv returns the next batch. ok is false if the subscription's channel
// was closed. lagged reports how many batches were dropped since the
// previous Recv call, 0 if none.
func (s *Subscription[T]) Recv() (batch T, lagged uint64, ok bool) {
	v, ok := <-s.ch
	s.mu.Lock()
	lagged = s.skipped
	s.skipped = 0
	s.mu.Unlock()
	return v, lagged, ok
}

// C exposes the underlying channel for use in a select statement
// alongside a context's Done channel.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// TakeLag atomically reads and resets the skipped-batch counter. Call
// this after receiving from C() to learn whether any batches were
// dropped before the one just received.
func (s *Subscription[T]) TakeLag() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	lagged := s.skipped
	s.skipped = 0
	return lagged
}
