// SPDX-License-Identifier: BSD-3-Clause

package broadcast

import (
	"testing"
	"time"
)

func TestSendRecv(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Send(42)

	v, lagged, ok := sub.Recv()
	if !ok || v != 42 || lagged != 0 {
		t.Errorf("Recv() = (%v, %v, %v), want (42, 0, true)", v, lagged, ok)
	}
}

func TestMultipleSubscribers(t *testing.T) {
	b := New[string]()
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer b.Unsubscribe(sub1)
	defer b.Unsubscribe(sub2)

	b.Send("batch")

	if v, _, ok := sub1.Recv(); !ok || v != "batch" {
		t.Errorf("sub1.Recv() = (%v, %v), want (batch, true)", v, ok)
	}
	if v, _, ok := sub2.Recv(); !ok || v != "batch" {
		t.Errorf("sub2.Recv() = (%v, %v), want (batch, true)", v, ok)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	b.Send(1)

	select {
	case v := <-sub.C():
		t.Errorf("received %v on an unsubscribed subscription", v)
	default:
	}
}

func TestLaggingSubscriberDropsOldest(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < capacity+3; i++ {
		b.Send(i)
	}

	v, lagged, ok := sub.Recv()
	if !ok {
		t.Fatal("Recv() ok = false, want true")
	}
	if lagged != 3 {
		t.Errorf("lagged = %d, want 3", lagged)
	}
	// Of the capacity+3 batches sent, the 3 oldest were dropped and the
	// newest `capacity` kept; the first surviving value is batch index 3.
	if v != 3 {
		t.Errorf("first surviving value = %d, want 3", v)
	}
}

func TestTakeLagResetsCounter(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < capacity+2; i++ {
		b.Send(i)
	}

	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a value on C()")
	}

	if lagged := sub.TakeLag(); lagged != 2 {
		t.Errorf("TakeLag() = %d, want 2", lagged)
	}
	if lagged := sub.TakeLag(); lagged != 0 {
		t.Errorf("second TakeLag() = %d, want 0", lagged)
	}
}
