package memorybus

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestLatch_FirstFireWins(t *testing.T) {
	l := NewLatch()

	var fired int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryFire() {
				atomic.AddInt32(&fired, 1)
			}
		}()
	}
	wg.Wait()

	if fired != 1 {
		t.Fatalf("fired: want 1, got %d", fired)
	}
	if !l.Fired() {
		t.Fatalf("latch should report fired")
	}
}

func TestLatch_ResetRearms(t *testing.T) {
	l := NewLatch()
	if !l.TryFire() {
		t.Fatalf("first fire should win")
	}
	if l.TryFire() {
		t.Fatalf("second fire should be absorbed")
	}
	l.Reset()
	if !l.TryFire() {
		t.Fatalf("fire after reset should win again")
	}
}

func TestBus_SignalReachesSubscribers(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Signal("auth.logout")

	evt := <-ch
	if evt.Topic != "auth.logout" {
		t.Fatalf("topic: want auth.logout, got %s", evt.Topic)
	}
	if evt.Payload != nil {
		t.Fatalf("signal should carry no payload")
	}
}

func TestBus_UnsubscribedChannelStopsReceiving(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	cancel()

	b.Signal("server.down")

	if _, ok := <-ch; ok {
		t.Fatalf("closed subscription should not receive events")
	}
}
