package session

import (
	"sync"
	"testing"
	"time"
)

func TestStoreCurrentBeforePublish(t *testing.T) {
	s := NewStore()
	if got := s.Current(); got != nil {
		t.Errorf("Current() before publish = %v, want nil", got)
	}
}

func TestStorePublishSwapsCurrent(t *testing.T) {
	s := NewStore()

	first := &Snapshot{TakenAt: time.Unix(100, 0)}
	second := &Snapshot{TakenAt: time.Unix(200, 0)}

	s.Publish(first)
	if got := s.Current(); got != first {
		t.Fatalf("Current() = %p, want first snapshot %p", got, first)
	}

	s.Publish(second)
	if got := s.Current(); got != second {
		t.Fatalf("Current() = %p, want second snapshot %p", got, second)
	}
}

func TestStoreSubscribeReceivesPublish(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe()

	snap := &Snapshot{TakenAt: time.Unix(100, 0)}
	s.Publish(snap)

	select {
	case got := <-ch:
		if got != snap {
			t.Errorf("received %p, want %p", got, snap)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive published snapshot")
	}
}

func TestStoreSubscribeLatestWins(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe()

	// Publish three without draining; only the newest should remain.
	for i := 1; i <= 3; i++ {
		s.Publish(&Snapshot{TakenAt: time.Unix(int64(i*100), 0)})
	}

	select {
	case got := <-ch:
		if got.TakenAt.Unix() != 300 {
			t.Errorf("received snapshot at %d, want newest (300)", got.TakenAt.Unix())
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive any snapshot")
	}

	// No older snapshot should be queued behind it.
	select {
	case got := <-ch:
		t.Errorf("unexpected second snapshot at %d", got.TakenAt.Unix())
	default:
	}
}

func TestStoreUnsubscribeCloses(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe()

	if got := s.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}

	s.Unsubscribe(ch)
	if got := s.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after Unsubscribe = %d, want 0", got)
	}

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	// A second Unsubscribe of the same channel must not panic.
	s.Unsubscribe(ch)
}

func TestStorePublishAfterUnsubscribe(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe()
	s.Unsubscribe(ch)

	// Publishing to a store with a removed subscriber must not panic.
	s.Publish(&Snapshot{TakenAt: time.Now()})
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			s.Publish(&Snapshot{TakenAt: time.Unix(int64(n), 0)})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Current()
		}()
		go func() {
			defer wg.Done()
			ch := s.Subscribe()
			s.Unsubscribe(ch)
		}()
	}

	wg.Wait()

	if s.Current() == nil {
		t.Error("Current() should be non-nil after publishes")
	}
	if got := s.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}
