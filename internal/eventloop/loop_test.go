package eventloop

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddTimerFiresCallback(t *testing.T) {
	l := NewLoop(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	done := make(chan string, 1)
	l.AddTimer(0, "eth0", func(iface string) { done <- iface })

	select {
	case iface := <-done:
		if iface != "eth0" {
			t.Errorf("callback iface = %q, want eth0", iface)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimersFireInOrder(t *testing.T) {
	l := NewLoop(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	wg.Add(3)
	l.AddTimer(30*time.Millisecond, "a", func(string) {
		mu.Lock()
		order = append(order, 3)
		mu.Unlock()
		wg.Done()
	})
	l.AddTimer(10*time.Millisecond, "a", func(string) {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
		wg.Done()
	})
	l.AddTimer(20*time.Millisecond, "a", func(string) {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		wg.Done()
	})

	waitOrTimeout(t, &wg, 2*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("fire order = %v, want [1 2 3]", order)
	}
}

func TestDeleteTimerCancelsByInterface(t *testing.T) {
	l := NewLoop(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	fired := make(chan struct{}, 1)
	l.AddTimer(20*time.Millisecond, "eth0", func(string) { fired <- struct{}{} })
	l.DeleteTimer("eth0", nil)

	select {
	case <-fired:
		t.Fatal("expected deleted timer not to fire")
	case <-time.After(100 * time.Millisecond):
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for timers to fire")
	}
}
