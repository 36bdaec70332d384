package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEngineStressConcurrentSchedule(t *testing.T) {
	engine := NewEngine(4096)
	engine.Start()
	defer engine.Stop()

	const workers = 8
	const perWorker = 200
	total := workers * perWorker

	now := time.Now()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				delay := time.Duration((w+i)%50+10) * time.Millisecond
				ev := Event{
					ID:        fmt.Sprintf("w%d-%d", w, i),
					Title:     "Reminder",
					TriggerAt: now.Add(delay),
				}
				if err := engine.Schedule(ev); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	deadline := time.After(5 * time.Second)
	var received int64
	for atomic.LoadInt64(&received) < int64(total) {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting events: received=%d total=%d dropped=%d", received, total, engine.Dropped())
		case <-engine.C():
			atomic.AddInt64(&received, 1)
		}
	}

	if got := int(received); got != total {
		t.Fatalf("unexpected received count: got=%d want=%d", got, total)
	}
	if engine.Pending() != 0 {
		t.Fatalf("expected drained queue, got=%d pending", engine.Pending())
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", engine.Dropped())
	}
}

func TestEngineStressCancelHalf(t *testing.T) {
	engine := NewEngine(1024)
	engine.Start()
	defer engine.Stop()

	const total = 400
	at := time.Now().Add(50 * time.Millisecond)
	for i := 0; i < total; i++ {
		if err := engine.Schedule(Event{ID: fmt.Sprintf("e-%d", i), TriggerAt: at}); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < total; i += 2 {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			engine.Cancel(id)
		}(fmt.Sprintf("e-%d", i))
	}
	wg.Wait()

	seen := 0
	timeout := time.After(2 * time.Second)
	for seen < total/2 {
		select {
		case ev := <-engine.C():
			var n int
			fmt.Sscanf(ev.ID, "e-%d", &n)
			if n%2 == 0 {
				t.Fatalf("cancelled event %s was delivered", ev.ID)
			}
			seen++
		case <-timeout:
			t.Fatalf("timed out: seen=%d", seen)
		}
	}
}
