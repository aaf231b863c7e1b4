package guard

import (
	"sync"
	"testing"
)

func TestLockRefusedWhilePaused(t *testing.T) {
	g := New()
	if !g.Pause() {
		t.Fatal("first pause must transition")
	}
	if g.Lock() {
		t.Fatal("lock must fail while paused")
	}
	if !g.Resume() {
		t.Fatal("resume must transition")
	}
	if !g.Lock() {
		t.Fatal("lock must succeed after resume")
	}
	g.Unlock()
}

func TestPauseResumeTransitions(t *testing.T) {
	g := New()
	if g.Resume() {
		t.Fatal("resume on a running guard must report no transition")
	}
	if !g.Pause() {
		t.Fatal("pause must transition")
	}
	if g.Pause() {
		t.Fatal("second pause must report no transition")
	}
	if !g.Paused() {
		t.Fatal("expected paused")
	}
	if !g.Resume() {
		t.Fatal("resume must transition")
	}
	if g.Paused() {
		t.Fatal("expected running")
	}
}

func TestLockSerializesMutations(t *testing.T) {
	g := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !g.Lock() {
				return
			}
			defer g.Unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
}
