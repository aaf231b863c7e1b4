package guard

import "sync"

// Guard is the process-wide serialization point for governance mutations.
// Every state-mutating operation runs inside Lock/Unlock, so no operation
// ever observes another's half-applied state and the mid-operation oracle
// read cannot interleave with a second vote from the same account.
//
// The pause switch lives on the same mutex: Lock refuses to hand out the
// critical section while the system is paused.
type Guard struct {
	mu     sync.Mutex
	paused bool
}

func New() *Guard {
	return &Guard{}
}

// Lock enters the mutation critical section. It returns false without
// holding the lock when the system is paused; callers map that to their
// domain's paused error. Unlock must only follow a true return.
func (g *Guard) Lock() bool {
	g.mu.Lock()
	if g.paused {
		g.mu.Unlock()
		return false
	}
	return true
}

func (g *Guard) Unlock() {
	g.mu.Unlock()
}

// Pause engages the switch. Returns false when already paused.
func (g *Guard) Pause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return false
	}
	g.paused = true
	return true
}

// Resume releases the switch. Returns false when not paused.
func (g *Guard) Resume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return false
	}
	g.paused = false
	return true
}

func (g *Guard) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}
