package dialogue

import (
	"sync"
	"time"
)

const DefaultInactivity = 5000 * time.Millisecond

// InactivityTimer calls fire once the quiet period passes without Arm being
// called again. Each arming has a generation so late fires can be recognised.
type InactivityTimer struct {
	mu   sync.Mutex
	d    time.Duration
	t    *time.Timer
	gen  uint64
	fire func(gen uint64)
}

func NewInactivityTimer(d time.Duration, fire func(gen uint64)) *InactivityTimer {
	if d <= 0 {
		d = DefaultInactivity
	}
	return &InactivityTimer{d: d, fire: fire}
}

func (t *InactivityTimer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
	}
	t.gen++
	g := t.gen
	t.t = time.AfterFunc(t.d, func() { t.fire(g) })
}

func (t *InactivityTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.gen++
}

// Current reports whether gen belongs to the latest Arm.
func (t *InactivityTimer) Current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.t != nil && gen == t.gen
}
